package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"ledger/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth int
	}{
		{
			name:      "both values provided",
			query:     url.Values{"year": {"2024"}, "month": {"12"}},
			wantYear:  2024,
			wantMonth: 12,
		},
		{
			name:      "only year",
			query:     url.Values{"year": {"2023"}},
			wantYear:  2023,
			wantMonth: 0, // will be current month
		},
		{
			name:      "only month",
			query:     url.Values{"month": {"5"}},
			wantYear:  0, // will be current year
			wantMonth: 5,
		},
		{
			name:      "out of range month is passed through",
			query:     url.Values{"year": {"2025"}, "month": {"13"}},
			wantYear:  2025,
			wantMonth: 13,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseMonthParams(tt.query)

			if tt.wantYear != 0 && result.Year != tt.wantYear {
				t.Errorf("Year = %d, want %d", result.Year, tt.wantYear)
			}

			if tt.wantMonth != 0 && result.Month != tt.wantMonth {
				t.Errorf("Month = %d, want %d", result.Month, tt.wantMonth)
			}
		})
	}
}

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name     string
		query    url.Values
		wantSkip int
		wantTake int
	}{
		{"defaults", url.Values{}, 0, 5},
		{"explicit", url.Values{"skip": {"10"}, "take": {"20"}}, 10, 20},
		{"non-numeric coerced", url.Values{"skip": {"abc"}, "take": {"x"}}, 0, 0},
		{"negative coerced", url.Values{"skip": {"-3"}}, 0, 5},
		{"take capped", url.Values{"take": {"1000"}}, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := ParsePageParams(tt.query)
			if page.Skip != tt.wantSkip || page.Take != tt.wantTake {
				t.Errorf("ParsePageParams() = %+v, want skip=%d take=%d", page, tt.wantSkip, tt.wantTake)
			}
		})
	}
}

func TestParseUserIDParam(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantNil bool
		wantErr bool
	}{
		{"absent", "", 0, true, false},
		{"valid", "42", 42, false, false},
		{"non-numeric", "abc", 0, true, true},
		{"zero", "0", 0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := url.Values{}
			if tt.raw != "" {
				query.Set("userId", tt.raw)
			}
			got, err := ParseUserIDParam(query)

			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidInput) {
					t.Fatalf("error = %v, want invalid input", err)
				}
				if core.Message(err) != "Invalid userId" {
					t.Errorf("message = %q", core.Message(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil != (got == nil) {
				t.Fatalf("got = %v, wantNil %v", got, tt.wantNil)
			}
			if got != nil && *got != tt.want {
				t.Errorf("got = %d, want %d", *got, tt.want)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	mux := http.NewServeMux()
	var gotID int64
	var gotErr error
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		gotID, gotErr = PathID(r)
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/17", nil))
	if gotErr != nil || gotID != 17 {
		t.Errorf("PathID() = %d, %v; want 17", gotID, gotErr)
	}

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/abc", nil))
	if !errors.Is(gotErr, core.ErrInvalidInput) {
		t.Errorf("PathID(abc) error = %v, want invalid input", gotErr)
	}
}

func newParser(t *testing.T, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := newParser(t, `{"id": "123", "name": "  test\u0007 ", "amount": 42.5, "count": 3}`)

	if name := p.Get("name"); name != "test" {
		t.Errorf("Get('name') = %q, want 'test'", name)
	}

	id, ok, err := p.Int64("id")
	if err != nil || !ok || id != 123 {
		t.Errorf("Int64('id') = %d, %v, %v; want 123", id, ok, err)
	}

	count, ok, err := p.Int64("count")
	if err != nil || !ok || count != 3 {
		t.Errorf("Int64('count') = %d, %v, %v; want 3", count, ok, err)
	}

	amount, ok, err := p.Decimal("amount")
	if err != nil || !ok || amount.String() != "42.5" {
		t.Errorf("Decimal('amount') = %s, %v, %v; want 42.5", amount, ok, err)
	}

	if _, ok, _ := p.String("missing"); ok {
		t.Error("String('missing') reported present")
	}
}

func TestRequestBodyParser_TypeChecks(t *testing.T) {
	p := newParser(t, `{"name": 5, "categoryId": "x", "typeId": 1.5, "amount": "12abc", "description": null}`)

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"string field given a number", func() error { _, _, err := p.String("name"); return err }, "name must be a string"},
		{"integer field given text", func() error { _, _, err := p.Int64("categoryId"); return err }, "categoryId must be an integer"},
		{"integer field given a fraction", func() error { _, _, err := p.Int64("typeId"); return err }, "typeId must be an integer"},
		{"amount field given text", func() error { _, _, err := p.Decimal("amount"); return err }, "amount must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, core.ErrInvalidInput) {
				t.Fatalf("error = %v, want invalid input", err)
			}
			if core.Message(err) != tt.want {
				t.Errorf("message = %q, want %q", core.Message(err), tt.want)
			}
		})
	}

	if _, ok, err := p.String("description"); ok || err != nil {
		t.Errorf("null description: ok=%v err=%v, want absent", ok, err)
	}
}

func TestRequestBodyParser_Amounts(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"amount": 200}`, "200"},
		{`{"amount": "12,50"}`, "12.5"},
		{`{"amount": "0"}`, "0"},
		{`{"amount": -3.25}`, "-3.25"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got, ok, err := newParser(t, tt.body).Decimal("amount")
			if err != nil || !ok {
				t.Fatalf("Decimal() = %v, %v", ok, err)
			}
			if got.String() != tt.want {
				t.Errorf("Decimal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser_Date(t *testing.T) {
	p := newParser(t, `{"date": "2025-01-01", "bad": "yesterday"}`)

	d, present, ok := p.Date("date")
	if !present || !ok || d.Format("2006-01-02") != "2025-01-01" {
		t.Errorf("Date('date') = %v, %v, %v", d, present, ok)
	}
	if _, present, ok := p.Date("bad"); !present || ok {
		t.Errorf("Date('bad') present=%v ok=%v, want present and unparsable", present, ok)
	}
	if _, present, _ := p.Date("missing"); present {
		t.Error("Date('missing') reported present")
	}
}

func TestRequestBodyParser_Secret(t *testing.T) {
	p := newParser(t, `{"password": "  spaced pass "}`)

	got, ok, err := p.Secret("password")
	if err != nil || !ok || got != "  spaced pass " {
		t.Errorf("Secret() = %q, %v, %v; want the raw value", got, ok, err)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	p := newParser(t, "")

	if val := p.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	for _, body := range []string{"{not json", "name=form", `["array"]`} {
		t.Run(body, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
			err := NewRequestBodyParser(req).Parse()
			if !errors.Is(err, core.ErrInvalidInput) {
				t.Fatalf("Parse() error = %v, want invalid input", err)
			}
			if core.Message(err) != "Invalid JSON body" {
				t.Errorf("message = %q", core.Message(err))
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  plain  ", "plain"},
		{"tab\tkept", "tab\tkept"},
		{"bell\x07gone", "bellgone"},
		{"null\x00byte", "nullbyte"},
	}

	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
