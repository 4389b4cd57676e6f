// This file implements utilities for parsing and validating HTTP request data:
// query parameters, path ids and JSON bodies with type-checked fields.

package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// maxJSONBody bounds JSON request bodies. CSV uploads have their own limit.
const maxJSONBody = 1 << 20

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using current date as defaults.
func ParseMonthParams(query url.Values) MonthParams {
	now := time.Now()
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			params.Month = m
		}
	}

	return params
}

// ParsePageParams reads skip and take from the query string.
func ParsePageParams(query url.Values) core.Page {
	return core.ParsePage(query.Get("skip"), query.Get("take"))
}

// ParseUserIDParam reads the optional userId filter. It is only meaningful
// to administrators; the services ignore it for everyone else.
func ParseUserIDParam(query url.Values) (*int64, error) {
	raw := strings.TrimSpace(query.Get("userId"))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, core.Invalid("Invalid userId")
	}
	return &id, nil
}

// PathID parses the {id} path value.
func PathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid("Invalid id")
	}
	return id, nil
}

// RequestBodyParser decodes a JSON object body once and exposes its fields
// with presence and type checks.
type RequestBodyParser struct {
	body   []byte
	fields map[string]json.RawMessage
	parsed bool
	err    error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if p.err == nil && len(p.body) > maxJSONBody {
		p.err = core.Invalid("Request body too large")
	}
	return p
}

// Parse decodes the body. An empty body is an empty object.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	p.fields = make(map[string]json.RawMessage)
	if len(bytes.TrimSpace(p.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(p.body, &p.fields); err != nil {
		p.err = core.Invalid("Invalid JSON body")
		return p.err
	}
	return nil
}

// String returns the sanitized string at key.
func (p *RequestBodyParser) String(key string) (string, bool, error) {
	raw, ok := p.fields[key]
	if !ok || isNull(raw) {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", true, fieldError(key, "a string")
	}
	return sanitizeInput(s), true, nil
}

// Secret returns the string at key as sent, for passwords.
func (p *RequestBodyParser) Secret(key string) (string, bool, error) {
	raw, ok := p.fields[key]
	if !ok || isNull(raw) {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", true, fieldError(key, "a string")
	}
	return s, true, nil
}

// Get returns the string at key, or "" when absent or mistyped.
func (p *RequestBodyParser) Get(key string) string {
	s, _, err := p.String(key)
	if err != nil {
		return ""
	}
	return s
}

// Int64 returns the integer at key. Numeric strings are accepted.
func (p *RequestBodyParser) Int64(key string) (int64, bool, error) {
	raw, ok := p.fields[key]
	if !ok || isNull(raw) {
		return 0, false, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, true, fieldError(key, "an integer")
		}
		n = json.Number(strings.TrimSpace(s))
	}
	v, err := n.Int64()
	if err != nil {
		return 0, true, fieldError(key, "an integer")
	}
	return v, true, nil
}

// Decimal returns the amount at key. Both JSON numbers and strings such as
// "12,50" are accepted.
func (p *RequestBodyParser) Decimal(key string) (decimal.Decimal, bool, error) {
	raw, ok := p.fields[key]
	if !ok || isNull(raw) {
		return decimal.Zero, false, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var n json.Number
		if json.Unmarshal(raw, &n) != nil {
			return decimal.Zero, true, fieldError(key, "a number")
		}
		text = n.String()
	}
	d, err := core.ParseAmount(text)
	if err != nil {
		return decimal.Zero, true, fieldError(key, "a number")
	}
	return d, true, nil
}

// Date returns the date at key. The second result is false when the key is
// absent; the third is false when the value is present but unparsable.
func (p *RequestBodyParser) Date(key string) (time.Time, bool, bool) {
	s, present, err := p.String(key)
	if !present {
		return time.Time{}, false, false
	}
	if err != nil {
		return time.Time{}, true, false
	}
	t, ok := core.ParseDate(s)
	return t, true, ok
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func fieldError(key, want string) error {
	return core.Invalid(fmt.Sprintf("%s must be %s", key, want))
}
