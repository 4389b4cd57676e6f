package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ledger/internal/core"
	"ledger/internal/csvio"
)

func TestResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		JSON(map[string]int{"id": 7}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q, want value", got)
	}
	if got := w.Body.String(); got != "{\"id\":7}\n" {
		t.Errorf("Body = %q", got)
	}
}

func TestResponseBuilder_Attachment(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Attachment(csvio.ContentTypeCSV, "out.csv").
		Body([]byte("a,b\n")).
		Write(w)

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="out.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := w.Header().Get("Content-Type"); got != csvio.ContentTypeCSV {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Body.String() != "a,b\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"unauthenticated", core.Unauthenticated("Unauthorized"), http.StatusUnauthorized, "Unauthorized"},
		{"forbidden", core.Forbidden("Forbidden. Admin only."), http.StatusForbidden, "Forbidden. Admin only."},
		{"not found", core.NotFound("Category not found"), http.StatusNotFound, "Category not found"},
		{"invalid", core.Invalid("Invalid id"), http.StatusBadRequest, "Invalid id"},
		{"conflict", core.Conflict("Category is in use"), http.StatusConflict, "Category is in use"},
		{"store failure", core.StoreFailure("list categories", errors.New("disk I/O error")), http.StatusInternalServerError, "list categories: disk I/O error"},
		{"wrapped kind", fmt.Errorf("handler: %w", core.NotFound("gone")), http.StatusNotFound, "gone"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ServiceError(tt.err).Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
			}
			if body["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", body["error"], tt.wantError)
			}
			if _, ok := body["details"]; ok {
				t.Error("details should be omitted for non-CSV errors")
			}
		})
	}
}

func TestServiceError_CSVDetails(t *testing.T) {
	parseErr := &csvio.ParseError{Details: []string{"line 2: too many fields: expected 5, got 6"}}
	err := &core.Error{Kind: core.ErrInvalidInput, Message: "CSV parse error", Err: parseErr}

	w := httptest.NewRecorder()
	ServiceError(err).Write(w)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Error != "CSV parse error" {
		t.Errorf("error = %q", body.Error)
	}
	if len(body.Details) != 1 || body.Details[0] != parseErr.Details[0] {
		t.Errorf("details = %v", body.Details)
	}
}

func TestMessageResponse(t *testing.T) {
	w := httptest.NewRecorder()
	MessageResponse("Category deleted").Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if got := w.Body.String(); got != "{\"message\":\"Category deleted\"}\n" {
		t.Errorf("body = %q", got)
	}
}
