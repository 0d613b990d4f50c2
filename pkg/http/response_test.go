package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "marina/pkg/errors"
)

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()

	if err := WriteError(rec, apperrors.Conflict("Berth 3 already exists")); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Code != apperrors.CodeConflict {
		t.Errorf("expected CONFLICT code, got %s", body.Code)
	}
}

func TestWriteError_PlainErrorIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()

	_ = WriteError(rec, errors.New("connection refused to 10.0.0.5"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Errorf("internal detail leaked: %s", rec.Body.String())
	}
}

func TestWriteSuccess_NoEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	_ = WriteSuccess(rec, map[string]string{"token": "abc"})

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["token"] != "abc" {
		t.Errorf("expected resource at top level, got %v", body)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}

func TestExtractLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int64
		wantErr    bool
	}{
		{"defaults", "", 20, 0, false},
		{"explicit", "?limit=5&offset=10", 5, 10, false},
		{"clamped", "?limit=500&offset=-3", 100, 0, false},
		{"bad limit", "?limit=abc", 0, 0, true},
		{"bad offset", "?offset=x", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/reservations"+tt.query, nil)
			limit, offset, err := ExtractLimitOffset(r)
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
					t.Errorf("expected INVALID_INPUT, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got (%d, %d), want (%d, %d)", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}

	r := httptest.NewRequest(http.MethodPost, "/api/accounts/login", strings.NewReader(`{"email":"a@b.c"}`))
	if err := DecodeJSON(r, &dst); err != nil || dst.Email != "a@b.c" {
		t.Errorf("expected decode to succeed, got %v (%+v)", err, dst)
	}

	r = httptest.NewRequest(http.MethodPost, "/api/accounts/login", strings.NewReader(""))
	if err := DecodeJSON(r, &dst); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("empty body should be INVALID_INPUT, got %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/api/accounts/login", strings.NewReader("{"))
	if err := DecodeJSON(r, &dst); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("malformed body should be INVALID_INPUT, got %v", err)
	}
}

func TestIsAPIRequest(t *testing.T) {
	if !IsAPIRequest(httptest.NewRequest(http.MethodGet, "/api/berths", nil)) {
		t.Error("/api/berths should be an API request")
	}
	if IsAPIRequest(httptest.NewRequest(http.MethodGet, "/berths", nil)) {
		t.Error("/berths should be a page request")
	}
}
