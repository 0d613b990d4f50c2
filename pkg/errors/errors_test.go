package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestWrap(t *testing.T) {
	originalErr := errors.New("database connection failed")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if errors.Unwrap(wrapped) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "Berth not found"},
			expected: "NOT_FOUND: Berth not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors_StatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Berth"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad body"), CodeInvalidInput, http.StatusBadRequest},
		{"missing fields", MissingFields("email"), CodeMissingFields, http.StatusBadRequest},
		{"invalid range", InvalidRange("start must be before end"), CodeInvalidRange, http.StatusBadRequest},
		{"unauthorized", Unauthorized(ReasonTokenRequired), CodeUnauthorized, http.StatusUnauthorized},
		{"conflict", Conflict("taken"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusServiceUnavailable},
		{"unavailable", Unavailable("MongoDB"), CodeUnavailable, http.StatusServiceUnavailable},
		{"rate limited", RateLimited(), CodeRateLimited, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.StatusCode())
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Reservation", "65f0c0ffee")

	if err.Details["id"] != "65f0c0ffee" {
		t.Errorf("expected id detail, got %v", err.Details["id"])
	}
	if err.Details["resource"] != "Reservation" {
		t.Errorf("expected resource detail, got %v", err.Details["resource"])
	}
	if err.Message != "Reservation not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestMissingFields_ListsFields(t *testing.T) {
	err := MissingFields("username", "password")

	if !strings.Contains(err.Message, "username, password") {
		t.Errorf("message should list the fields, got %q", err.Message)
	}
	fields, ok := err.Details["fields"].([]string)
	if !ok || len(fields) != 2 {
		t.Errorf("expected fields detail, got %v", err.Details["fields"])
	}
}

func TestUnauthorized_CarriesReason(t *testing.T) {
	err := Unauthorized(ReasonTokenNotValid)

	if err.Message != ReasonTokenNotValid {
		t.Errorf("expected message %q, got %q", ReasonTokenNotValid, err.Message)
	}
	if err.Details["reason"] != ReasonTokenNotValid {
		t.Errorf("expected reason detail, got %v", err.Details["reason"])
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Account")
	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return same AppError")
	}

	wrapped := fmt.Errorf("lookup: %w", appErr)
	if AsAppError(wrapped) != appErr {
		t.Errorf("AsAppError() should find a wrapped AppError")
	}
	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should see through wrapping")
	}

	regularErr := errors.New("regular error")
	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
	if IsAppError(regularErr) {
		t.Errorf("IsAppError() should return false for regular error")
	}
}

func TestHasCode(t *testing.T) {
	if !HasCode(Conflict("x"), CodeConflict) {
		t.Error("HasCode should match the conflict code")
	}
	if HasCode(Conflict("x"), CodeNotFound) {
		t.Error("HasCode should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeConflict) {
		t.Error("HasCode should be false for plain errors")
	}
}

func TestAppError_ToJSON_OmitsCause(t *testing.T) {
	err := Internal("An unexpected error occurred", errors.New("mongo: secret connection string"))

	var body map[string]any
	if jsonErr := json.Unmarshal(err.ToJSON(), &body); jsonErr != nil {
		t.Fatalf("ToJSON() returned invalid JSON: %v", jsonErr)
	}
	if body["code"] != CodeInternal {
		t.Errorf("expected code in body, got %v", body["code"])
	}
	if strings.Contains(string(err.ToJSON()), "secret") {
		t.Errorf("ToJSON() must not leak the wrapped cause")
	}
}
