package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
)

type topUpPayload struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

type registerPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestDecodeAndValidate(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid top-up", `{"amount_cents": 500}`, false},
		{"zero amount", `{"amount_cents": 0}`, true},
		{"negative amount", `{"amount_cents": -100}`, true},
		{"missing field", `{}`, true},
		{"malformed json", `{"amount_cents":`, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/wallet/topup", strings.NewReader(tc.body))

			var payload topUpPayload
			err := DecodeAndValidate(r, &payload)

			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	err := ValidateRequest(registerPayload{Email: "not-an-email", Password: "short"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	formatted := FormatValidationErrors(err)
	if len(formatted) != 2 {
		t.Fatalf("expected 2 validation errors, got %d", len(formatted))
	}

	byField := make(map[string]string)
	for _, fe := range formatted {
		byField[fe.Field] = fe.Message
	}

	if byField["Email"] == "" {
		t.Error("expected error for Email field")
	}
	if byField["Password"] == "" {
		t.Error("expected error for Password field")
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/wallet/topup", strings.NewReader("not json"))

	var payload topUpPayload
	err := DecodeAndValidate(r, &payload)
	if err == nil {
		t.Fatal("expected decode error")
	}

	// Decode errors are not field errors and must format to an empty list
	if formatted := FormatValidationErrors(err); len(formatted) != 0 {
		t.Errorf("expected no field errors, got %d", len(formatted))
	}
}
