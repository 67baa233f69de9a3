package handlers

import (
	"strings"
	"testing"
)

func TestValidateRegisterRequest(t *testing.T) {
	valid := RegisterRequest{
		Identity: "1234567890",
		Password: "Str0ng&Pass1234",
		FullName: "Alice van der Merwe",
		IDNumber: "9001015009087",
	}

	tests := []struct {
		name    string
		mutate  func(r *RegisterRequest)
		wantErr string
	}{
		{"valid", func(r *RegisterRequest) {}, ""},
		{"accented name", func(r *RegisterRequest) { r.FullName = "Zoë O'Brien-Løken" }, ""},
		{"identity too short", func(r *RegisterRequest) { r.Identity = "1234567" }, "Identity"},
		{"identity too long", func(r *RegisterRequest) { r.Identity = strings.Repeat("1", 21) }, "Identity"},
		{"identity not numeric", func(r *RegisterRequest) { r.Identity = "alice" }, "Identity"},
		{"missing identity", func(r *RegisterRequest) { r.Identity = "" }, "Identity"},
		{"id number short", func(r *RegisterRequest) { r.IDNumber = "900101500908" }, "IDNumber"},
		{"id number non-numeric", func(r *RegisterRequest) { r.IDNumber = "900101500908a" }, "IDNumber"},
		{"name with digits", func(r *RegisterRequest) { r.FullName = "Alice99" }, "FullName"},
		{"name too short", func(r *RegisterRequest) { r.FullName = "A" }, "FullName"},
		{"missing password", func(r *RegisterRequest) { r.Password = "" }, "Password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := ValidateRequest(req)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should name field %s", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateSubmitPaymentRequest(t *testing.T) {
	valid := SubmitPaymentRequest{
		Amount:      "1500.50",
		Currency:    "ZAR",
		SwiftBic:    "ABSAZAJJ",
		Beneficiary: "Bob's Hardware",
	}

	tests := []struct {
		name    string
		mutate  func(r *SubmitPaymentRequest)
		wantErr bool
	}{
		{"valid", func(r *SubmitPaymentRequest) {}, false},
		{"valid 11-char bic", func(r *SubmitPaymentRequest) { r.SwiftBic = "ABSAZAJJXXX" }, false},
		{"integer amount", func(r *SubmitPaymentRequest) { r.Amount = "100" }, false},
		{"amount three decimals", func(r *SubmitPaymentRequest) { r.Amount = "100.123" }, true},
		{"negative amount", func(r *SubmitPaymentRequest) { r.Amount = "-100" }, true},
		{"amount not numeric", func(r *SubmitPaymentRequest) { r.Amount = "abc" }, true},
		{"lowercase currency", func(r *SubmitPaymentRequest) { r.Currency = "zar" }, true},
		{"currency too long", func(r *SubmitPaymentRequest) { r.Currency = "ZARR" }, true},
		{"bic too short", func(r *SubmitPaymentRequest) { r.SwiftBic = "ABSAZ" }, true},
		{"beneficiary too short", func(r *SubmitPaymentRequest) { r.Beneficiary = "B" }, true},
		{"missing beneficiary", func(r *SubmitPaymentRequest) { r.Beneficiary = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := ValidateRequest(req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequest error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
