package util

import (
	"testing"

	"finance-dashboard/src/models"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Sh0rt!", false},
		{"alllowercase1!", false},
		{"NoDigits!!", false},
		{"NoSymbol123", false},
		{"Str0ng!Pass", true},
	}
	for _, tt := range tests {
		if got := ValidatePassword(tt.password); got != tt.want {
			t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if !ValidateEmail("user1@example.com") {
		t.Error("ValidateEmail(user1@example.com) = false")
	}
	if ValidateEmail("user1@example") {
		t.Error("ValidateEmail(user1@example) = true")
	}
}

func TestValidateStructUsesFieldMessages(t *testing.T) {
	errs := ValidateStruct(models.LoginRequest{Email: "nope", Password: "123"})
	if len(errs) != 2 {
		t.Fatalf("len(errs) = %d, want 2: %+v", len(errs), errs)
	}
	if errs[0].Field != "email" || errs[0].Message != "Please provide a valid email" {
		t.Errorf("errs[0] = %+v", errs[0])
	}
	if errs[1].Field != "password" || errs[1].Message != "Password must be at least 6 characters long" {
		t.Errorf("errs[1] = %+v", errs[1])
	}

	if errs := ValidateStruct(models.LoginRequest{Email: "user1@example.com", Password: "secret"}); errs != nil {
		t.Errorf("ValidateStruct(valid) = %+v, want nil", errs)
	}
}

func TestValidateStructCollapsesSliceErrors(t *testing.T) {
	amount := models.Amount(10)
	req := models.CreateTransactionRequest{
		Date: "2024-03-01", Description: "ok", Category: "Food", Amount: &amount,
		Type: "transfer", Account: "Checking",
		Tags: []string{"fine", string(make([]byte, 60)), string(make([]byte, 70))},
	}
	errs := ValidateStruct(req)
	if len(errs) != 2 {
		t.Fatalf("errs = %+v, want type and tags", errs)
	}
	if errs[0].Field != "type" || errs[1].Field != "tags" {
		t.Errorf("fields = %s, %s; want type, tags", errs[0].Field, errs[1].Field)
	}
}
