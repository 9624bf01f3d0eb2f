package utils_test

import (
	"testing"

	"github.com/saralerp/books_backend/utils"
)

func TestValidatePhoneNumber(t *testing.T) {
	if err := utils.ValidatePhoneNumber("+919876543210", "IN"); err != nil {
		t.Fatalf("valid mobile rejected: %v", err)
	}
	if err := utils.ValidatePhoneNumber("9876543210", "IN"); err != nil {
		t.Fatalf("valid national format rejected: %v", err)
	}
	if err := utils.ValidatePhoneNumber("12345", "IN"); err == nil {
		t.Fatal("short number accepted")
	}
	if err := utils.ValidatePhoneNumber("not-a-number", "IN"); err == nil {
		t.Fatal("garbage accepted")
	}
}
