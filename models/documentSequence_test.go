package models_test

import (
	"testing"

	"github.com/saralerp/books_backend/models"
)

func TestNextDocumentNumber(t *testing.T) {
	cases := []struct {
		name   string
		prefix string
		latest string
		want   string
	}{
		{"seeds first number", "CN-202501-", "", "CN-202501-0001"},
		{"increments trailing digits", "CN-202501-", "CN-202501-0007", "CN-202501-0008"},
		{"preserves pad width", "INV-", "INV-0099", "INV-0100"},
		{"grows past pad width", "INV-", "INV-9999", "INV-10000"},
		{"handles wider suffixes", "INV-", "INV-000123", "INV-000124"},
		{"increments digits after letters", "DOC", "DOCA12", "DOCA13"},
		{"falls back when suffix has no digits", "INV-", "INV-DRAFT", "INV-DRAFT-1"},
		{"falls back on bare prefix", "INV-", "INV-", "INV--1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := models.NextDocumentNumber(tc.prefix, tc.latest)
			if got != tc.want {
				t.Fatalf("NextDocumentNumber(%q, %q) = %q, want %q", tc.prefix, tc.latest, got, tc.want)
			}
		})
	}
}

func TestNextDocumentNumberIsDeterministic(t *testing.T) {
	first := models.NextDocumentNumber("INV-", "INV-0042")
	second := models.NextDocumentNumber("INV-", "INV-0042")
	if first != second {
		t.Fatalf("same input must yield same number: %q vs %q", first, second)
	}
}
