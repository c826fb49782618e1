package services

import (
	"errors"
	"testing"

	"studyhive-backend-go/internal/models"
)

func strPtr(s string) *string { return &s }

func TestCheckResourcePayload(t *testing.T) {
	cases := []struct {
		name  string
		input ResourceInput
		ok    bool
	}{
		{"file with upload", ResourceInput{Type: models.ResourceFile, FileURL: strPtr("/api/v1/media/assets/x/content")}, true},
		{"file without upload", ResourceInput{Type: models.ResourceFile}, false},
		{"link with url", ResourceInput{Type: models.ResourceLink, LinkURL: strPtr("https://example.com")}, true},
		{"link without url", ResourceInput{Type: models.ResourceLink}, false},
		{"link with blank url", ResourceInput{Type: models.ResourceLink, LinkURL: strPtr("   ")}, false},
		{"note with description", ResourceInput{Type: models.ResourceNote, Description: strPtr("read chapter 3")}, true},
		{"note without description", ResourceInput{Type: models.ResourceNote}, false},
		{"unknown type", ResourceInput{Type: "video"}, false},
		{"empty type", ResourceInput{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkResourcePayload(tc.input)
			if tc.ok && err != nil {
				t.Fatalf("expected valid payload, got %v", err)
			}
			if !tc.ok {
				var svcErr ServiceError
				if !errors.As(err, &svcErr) || svcErr.Status != 400 {
					t.Fatalf("expected 400, got %v", err)
				}
			}
		})
	}
}

func TestResourceOrder(t *testing.T) {
	cases := map[string]string{
		"recent":  "created_at DESC",
		"oldest":  "created_at ASC",
		"title":   "lower(title) ASC",
		"":        "created_at DESC",
		"bogus":   "created_at DESC",
		"\"; --": "created_at DESC",
	}
	for sortBy, want := range cases {
		if got := ResourceOrder(sortBy); got != want {
			t.Errorf("ResourceOrder(%q) = %q, want %q", sortBy, got, want)
		}
	}
}
