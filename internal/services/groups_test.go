package services

import (
	"regexp"
	"testing"
)

func TestNewInviteCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{12}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewInviteCode()
		if err != nil {
			t.Fatalf("NewInviteCode: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("invite code %q is not 12 lowercase hex chars", code)
		}
		if seen[code] {
			t.Fatalf("invite code %q repeated", code)
		}
		seen[code] = true
	}
}

func TestUniqueStrings(t *testing.T) {
	got := uniqueStrings([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("uniqueStrings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("uniqueStrings = %v, want %v", got, want)
		}
	}
	if out := uniqueStrings(nil); len(out) != 0 {
		t.Fatalf("uniqueStrings(nil) = %v, want empty", out)
	}
}
