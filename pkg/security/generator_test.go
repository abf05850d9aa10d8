package security

import (
	"encoding/base64"
	"strings"
	"testing"
	"unicode"
)

func TestTemporaryPasswordLength(t *testing.T) {
	tests := []struct {
		length int
		valid  bool
	}{
		{8, true},
		{12, true},
		{64, true},
		{7, false},
		{0, false},
		{-3, false},
	}

	for _, tt := range tests {
		got, err := TemporaryPassword(tt.length)
		if !tt.valid {
			if err == nil {
				t.Errorf("length %d: expected error", tt.length)
			}
			continue
		}
		if err != nil {
			t.Fatalf("length %d: %v", tt.length, err)
		}
		if len(got) != tt.length {
			t.Errorf("length %d: got %d characters", tt.length, len(got))
		}
	}
}

func TestTemporaryPasswordCoversEveryClass(t *testing.T) {
	for i := 0; i < 200; i++ {
		got, err := TemporaryPassword(MinPasswordLength)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}

		for _, class := range charClasses {
			if !strings.ContainsAny(got, class) {
				t.Fatalf("%q has no character from %q", got, class)
			}
		}
	}
}

func TestTemporaryPasswordPassesSignupRules(t *testing.T) {
	got, err := TemporaryPassword(12)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var lower, upper, digit bool
	for _, r := range got {
		lower = lower || unicode.IsLower(r)
		upper = upper || unicode.IsUpper(r)
		digit = digit || unicode.IsDigit(r)
	}
	if !lower || !upper || !digit {
		t.Fatalf("%q misses a required character class", got)
	}
}

func TestTemporaryPasswordOnlyUsesAllowedAlphabet(t *testing.T) {
	alphabet := strings.Join(charClasses, "")
	got, err := TemporaryPassword(256)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, r := range got {
		if !strings.ContainsRune(alphabet, r) {
			t.Fatalf("unexpected character %q", r)
		}
	}
}

func TestSecret(t *testing.T) {
	if _, err := Secret(MinSecretBytes - 1); err == nil {
		t.Fatal("expected short secret to be rejected")
	}

	a, err := Secret(MinSecretBytes)
	if err != nil {
		t.Fatalf("secret: %v", err)
	}
	b, err := Secret(MinSecretBytes)
	if err != nil {
		t.Fatalf("secret: %v", err)
	}
	if a == b {
		t.Fatal("two secrets must differ")
	}

	raw, err := base64.RawURLEncoding.DecodeString(a)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw) != MinSecretBytes {
		t.Fatalf("want %d bytes, got %d", MinSecretBytes, len(raw))
	}
}
