package passphrase

import (
	"strings"
	"testing"
)

func TestMakePasswordCoverageAndPools(t *testing.T) {
	p := Policy{Length: 10, UseDigits: true, UseLowercase: true, UseUppercase: true, EasyView: true}
	for i := 0; i < 1000; i++ {
		pw, err := MakePassword(p)
		if err != nil {
			t.Fatalf("MakePassword: %v", err)
		}
		if len(pw) != 10 {
			t.Fatalf("len(pw) = %d, want 10", len(pw))
		}
		if !strings.ContainsAny(pw, digitsEasy) {
			t.Fatalf("pw %q missing a digit", pw)
		}
		if !strings.ContainsAny(pw, lowerEasy) {
			t.Fatalf("pw %q missing a lowercase letter", pw)
		}
		if !strings.ContainsAny(pw, upperEasy) {
			t.Fatalf("pw %q missing an uppercase letter", pw)
		}
		allowed := digitsEasy + lowerEasy + upperEasy
		for _, r := range pw {
			if !strings.ContainsRune(allowed, r) {
				t.Fatalf("pw %q contains out-of-pool character %q", pw, r)
			}
		}
	}
}

func TestMakePasswordInvalidPolicy(t *testing.T) {
	if _, err := MakePassword(Policy{Length: 10}); err != ErrInvalidPolicy {
		t.Fatalf("no classes enabled: got %v, want ErrInvalidPolicy", err)
	}
	if _, err := MakePassword(Policy{UseDigits: true}); err != ErrInvalidPolicy {
		t.Fatalf("zero length: got %v, want ErrInvalidPolicy", err)
	}
}

func TestMakePasswordSingleClassTerminates(t *testing.T) {
	pw, err := MakePassword(Policy{Length: 6, UseDigits: true})
	if err != nil {
		t.Fatalf("MakePassword: %v", err)
	}
	if len(pw) != 6 {
		t.Fatalf("len = %d, want 6", len(pw))
	}
}

func TestIsWeak(t *testing.T) {
	cases := []struct {
		pw   string
		weak bool
	}{
		{"abc", true},
		{"abcdefgh", true},
		{"ABCDEFGH", true},
		{"Abcdefg1", false},
		{"Ab1!", false},
	}
	for _, c := range cases {
		if got := IsWeak(c.pw); got != c.weak {
			t.Errorf("IsWeak(%q) = %v, want %v", c.pw, got, c.weak)
		}
	}
}
