// Package passphrase implements the policy-driven password generator
// and weakness classifier described as an external surface of the
// Password Safe library: a small set of free functions over a config
// struct, no object graph, matching the rest of this module's style
// for single-purpose helpers.
package passphrase

import (
	"crypto/rand"
	"errors"
	"math/big"
	"sort"
	"strings"
)

// ErrInvalidPolicy is returned by MakePassword when no character class
// is enabled, or length is non-positive.
var ErrInvalidPolicy = errors.New("passphrase: invalid policy")

// Policy configures MakePassword's character classes and output length.
type Policy struct {
	Length       int
	UseDigits    bool
	UseLowercase bool
	UseUppercase bool
	UseSymbols   bool
	EasyView     bool // exclude visually confusable characters
}

const (
	digitsFull = "0123456789"
	digitsEasy = "346789"
	lowerFull  = "abcdefghijklmnopqrstuvwxyz"
	lowerEasy  = "abcdefghijkmnopqrstuvwxyz"
	upperFull  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	upperEasy  = "ABCDEFGHJKLMNPQRTUVWXY"
	symbolFull = "!@#$%^&*()-_=+[]{};:,.<>/?"
	symbolEasy = "!@#$%^&*()-_=+,.?"
)

func pools(p Policy) map[string]string {
	out := make(map[string]string, 4)
	if p.UseDigits {
		if p.EasyView {
			out["digit"] = digitsEasy
		} else {
			out["digit"] = digitsFull
		}
	}
	if p.UseLowercase {
		if p.EasyView {
			out["lower"] = lowerEasy
		} else {
			out["lower"] = lowerFull
		}
	}
	if p.UseUppercase {
		if p.EasyView {
			out["upper"] = upperEasy
		} else {
			out["upper"] = upperFull
		}
	}
	if p.UseSymbols {
		if p.EasyView {
			out["symbol"] = symbolEasy
		} else {
			out["symbol"] = symbolFull
		}
	}
	return out
}

func randIndex(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand failure here means the platform RNG is broken;
		// out of scope per this library's RNG-sourcing non-goal, but
		// we must return something rather than panic mid-generation.
		return 0
	}
	return int(v.Int64())
}

// MakePassword draws a policy.Length-character password guaranteed to
// contain at least one character from every enabled class.
//
// The source this is grounded on tracked "seen" state for all four
// character classes regardless of which were enabled, so a policy
// enabling fewer than four classes could loop forever waiting for a
// class that was never being generated. This tracks only the classes
// Policy actually enables, so the loop always terminates.
func MakePassword(p Policy) (string, error) {
	if p.Length <= 0 {
		return "", ErrInvalidPolicy
	}
	classPools := pools(p)
	if len(classPools) == 0 {
		return "", ErrInvalidPolicy
	}

	classes := make([]string, 0, len(classPools))
	for name := range classPools {
		classes = append(classes, name)
	}
	sort.Strings(classes)

	var allChars strings.Builder
	for _, name := range classes {
		allChars.WriteString(classPools[name])
	}
	pool := allChars.String()

	buf := make([]byte, p.Length)
	for {
		for i := range buf {
			buf[i] = pool[randIndex(len(pool))]
		}

		complete := true
		for _, name := range classes {
			if !strings.ContainsAny(string(buf), classPools[name]) {
				complete = false
				break
			}
		}
		if complete {
			return string(buf), nil
		}
	}
}

// IsWeak reports whether password fails the minimum strength bar:
// length >= 4 and at least one lowercase, one uppercase, and one
// digit-or-symbol character.
func IsWeak(password string) bool {
	if len(password) < 4 {
		return true
	}
	var hasLower, hasUpper, hasDigitOrSymbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigitOrSymbol = true
		case strings.ContainsRune(symbolFull, r):
			hasDigitOrSymbol = true
		}
	}
	return !(hasLower && hasUpper && hasDigitOrSymbol)
}
