package sms

import (
	"regexp"
	"strings"
)

var (
	e164       = regexp.MustCompile(`^\+\d{11,15}$`)
	phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// Normalize converts a phone number to +<country><digits>. Ten digit
// numbers are assumed to be US, eleven digit numbers starting with 1 get
// a bare +, numbers already starting with + pass through and anything
// else is prefixed with + as-is. Normalize does not validate; see IsValid.
func Normalize(phone string) string {
	p := phoneNoise.Replace(strings.TrimSpace(phone))
	switch {
	case p == "":
		return ""
	case strings.HasPrefix(p, "+"):
		return p
	case len(p) == 10 && allDigits(p):
		return "+1" + p
	case len(p) == 11 && strings.HasPrefix(p, "1") && allDigits(p):
		return "+" + p
	default:
		return "+" + p
	}
}

// IsValid reports whether phone is + followed by 11 to 15 digits.
func IsValid(phone string) bool {
	return e164.MatchString(phone)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
