// Package otp holds the one-time code input rules and the resend cooldown
// shared by the verify, resend and password reset flows.
package otp

import "strings"

// CodeLength is the number of digits in a one-time code
const CodeLength = 6

// SanitizeCode keeps only digits from raw input and caps the result at
// CodeLength characters
func SanitizeCode(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if b.Len() == CodeLength {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanSubmit reports whether code may be sent: exactly CodeLength digits and
// no submission already in flight
func CanSubmit(code string, submitting bool) bool {
	if submitting || len(code) != CodeLength {
		return false
	}
	return SanitizeCode(code) == code
}
