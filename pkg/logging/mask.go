package logging

import (
	"strings"
	"unicode"
)

// MaskEmail hides the local part of an address except its first and last rune.
//
//	"jane@example.com" -> "j**e@example.com"
//	"ab@example.com"   -> "a*@example.com"
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return maskToken(email)
	}
	return maskToken(email[:at]) + email[at:]
}

// MaskPhone replaces every digit except the last four with '*', keeping punctuation.
//
//	"(760) 846-0414" -> "(***) ***-0414"
func MaskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	runes := []rune(phone)
	digits := 0
	for _, r := range runes {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	keep := 4
	if digits <= 4 {
		keep = 1
	}
	seen := 0
	for i, r := range runes {
		if !unicode.IsDigit(r) {
			continue
		}
		seen++
		if seen <= digits-keep {
			runes[i] = '*'
		}
	}
	return string(runes)
}

func maskToken(s string) string {
	runes := []rune(s)
	switch n := len(runes); {
	case n <= 1:
		return s
	case n == 2:
		return string(runes[0]) + "*"
	default:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	}
}
