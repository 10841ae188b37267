// Package isbn cleans raw identifier strings and converts ISBN-10 to ISBN-13.
package isbn

import (
	"strconv"
	"strings"
)

// Clean removes every character that is not a digit or X/x.
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == 'X' || r == 'x' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize cleans raw and converts a 10 character result to ISBN-13.
// Any other length is returned cleaned but otherwise untouched.
func Normalize(raw string) string {
	cleaned := Clean(raw)
	switch len(cleaned) {
	case 13:
		return cleaned
	case 10:
		return TenToThirteen(cleaned)
	default:
		return cleaned
	}
}

// TenToThirteen prefixes 978 to the first nine digits of isbn10 and
// appends a fresh EAN-13 check digit. The ISBN-10 check character is
// discarded. If isbn10 is not ten characters or its leading nine are not
// all digits, isbn10 is returned unchanged.
func TenToThirteen(isbn10 string) string {
	if len(isbn10) != 10 || !allDigits(isbn10[:9]) {
		return isbn10
	}
	core := "978" + isbn10[:9]
	return core + strconv.Itoa(checkDigit13(core))
}

// IsValid reports whether s is a 13 digit string with a correct check digit.
func IsValid(s string) bool {
	if len(s) != 13 || !allDigits(s) {
		return false
	}
	return checkDigit13(s[:12]) == int(s[12]-'0')
}

func checkDigit13(core string) int {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(core[i] - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	return (10 - sum%10) % 10
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
