// Package iban validates and formats International Bank Account Numbers
// per ISO 13616.
package iban

import (
	"math/big"
	"strings"
)

var ninetySeven = big.NewInt(97)

// Valid reports whether s passes the ISO 13616 structure and mod-97
// checksum. Spaces are tolerated, case is not significant.
func Valid(s string) bool {
	s = normalize(s)
	if len(s) < 15 || len(s) > 34 {
		return false
	}
	for i, r := range s {
		switch {
		case i < 2 && (r < 'A' || r > 'Z'):
			return false
		case i >= 2 && i < 4 && (r < '0' || r > '9'):
			return false
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}

	// Move the country code and check digits to the end, expand letters
	// to two-digit numbers (A=10 .. Z=35), then check mod 97 == 1.
	rearranged := s[4:] + s[:4]
	var digits strings.Builder
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			digits.WriteString(big.NewInt(int64(r-'A') + 10).String())
		} else {
			digits.WriteRune(r)
		}
	}
	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, ninetySeven).Int64() == 1
}

// Format renders an IBAN in display form, grouped in blocks of four.
func Format(s string) string {
	s = normalize(s)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func normalize(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}
