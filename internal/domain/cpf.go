package domain

import "strings"

// CPF is the payer's 11-digit taxpayer identifier, stored in canonical form
// (digits only).
type CPF struct {
	value string
}

func NewCPF(raw string) (CPF, error) {
	canonical := normalizeCPF(raw)
	if !isCanonicalCPF(canonical) {
		return CPF{}, ErrInvalidCPF
	}
	return CPF{value: canonical}, nil
}

// ValidCPF reports whether raw normalizes to a well-formed CPF.
func ValidCPF(raw string) bool {
	return isCanonicalCPF(normalizeCPF(raw))
}

func (c CPF) String() string {
	return c.value
}

// normalizeCPF strips formatting punctuation ("123.456.789-09" and
// "12345678909" normalize to the same value).
func normalizeCPF(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isCanonicalCPF(s string) bool {
	return len(s) == 11
}
