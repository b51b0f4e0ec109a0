// Package search implements the accent- and case-insensitive matching used by
// contact and product lookups.
//
// Records store a pre-normalized search key (see Key) so that the SQL backend
// can filter with a plain LIKE and the memory backend applies the same rule.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds s for comparison: diacritics are stripped, letters are
// lowercased and whitespace runs collapse to a single space.
//
//	Normalize("  José   PÉREZ ") == "jose perez"
func Normalize(s string) string {
	// Transformers keep internal state, so build a chain per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = cases.Lower(language.Und).String(out)
	return strings.Join(strings.Fields(out), " ")
}

// Key builds the stored search key for a record from its searchable fields.
func Key(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := Normalize(p); n != "" {
			nonEmpty = append(nonEmpty, n)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// Contains reports whether needle occurs in haystack once both are normalized.
// An empty needle matches everything.
func Contains(haystack, needle string) bool {
	n := Normalize(needle)
	if n == "" {
		return true
	}
	return strings.Contains(Normalize(haystack), n)
}

// EscapeLike escapes the LIKE wildcards in an already normalized query.
// The escape character is a backslash, which PostgreSQL uses by default.
func EscapeLike(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(q)
}
