// Package forms holds the dialog form state, the pure derivations between
// dependent fields, and the validation schemas. Nothing here does I/O.
package forms

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// FieldErrors maps a field name to its first validation message.
type FieldErrors map[string]string

func (fe FieldErrors) Valid() bool { return len(fe) == 0 }

// Add keeps the first message reported for a field.
func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

func (fe FieldErrors) Get(field string) string { return fe[field] }

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// runeLen counts characters, not bytes, so "Salário" is 7 long.
func runeLen(s string) int { return utf8.RuneCountInString(s) }
