// Package locale resolves locale codes to human-readable language names.
package locale

import (
	"strings"
)

// names is the fixed code → English name table. It is never mutated after
// package initialisation and is only reachable through the functions below.
var names = map[string]string{
	"en": "English",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"ru": "Russian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"ar": "Arabic",
	"hi": "Hindi",
}

// Language pairs a locale code with its display name.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Name returns the display name for a locale code.
// Codes missing from the table resolve to the upper-cased code.
func Name(code string) string {
	if name, ok := names[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}

// Known reports whether code has an entry in the name table.
func Known(code string) bool {
	_, ok := names[code]
	return ok
}

// Languages maps locale codes to Language values, preserving order.
func Languages(codes []string) []Language {
	langs := make([]Language, 0, len(codes))
	for _, code := range codes {
		langs = append(langs, Language{Code: code, Name: Name(code)})
	}
	return langs
}
