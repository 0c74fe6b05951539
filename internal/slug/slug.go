// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from display titles.
// Articles, categories and tags all derive slugs through this package so
// that the same title maps to the same slug everywhere.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// transliterations maps letters that do not decompose into an ASCII base
// plus combining marks (or that need a multi-letter form) to ASCII.
var transliterations = strings.NewReplacer(
	// Turkish
	"ç", "c", "Ç", "c",
	"ğ", "g", "Ğ", "g",
	"ı", "i", "İ", "i",
	"ö", "o", "Ö", "o",
	"ş", "s", "Ş", "s",
	"ü", "u", "Ü", "u",
	// German
	"ä", "a", "Ä", "a",
	"ß", "ss", "ẞ", "ss",
	// Nordic and other Latin
	"æ", "ae", "Æ", "ae",
	"ø", "o", "Ø", "o",
	"å", "a", "Å", "a",
	"œ", "oe", "Œ", "oe",
	"ł", "l", "Ł", "l",
	"đ", "d", "Đ", "d",
	"ð", "d", "Ð", "d",
	"þ", "th", "Þ", "th",
)

var (
	// stripMarks removes combining marks left after canonical decomposition.
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	// disallowed matches anything that isn't a lowercase letter, digit,
	// whitespace, underscore or hyphen.
	disallowed = regexp.MustCompile(`[^a-z0-9\s_-]`)
	// separators collapses runs of whitespace, underscores and hyphens.
	separators = regexp.MustCompile(`[\s_-]+`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Türkiye'de Güz 2026" → "turkiyede-guz-2026"
func Generate(s string) string {
	result := transliterations.Replace(s)
	if stripped, _, err := transform.String(stripMarks, result); err == nil {
		result = stripped
	}
	// Regexp \s is ASCII only; fold other spaces so they still separate words.
	result = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return unicode.ToLower(r)
	}, result)
	result = disallowed.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Fallback returns a slug for titles that produce no slug characters at
// all: the locale followed by a nanosecond timestamp.
func Fallback(locale string, now time.Time) string {
	prefix := Generate(locale)
	if prefix == "" {
		prefix = "item"
	}
	return fmt.Sprintf("%s-%d", prefix, now.UnixNano())
}

// Derive returns Generate(text), or Fallback when that is empty.
func Derive(text, locale string, now time.Time) string {
	if s := Generate(text); s != "" {
		return s
	}
	return Fallback(locale, now)
}

// IsValid reports whether s is a non-empty slug that Generate would leave
// unchanged.
func IsValid(s string) bool {
	return s != "" && Generate(s) == s
}
