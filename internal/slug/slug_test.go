package slug

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// TestGenerate exercises the slug generator with typical headlines,
// punctuation, transliterated letters, whitespace and edge cases.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal titles ---
		{name: "simple two words", input: "Hello World", want: "hello-world"},
		{name: "title with year", input: "Hello World 2026", want: "hello-world-2026"},
		{name: "single word", input: "GoLang", want: "golang"},
		{
			name:  "mixed case sentence",
			input: "The Quick Brown Fox Jumps Over the Lazy Dog",
			want:  "the-quick-brown-fox-jumps-over-the-lazy-dog",
		},

		// --- Special characters ---
		{name: "punctuation marks", input: "Hello, World! How's it going?", want: "hello-world-hows-it-going"},
		{name: "ampersand and at sign", input: "Rock & Roll @ the Arena", want: "rock-roll-the-arena"},
		{name: "parentheses and brackets", input: "Version (2.0) [Beta]", want: "version-20-beta"},
		{name: "slashes and pipes", input: "Frontend/Backend | Full Stack", want: "frontendbackend-full-stack"},
		{name: "plus and equals", input: "1 + 1 = 2", want: "1-1-2"},

		// --- Transliteration table ---
		{name: "turkish apostrophe", input: "Türkiye'de Güz 2026", want: "turkiyede-guz-2026"},
		{name: "turkish dotted capital I", input: "İstanbul'da Şiddetli Yağış", want: "istanbulda-siddetli-yagis"},
		{name: "turkish dotless i", input: "Işık Çiçek Ünlü Öğretmen", want: "isik-cicek-unlu-ogretmen"},
		{name: "german sharp s", input: "Straße über Äcker", want: "strasse-uber-acker"},
		{name: "nordic ligatures", input: "Ærø Smørrebrød", want: "aero-smorrebrod"},
		{name: "polish l", input: "Łódź", want: "lodz"},

		// --- Diacritics outside the table ---
		{name: "french accents", input: "Café Résumé Noël", want: "cafe-resume-noel"},
		{name: "spanish tilde", input: "Año Nuevo en España", want: "ano-nuevo-en-espana"},

		// --- Scripts with no mapping ---
		{name: "cjk stripped", input: "日本語 News", want: "news"},
		{name: "only cjk", input: "日本語", want: ""},
		{name: "emoji stripped", input: "Breaking 🚨 News", want: "breaking-news"},

		// --- Whitespace and separators ---
		{name: "leading and trailing spaces", input: "  hello world  ", want: "hello-world"},
		{name: "multiple spaces collapsed", input: "hello    world", want: "hello-world"},
		{name: "tab collapsed", input: "hello\tworld", want: "hello-world"},
		{name: "newline collapsed", input: "hello\nworld", want: "hello-world"},
		{name: "no-break space separates", input: "a\u00a0b", want: "a-b"},
		{name: "em space and ideographic space", input: "Son\u2003Dakika\u3000Haber", want: "son-dakika-haber"},
		{name: "only no-break spaces", input: "\u00a0\u00a0", want: ""},
		{name: "underscores collapsed", input: "snake_case__title", want: "snake-case-title"},
		{name: "hyphens and spaces mixed", input: "  --hello -- world--  ", want: "hello-world"},
		{name: "single hyphen preserved", input: "well-known fact", want: "well-known-fact"},

		// --- Edge cases ---
		{name: "empty string", input: "", want: ""},
		{name: "only spaces", input: "     ", want: ""},
		{name: "only hyphens", input: "-----", want: ""},
		{name: "only special characters", input: "!@#$%^&*()", want: ""},
		{name: "single character", input: "A", want: "a"},
		{name: "date-like string", input: "2026-02-25", want: "2026-02-25"},
		{name: "version number", input: "Version 2.0.1", want: "version-201"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestGenerate_Idempotent verifies Generate(Generate(x)) == Generate(x).
func TestGenerate_Idempotent(t *testing.T) {
	inputs := []string{
		"hello-world",
		"Türkiye'de Güz 2026",
		"  --Ærø__Smørrebrød--  ",
		"Café\tRésumé\nNoël",
		"日本語 News",
		"!!!",
		"",
		"a_b-c d",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := Generate(in)
			twice := Generate(once)
			if once != twice {
				t.Errorf("Generate(Generate(%q)) = %q, want %q", in, twice, once)
			}
			if again := Generate(in); again != once {
				t.Errorf("Generate(%q) not deterministic: %q vs %q", in, once, again)
			}
		})
	}
}

// TestGenerate_Charset verifies every output only contains [a-z0-9-] and
// never starts or ends with a hyphen.
func TestGenerate_Charset(t *testing.T) {
	inputs := []string{
		"HELLO WORLD", "Öğrenci Şöleni", "x -- y", "__lead", "trail__", "Ça va?",
	}
	for _, in := range inputs {
		got := Generate(in)
		for _, r := range got {
			if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
				t.Errorf("Generate(%q) = %q contains %q", in, got, r)
			}
		}
		if strings.HasPrefix(got, "-") || strings.HasSuffix(got, "-") || strings.Contains(got, "--") {
			t.Errorf("Generate(%q) = %q has stray hyphens", in, got)
		}
	}
}

func TestDerive(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 123456789, time.UTC)

	if got := Derive("Son Dakika", "tr", now); got != "son-dakika" {
		t.Errorf("Derive() = %q, want %q", got, "son-dakika")
	}

	got := Derive("日本語", "tr", now)
	want := fmt.Sprintf("tr-%d", now.UnixNano())
	if got != want {
		t.Errorf("Derive(unmappable) = %q, want %q", got, want)
	}

	if got := Derive("", "en", now); !strings.HasPrefix(got, "en-") {
		t.Errorf("Derive(empty) = %q, want en- prefix", got)
	}
}

func TestFallback_Unique(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := Fallback("en", base)
	b := Fallback("en", base.Add(time.Nanosecond))
	if a == b {
		t.Errorf("Fallback should differ across timestamps, both %q", a)
	}
	if !IsValid(a) {
		t.Errorf("Fallback() = %q is not a valid slug", a)
	}
	if got := Fallback("", base); !strings.HasPrefix(got, "item-") {
		t.Errorf("Fallback(empty locale) = %q, want item- prefix", got)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"hello-world", true},
		{"a", true},
		{"2026-02-25", true},
		{"", false},
		{"Hello", false},
		{"-lead", false},
		{"trail-", false},
		{"double--hyphen", false},
		{"with space", false},
		{"ümlaut", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := IsValid(tt.in); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
