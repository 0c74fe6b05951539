package store

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"newsdesk/internal/apperr"
	"newsdesk/internal/locale"
	"newsdesk/internal/models"
)

func strPtr(s string) *string { return &s }

var testLocales = locale.NewSet("tr", "en")

// validInput returns an input that passes validation for testLocales.
func validInput() ArticleInput {
	return ArticleInput{
		Status: models.ArticleStatusDraft,
		Translations: map[string]TranslationInput{
			"tr": {Title: strPtr("Son Dakika"), Content: "<p>metin</p>"},
			"en": {Title: strPtr("Breaking News"), Content: "<p>text</p>"},
		},
	}
}

func TestArticleInputValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(in *ArticleInput)
		wantField string
	}{
		{name: "valid", mutate: func(in *ArticleInput) {}},
		{name: "empty title allowed", mutate: func(in *ArticleInput) {
			in.Translations["en"] = TranslationInput{Title: strPtr("")}
		}},
		{name: "empty status defaults", mutate: func(in *ArticleInput) { in.Status = "" }},
		{name: "missing locale", mutate: func(in *ArticleInput) {
			delete(in.Translations, "en")
		}, wantField: "translations.en.title"},
		{name: "missing title field", mutate: func(in *ArticleInput) {
			in.Translations["tr"] = TranslationInput{Content: "x"}
		}, wantField: "translations.tr.title"},
		{name: "unsupported locale", mutate: func(in *ArticleInput) {
			in.Translations["de"] = TranslationInput{Title: strPtr("Eilmeldung")}
		}, wantField: "translations"},
		{name: "unknown status", mutate: func(in *ArticleInput) { in.Status = "archived" }, wantField: "status"},
		{name: "invalid explicit slug", mutate: func(in *ArticleInput) {
			in.Translations["en"] = TranslationInput{Title: strPtr("x"), Slug: "Not A Slug"}
		}, wantField: "translations.en.slug"},
		{name: "valid explicit slug", mutate: func(in *ArticleInput) {
			in.Translations["en"] = TranslationInput{Title: strPtr("x"), Slug: "breaking-news"}
		}},
		{name: "title too long", mutate: func(in *ArticleInput) {
			in.Translations["en"] = TranslationInput{Title: strPtr(strings.Repeat("a", maxTitleLen+1))}
		}, wantField: "translations.en.title"},
		{name: "unknown content format", mutate: func(in *ArticleInput) {
			in.Translations["en"] = TranslationInput{Title: strPtr("x"), ContentFormat: "rtf"}
		}, wantField: "translations.en.content_format"},
		{name: "two primary images", mutate: func(in *ArticleInput) {
			in.Images = []ImageInput{{URL: "a.jpg", IsPrimary: true}, {URL: "b.jpg", IsPrimary: true}}
		}, wantField: "images"},
		{name: "image without url", mutate: func(in *ArticleInput) {
			in.Images = []ImageInput{{URL: " "}}
		}, wantField: "images"},
		{name: "one primary image", mutate: func(in *ArticleInput) {
			in.Images = []ImageInput{{URL: "a.jpg"}, {URL: "b.jpg", IsPrimary: true}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := in.Validate(testLocales)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, apperr.ErrValidationFailed) {
				t.Fatalf("Validate() = %v, want ValidationFailed", err)
			}
			var ae *apperr.Error
			if errors.As(err, &ae) && ae.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ae.Field, tt.wantField)
			}
		})
	}
}

func TestArticleInputHelpers(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	in := ArticleInput{
		TagIDs: []uuid.UUID{a, b, a},
		Translations: map[string]TranslationInput{
			"tr": {}, "en": {},
		},
		Images: []ImageInput{{URL: " a.jpg "}, {URL: "b.jpg", IsPrimary: true}},
	}

	if got := in.tagIDs(); len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("tagIDs() = %v, want [a b]", got)
	}
	if got := in.locales(); len(got) != 2 || got[0] != "en" || got[1] != "tr" {
		t.Errorf("locales() = %v, want [en tr]", got)
	}
	if in.status() != models.ArticleStatusDraft {
		t.Errorf("status() = %q, want draft", in.status())
	}

	images := in.images(a)
	if images[0].URL != "a.jpg" || images[1].Order != 1 || !images[1].IsPrimary || images[0].ArticleID != a {
		t.Errorf("images() = %+v", images)
	}
}

func TestResolveSlug(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 42, time.UTC)
	fallback := fmt.Sprintf("en-%d", now.UnixNano())

	tests := []struct {
		name     string
		in       TranslationInput
		existing string
		want     string
	}{
		{name: "explicit slug wins", in: TranslationInput{Title: strPtr("Ignored"), Slug: "chosen"}, want: "chosen"},
		{name: "derived from title", in: TranslationInput{Title: strPtr("Çığ Düştü")}, want: "cig-dustu"},
		{name: "keeps stored slug for blank title", in: TranslationInput{Title: strPtr("")}, existing: "old-slug", want: "old-slug"},
		{name: "fallback for blank title", in: TranslationInput{Title: strPtr("  ")}, want: fallback},
		{name: "fallback for unmappable title", in: TranslationInput{Title: strPtr("!!!")}, want: fallback},
		{name: "title change re-derives", in: TranslationInput{Title: strPtr("New Title")}, existing: "old-slug", want: "new-title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveSlug(tt.in, "en", tt.existing, now); got != tt.want {
				t.Errorf("resolveSlug() = %q, want %q", got, tt.want)
			}
		})
	}
}
