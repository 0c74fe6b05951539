package store

import (
	"testing"
	"time"
)

func TestWhereBuilder(t *testing.T) {
	w := &whereBuilder{}
	if w.sql() != "" {
		t.Errorf("empty builder sql = %q", w.sql())
	}

	w.add(`a.deleted_at IS NULL`)
	w.add(`a.status = %s`, "published")
	w.add(`(t.title ILIKE %[1]s OR t.content ILIKE %[1]s)`, "%x%")

	want := ` WHERE a.deleted_at IS NULL AND a.status = $1 AND (t.title ILIKE $2 OR t.content ILIKE $2)`
	if got := w.sql(); got != want {
		t.Errorf("sql() =\n%q\nwant\n%q", got, want)
	}
	if len(w.args) != 2 {
		t.Errorf("args = %v, want 2 entries", w.args)
	}
}

func TestWhereBuilderVisibleClause(t *testing.T) {
	w := &whereBuilder{}
	w.add(visibleClause, time.Now())
	want := ` WHERE a.status = 'published' AND a.deleted_at IS NULL AND (a.published_at IS NULL OR a.published_at <= $1)`
	if got := w.sql(); got != want {
		t.Errorf("sql() = %q, want %q", got, want)
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"deprem", "%deprem%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}
	for _, tt := range tests {
		if got := likePattern(tt.in); got != tt.want {
			t.Errorf("likePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
