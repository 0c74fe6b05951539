package gallery

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"newsdesk/internal/apperr"
	"newsdesk/internal/models"
)

func collection(urls ...string) []models.Image {
	var out []models.Image
	for _, u := range urls {
		out = Append(out, models.Image{URL: u})
	}
	return out
}

func numbered(n int) []models.Image {
	out := make([]models.Image, n)
	for i := range out {
		out[i] = models.Image{URL: fmt.Sprintf("/media/%d.jpg", i), Order: i}
	}
	return out
}

func urls(images []models.Image) []string {
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img.URL
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAppend(t *testing.T) {
	images := collection("a.jpg", "b.jpg", "c.jpg")

	if !images[0].IsPrimary {
		t.Error("first appended image should default to primary")
	}
	for i, img := range images[1:] {
		if img.IsPrimary {
			t.Errorf("image %d should not be primary", i+1)
		}
	}
	for i, img := range images {
		if img.Order != i {
			t.Errorf("image %d order = %d, want %d", i, img.Order, i)
		}
	}

	// An explicit primary flag on a later append is cleared.
	images = Append(images, models.Image{URL: "d.jpg", IsPrimary: true})
	if PrimaryCount(images) != 1 {
		t.Errorf("PrimaryCount = %d, want 1", PrimaryCount(images))
	}
}

func TestSetPrimary(t *testing.T) {
	images := collection("a.jpg", "b.jpg", "c.jpg")

	got := SetPrimary(images, 2)
	if !got[2].IsPrimary || got[0].IsPrimary || got[1].IsPrimary {
		t.Errorf("SetPrimary(2) flags = %v %v %v", got[0].IsPrimary, got[1].IsPrimary, got[2].IsPrimary)
	}
	if !images[0].IsPrimary {
		t.Error("SetPrimary must not mutate its input")
	}

	unchanged := SetPrimary(images, 7)
	if !unchanged[0].IsPrimary || PrimaryCount(unchanged) != 1 {
		t.Error("out-of-range SetPrimary should be a no-op")
	}
}

func TestMoveUpDown(t *testing.T) {
	images := collection("a.jpg", "b.jpg", "c.jpg")

	tests := []struct {
		name string
		op   func([]models.Image, int) []models.Image
		idx  int
		want []string
	}{
		{name: "move middle up", op: MoveUp, idx: 1, want: []string{"b.jpg", "a.jpg", "c.jpg"}},
		{name: "move top up is no-op", op: MoveUp, idx: 0, want: []string{"a.jpg", "b.jpg", "c.jpg"}},
		{name: "move middle down", op: MoveDown, idx: 1, want: []string{"a.jpg", "c.jpg", "b.jpg"}},
		{name: "move bottom down is no-op", op: MoveDown, idx: 2, want: []string{"a.jpg", "b.jpg", "c.jpg"}},
		{name: "negative index", op: MoveDown, idx: -1, want: []string{"a.jpg", "b.jpg", "c.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.op(images, tt.idx)
			if !equalStrings(urls(got), tt.want) {
				t.Errorf("got %v, want %v", urls(got), tt.want)
			}
			for i, img := range got {
				if img.Order != i {
					t.Errorf("image %q order = %d, want %d", img.URL, img.Order, i)
				}
			}
		})
	}
}

func TestMoveKeepsPrimaryFlag(t *testing.T) {
	images := collection("a.jpg", "b.jpg")
	got := MoveDown(images, 0)
	if got[1].URL != "a.jpg" || !got[1].IsPrimary {
		t.Errorf("primary flag should travel with the image, got %+v", got)
	}
}

func TestPrimary(t *testing.T) {
	if Primary(nil) != nil {
		t.Error("Primary(nil) should be nil")
	}

	// No flag: first by order wins, regardless of slice position.
	images := []models.Image{
		{URL: "late.jpg", Order: 5},
		{URL: "early.jpg", Order: 1},
	}
	if got := Primary(images); got == nil || got.URL != "early.jpg" {
		t.Errorf("Primary() = %+v, want early.jpg", got)
	}

	images[0].IsPrimary = true
	if got := Primary(images); got == nil || got.URL != "late.jpg" {
		t.Errorf("Primary() = %+v, want late.jpg", got)
	}
}

// TestRandomOperationsKeepSinglePrimary applies random sequences of
// operations and checks the primary count never exceeds one.
func TestRandomOperationsKeepSinglePrimary(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		var images []models.Image
		for step := 0; step < 30; step++ {
			idx := rng.Intn(len(images)+2) - 1
			switch rng.Intn(4) {
			case 0:
				images = Append(images, models.Image{URL: "x.jpg", IsPrimary: rng.Intn(2) == 0})
			case 1:
				images = SetPrimary(images, idx)
			case 2:
				images = MoveUp(images, idx)
			case 3:
				images = MoveDown(images, idx)
			}
			if n := PrimaryCount(images); n > 1 {
				t.Fatalf("round %d step %d: %d primary images", round, step, n)
			}
			if err := Validate(images); err != nil {
				t.Fatalf("round %d step %d: Validate: %v", round, step, err)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		images  []models.Image
		wantErr bool
	}{
		{name: "empty", images: nil},
		{name: "none primary", images: []models.Image{{URL: "a"}, {URL: "b"}}},
		{name: "one primary", images: []models.Image{{URL: "a", IsPrimary: true}, {URL: "b"}}},
		{name: "two primary", images: []models.Image{{URL: "a", IsPrimary: true}, {URL: "b", IsPrimary: true}}, wantErr: true},
		{name: "missing url", images: []models.Image{{URL: "  "}}, wantErr: true},
		{name: "url at limit", images: []models.Image{{URL: strings.Repeat("u", MaxURLLen)}}},
		{name: "url too long", images: []models.Image{{URL: strings.Repeat("u", MaxURLLen+1)}}, wantErr: true},
		{name: "at image limit", images: numbered(MaxImages)},
		{name: "too many images", images: numbered(MaxImages + 1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.images)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrValidationFailed) {
					t.Errorf("Validate() = %v, want ValidationFailed", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}
