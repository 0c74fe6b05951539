// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package gallery manages the ordered image collection of an article:
// display order and the choice of primary image. Every operation returns
// a new slice sorted by Order and leaves its input untouched.
package gallery

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"newsdesk/internal/apperr"
	"newsdesk/internal/models"
)

// Normalize returns a copy sorted by Order with Order renumbered 0..n-1.
// Ties keep their input sequence.
func Normalize(images []models.Image) []models.Image {
	out := make([]models.Image, len(images))
	copy(out, images)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	for i := range out {
		out[i].Order = i
	}
	return out
}

// SetPrimary clears IsPrimary on every image and sets it on images[index].
// An out-of-range index leaves the collection as it was.
func SetPrimary(images []models.Image, index int) []models.Image {
	out := Normalize(images)
	if index < 0 || index >= len(out) {
		return out
	}
	for i := range out {
		out[i].IsPrimary = false
	}
	out[index].IsPrimary = true
	return out
}

// MoveUp swaps the image at index with its predecessor. No-op at the top.
func MoveUp(images []models.Image, index int) []models.Image {
	return swap(Normalize(images), index, index-1)
}

// MoveDown swaps the image at index with its successor. No-op at the bottom.
func MoveDown(images []models.Image, index int) []models.Image {
	return swap(Normalize(images), index, index+1)
}

func swap(out []models.Image, i, j int) []models.Image {
	if i < 0 || j < 0 || i >= len(out) || j >= len(out) {
		return out
	}
	out[i].Order, out[j].Order = out[j].Order, out[i].Order
	out[i], out[j] = out[j], out[i]
	return out
}

// Append adds img at the end of the collection. It becomes primary only
// when the collection was empty; otherwise IsPrimary is cleared.
func Append(images []models.Image, img models.Image) []models.Image {
	out := Normalize(images)
	img.Order = len(out)
	img.IsPrimary = len(out) == 0
	return append(out, img)
}

// Primary returns the image to feature: the one flagged primary, or the
// first by order when none is flagged. Nil for an empty collection.
func Primary(images []models.Image) *models.Image {
	if len(images) == 0 {
		return nil
	}
	sorted := Normalize(images)
	for i := range sorted {
		if sorted[i].IsPrimary {
			return &sorted[i]
		}
	}
	return &sorted[0]
}

// PrimaryCount returns how many images are flagged primary.
func PrimaryCount(images []models.Image) int {
	n := 0
	for _, img := range images {
		if img.IsPrimary {
			n++
		}
	}
	return n
}

// Collection limits enforced by Validate.
const (
	MaxImages = 50
	MaxURLLen = 2_048
)

// Validate checks a collection before it is persisted.
func Validate(images []models.Image) error {
	if len(images) > MaxImages {
		return apperr.Validation("images", fmt.Sprintf("too many images (max %d)", MaxImages))
	}
	for _, img := range images {
		if strings.TrimSpace(img.URL) == "" {
			return apperr.Validation("images", "image url is required")
		}
		if utf8.RuneCountInString(img.URL) > MaxURLLen {
			return apperr.Validation("images", "image URL is too long")
		}
	}
	if PrimaryCount(images) > 1 {
		return apperr.Validation("images", "at most one image may be primary")
	}
	return nil
}
