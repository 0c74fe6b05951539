// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "github.com/google/uuid"

// Image is one entry of an article's image collection. Order defines the
// display sequence; at most one image per article has IsPrimary set.
type Image struct {
	ID        uuid.UUID `json:"id"`
	ArticleID uuid.UUID `json:"article_id"`
	URL       string    `json:"url"`
	Alt       *string   `json:"alt,omitempty"`
	Caption   *string   `json:"caption,omitempty"`
	Order     int       `json:"order"`
	IsPrimary bool      `json:"is_primary"`
}
