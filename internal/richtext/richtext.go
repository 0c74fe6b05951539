// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package richtext turns stored translation bodies into safe HTML.
// Markdown is converted with goldmark; every body, markdown or HTML, is
// passed through a bluemonday policy before it reaches a reader.
package richtext

import (
	"bytes"
	"fmt"
	"regexp"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"newsdesk/internal/models"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
			// Classes instead of inline styles so the sanitizer can keep them.
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

var classPattern = regexp.MustCompile(`^[a-zA-Z0-9\s_-]+$`)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(classPattern).OnElements("pre", "code", "span", "div")
	p.AllowAttrs("id").Matching(bluemonday.SpaceSeparatedTokens).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}

// MarkdownToHTML converts Markdown source into unsanitized HTML.
func MarkdownToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// Sanitize strips scripts, event handlers and other unsafe markup.
func Sanitize(htmlSource string) string {
	return policy.Sanitize(htmlSource)
}

// Render returns display-ready HTML for a body in the given format. An
// empty format is treated as HTML.
func Render(content string, format models.ContentFormat) (string, error) {
	switch format {
	case models.ContentFormatMarkdown:
		out, err := MarkdownToHTML(content)
		if err != nil {
			return "", err
		}
		return Sanitize(out), nil
	case models.ContentFormatHTML, "":
		return Sanitize(content), nil
	default:
		return "", fmt.Errorf("unknown content format %q", format)
	}
}

// PlainText removes all markup, for excerpts and meta descriptions.
func PlainText(htmlSource string) string {
	return bluemonday.StrictPolicy().Sanitize(htmlSource)
}
