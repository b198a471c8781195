package render

import (
	"regexp"
	"strings"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

// htmlDocRe matches text that opens with a block-level HTML element. Some
// backends return their documentation as HTML rather than markdown.
var htmlDocRe = regexp.MustCompile(`(?is)^\s*(<!doctype html|<html|<body|<(h[1-6]|p|div|section|article|ul|ol|pre|table)[\s>])`)

var (
	converterOnce sync.Once
	converter     *md.Converter
)

func htmlConverter() *md.Converter {
	converterOnce.Do(func() {
		converter = md.NewConverter("", true, nil)
		converter.Use(plugin.GitHubFlavored())
		converter.Remove("script", "style", "iframe", "object")
	})
	return converter
}

// IsHTML reports whether text looks like an HTML document rather than
// markdown.
func IsHTML(text string) bool {
	return htmlDocRe.MatchString(text)
}

// Markdown returns text as markdown, converting it first when it is HTML.
// Text that fails to convert is returned unchanged; Sanitize strips the
// markup later.
func Markdown(text string) string {
	if !IsHTML(text) {
		return text
	}
	out, err := htmlConverter().ConvertString(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}
