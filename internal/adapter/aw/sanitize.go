package aw

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	runsOfSpace      = regexp.MustCompile(`[ \t\r\f]{2,}`)
	runsOfNewline    = regexp.MustCompile(`\n{3,}`)
	singleNewline    = regexp.MustCompile(`(\S) *\n *(\S)`)
	trailingNewlines = regexp.MustCompile(`\n+$`)
	blankOnly        = regexp.MustCompile(`^[ \r\n\t]+$`)
)

// stripTags renders an HTML fragment down to its text content. Block-level
// elements become newlines so paragraph structure survives.
func stripTags(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "p", "br", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				b.WriteByte('\n')
			}
		}
	}
}

// cleanupText strips markup and normalizes the copy-pasted whitespace that
// community-edited descriptions accumulate. Single newlines inside a
// paragraph are joined; paragraph breaks are kept.
func cleanupText(raw string) string {
	if raw == "" {
		return raw
	}

	out := stripTags(raw)
	out = runsOfSpace.ReplaceAllString(out, " ")
	out = runsOfNewline.ReplaceAllString(out, "\n\n")
	out = singleNewline.ReplaceAllString(out, "$1 $2")
	out = trailingNewlines.ReplaceAllString(out, "")
	out = strings.ReplaceAll(out, "<", "[")
	out = strings.ReplaceAll(out, ">", "]")
	return strings.TrimSpace(out)
}

// validText runs cleanup and rejects the placeholder values contributors
// leave behind: empty strings, whitespace, and "N/A".
func validText(raw string) string {
	value := cleanupText(raw)
	if value == "" || value == "N/A" || blankOnly.MatchString(value) {
		return ""
	}
	return value
}
