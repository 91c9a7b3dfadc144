// Package sanitize strips reasoning and markup artifacts from raw model
// output: <think> spans, lead-in phrases, wrapping quotes and code fences.
// The pipeline is pure and idempotent: running it on already-clean text
// returns the text unchanged.
package sanitize

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/SampleBias/10x-prompt/internal/models"
)

var (
	thinkSpanRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	// an unterminated <think> swallows everything through end of string
	thinkTailRe = regexp.MustCompile(`(?s)<think>.*$`)
	newlineRe   = regexp.MustCompile(`\n{3,}`)
)

// knownPrefixes are lead-in phrases models produce despite being told not to.
// Matched case-insensitively against the start of the text.
var knownPrefixes = []string{
	"here is the enhanced prompt:",
	"here's the enhanced prompt:",
	"here is your enhanced prompt:",
	"here is the improved prompt:",
	"here's the improved prompt:",
	"here is the enhanced version:",
	"here's the enhanced version:",
	"sure, here is the enhanced prompt:",
	"enhanced prompt:",
	"improved prompt:",
	"enhanced version:",
}

// leadInKeywords gate the generic "something ending in a colon" strip so
// legitimate colon-containing content is left alone.
var leadInKeywords = []string{"enhance", "improve", "prompt", "version", "here"}

// Clean runs the full sanitization pipeline on raw model output
func Clean(raw string, category models.PromptType) string {
	text := StripThinkBlocks(raw)
	text = CollapseWhitespace(text)

	// Unwrapping steps run to a fixpoint: stripping one layer can expose
	// another (a fence hiding quotes hiding a lead-in), and idempotency of
	// the whole pipeline requires peeling them all in one call.
	for {
		prev := text
		text = StripLeadIn(text)
		text = StripWrappingQuotes(text)
		text = StripCodeFence(text)
		text = CollapseWhitespace(text)
		if text == prev {
			break
		}
	}

	if category == models.PromptTypeImage {
		text = EnsureJSONObject(text)
	}

	return text
}

// StripThinkBlocks removes <think>...</think> spans, then any unterminated
// trailing <think> through end of string, then stray orphan tags.
func StripThinkBlocks(text string) string {
	text = thinkSpanRe.ReplaceAllString(text, "")
	text = thinkTailRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "<think>", "")
	text = strings.ReplaceAll(text, "</think>", "")
	return text
}

// CollapseWhitespace reduces runs of 3+ newlines to exactly 2 and trims the ends
func CollapseWhitespace(text string) string {
	text = newlineRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// StripLeadIn removes a recognized lead-in phrase from the start of the text.
// Fixed known prefixes win; otherwise a generic "lead-in ending in a colon"
// is stripped only when it contains one of the gate keywords.
func StripLeadIn(text string) string {
	lower := strings.ToLower(text)
	for _, prefix := range knownPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(text[len(prefix):])
		}
	}

	// generic lead-in: everything before an early colon on the first line
	idx := strings.IndexByte(text, ':')
	if idx <= 0 || idx > 80 {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 && nl < idx {
		return text
	}

	leadIn := strings.ToLower(text[:idx])
	for _, kw := range leadInKeywords {
		if strings.Contains(leadIn, kw) {
			return strings.TrimSpace(text[idx+1:])
		}
	}
	return text
}

// StripWrappingQuotes removes one layer of matching quote characters when
// both ends agree. Triple quotes are checked before single characters.
func StripWrappingQuotes(text string) string {
	for _, q := range []string{`"""`, `'''`} {
		if len(text) >= 2*len(q) && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			return strings.TrimSpace(text[len(q) : len(text)-len(q)])
		}
	}
	for _, q := range []string{`"`, `'`} {
		if len(text) >= 2 && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			return strings.TrimSpace(text[1 : len(text)-1])
		}
	}
	return text
}

// StripCodeFence unwraps a ``` fence (with optional language tag) when the
// text both starts and ends with one, keeping only the inner content.
func StripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}

	inner := strings.TrimSuffix(text, "```")
	inner = strings.TrimPrefix(inner, "```")
	// drop a language tag on the opening fence line
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(inner[:nl])
		if firstLine != "" && !strings.ContainsAny(firstLine, " \t") && len(firstLine) <= 20 {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}

// EnsureJSONObject validates text as a JSON object for the image category.
// Invalid or non-object output is wrapped rather than discarded, with a
// "note" field marking that the wrap happened.
func EnsureJSONObject(text string) string {
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		if _, ok := parsed.(map[string]any); ok {
			return text
		}
	}

	wrapped, err := json.Marshal(map[string]string{
		"description": text,
		"note":        "model returned non-structured output; wrapped automatically",
	})
	if err != nil {
		// cannot happen for a map of strings, but never drop the text
		return text
	}
	return string(wrapped)
}
