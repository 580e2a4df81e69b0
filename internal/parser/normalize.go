package parser

import (
	"regexp"
	"strings"
)

var (
	// Allowed characters: CJK ideographs, ASCII word characters, whitespace
	// and the punctuation/currency markers the extractors rely on. Everything
	// else becomes a space so runs of OCR noise separate tokens cleanly.
	disallowedRe = regexp.MustCompile(`[^\x{4e00}-\x{9fa5}\w\s\-.,:$¥￥]`)
	spaceRunRe   = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes raw OCR text: characters outside the allow-list
// are replaced by a space, whitespace runs collapse to one space, and the
// result is trimmed. Normalize(Normalize(s)) == Normalize(s) for all s, and
// it never fails; length validation is the caller's job.
func Normalize(text string) string {
	cleaned := disallowedRe.ReplaceAllString(text, " ")
	cleaned = spaceRunRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
