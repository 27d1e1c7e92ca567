// Package textstats counts paragraphs, words and characters in text and
// decides whether a file is text that can be analyzed at all.
package textstats

import (
	"regexp"
	"strings"
	"unicode/utf16"

	"docstore/internal/contenttype"
)

var (
	wordPattern = regexp.MustCompile(`[\p{L}\p{Mn}\p{Nd}\p{Pc}]+`)
	// A paragraph break is a newline, optional whitespace, and another newline.
	paragraphBreak = regexp.MustCompile(`\n[\t\n\v\f\r \x{85}\p{Z}]*\n`)

	lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Counts holds the result of Analyze.
type Counts struct {
	Paragraphs int
	Words      int
	Characters int
}

// Analyze counts paragraphs, words and characters in text.
//
// Characters are UTF-16 code units of the text as given, whitespace
// included. Words are maximal runs of letters, digits, connector
// punctuation and non-spacing marks. Paragraphs are the number of blank-line
// separators plus one, after CRLF and CR are normalized to LF. Empty text
// yields zero for every count.
func Analyze(text string) Counts {
	if text == "" {
		return Counts{}
	}

	chars := 0
	for _, r := range text {
		chars += utf16.RuneLen(r)
	}

	normalized := lineEndings.Replace(text)

	return Counts{
		Paragraphs: len(paragraphBreak.FindAllStringIndex(normalized, -1)) + 1,
		Words:      len(wordPattern.FindAllStringIndex(text, -1)),
		Characters: chars,
	}
}

var textExtensions = map[string]struct{}{
	".txt":  {},
	".csv":  {},
	".json": {},
	".xml":  {},
	".md":   {},
	".html": {},
	".htm":  {},
	".css":  {},
	".js":   {},
	".ts":   {},
	".log":  {},
}

// IsAnalyzable reports whether a file with the given content type and name
// is text. The content type is checked first, then the file extension.
func IsAnalyzable(contentType, fileName string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(ct, "text/") || ct == "application/json" || ct == "application/xml" {
		return true
	}
	_, ok := textExtensions[contenttype.Extension(fileName)]
	return ok
}
