// Package sanitize cleans text extracted from article HTML: stripping
// invisible and control characters, decoding a fixed set of HTML entities,
// normalizing whitespace, and removing reporter byline signatures.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe   = regexp.MustCompile(`[ \t]+`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
	tagRe          = regexp.MustCompile(`<[^>]+>`)
	bylineRe       = regexp.MustCompile(`(?m)(^.*\x{AE30}\x{C790}\s*=.*$|.*\x{AE30}\x{C790}$|\S+@\S+\.\S+)`)

	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&#xa0;", " ",
		"&#160;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#39;", "'",
		"&#x27;", "'",
		"&apos;", "'",
	)
)

// Zero-width and invisible-formatting code points stripped by RemoveZeroWidth.
const (
	zeroWidthLow  rune = 0x200B // zero-width space
	zeroWidthHigh rune = 0x200F // right-to-left mark
	lineSepLow    rune = 0x2028 // line separator
	lineSepHigh   rune = 0x202F // narrow no-break space (formatting range end)
	byteOrderMark rune = 0xFEFF
)

// Text applies the full cleaning pipeline: strip zero-width and control
// characters, decode entities, normalize whitespace, trim each line, and
// collapse runs of blank lines. The result is trimmed of leading/trailing
// whitespace.
func Text(text string) string {
	result := RemoveZeroWidth(text)
	result = RemoveControlChars(result)
	result = DecodeHTMLEntities(result)
	result = NormalizeWhitespace(result)
	result = TrimLines(result)
	result = CollapseNewlines(result)
	return strings.TrimSpace(result)
}

// RemoveZeroWidth strips zero-width spaces, joiners, direction marks, line
// and paragraph separators, and the UTF-8 byte order mark.
func RemoveZeroWidth(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= zeroWidthLow && r <= zeroWidthHigh:
			return -1
		case r >= lineSepLow && r <= lineSepHigh:
			return -1
		case r == byteOrderMark:
			return -1
		default:
			return r
		}
	}, text)
}

// RemoveControlChars strips control characters other than newline and tab.
func RemoveControlChars(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, text)
}

// DecodeHTMLEntities decodes the small fixed set of entities commonly found
// in crawled article bodies. It is not a general HTML entity decoder.
func DecodeHTMLEntities(text string) string {
	return entityReplacer.Replace(text)
}

// NormalizeWhitespace collapses runs of spaces and tabs to a single space,
// leaving newlines untouched.
func NormalizeWhitespace(text string) string {
	return whitespaceRe.ReplaceAllString(text, " ")
}

// TrimLines trims leading and trailing whitespace from every line while
// preserving line structure.
func TrimLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

// CollapseNewlines replaces three or more consecutive newlines with two.
func CollapseNewlines(text string) string {
	return multiNewlineRe.ReplaceAllString(text, "\n\n")
}

// StripHTMLTags removes all HTML tags, leaving only the text between them.
func StripHTMLTags(html string) string {
	return tagRe.ReplaceAllString(html, "")
}

// HasContent reports whether text contains anything other than whitespace.
func HasContent(text string) bool {
	return strings.TrimSpace(text) != ""
}

// Truncate shortens text to at most maxLen runes, appending "..." when
// truncation occurs. Counting is rune-based so Korean text is never split
// mid-character.
func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	cut := maxLen - 3
	if cut < 0 {
		cut = 0
	}
	return string(runes[:cut]) + "..."
}

// RemoveByline strips reporter signature lines: "<name> 기자" (Korean for
// "reporter") at line end, the same word followed by "= <name>" at line
// start, and bare email addresses.
func RemoveByline(text string) string {
	return strings.TrimSpace(bylineRe.ReplaceAllString(text, ""))
}
