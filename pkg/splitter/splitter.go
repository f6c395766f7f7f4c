// Package splitter turns free-form text into sentence-sized units for synthesis.
package splitter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Fragments at or below this length get glued to the previous sentence.
// Short fragments ("OK.", numeric bullets) cause audible gaps and waste
// a provider round-trip each.
const minFragmentLen = 10

var (
	fencedBlockRe = regexp.MustCompile("(?s)```.*?```")
	headingRe     = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`)
)

// Split breaks text into ordered sentences. Markdown markers are stripped
// first, then the text is cut at sentence-terminal punctuation (. ! ? ;)
// followed by whitespace, or at newlines. Punctuation stays attached to the
// left-hand fragment.
func Split(text string) []string {
	scrubbed := scrub(text)
	if strings.TrimSpace(scrubbed) == "" {
		return nil
	}

	var sentences []string
	for _, fragment := range cut(scrubbed) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}

		if utf8.RuneCountInString(fragment) <= minFragmentLen && len(sentences) > 0 {
			sentences[len(sentences)-1] += " " + fragment
			continue
		}

		sentences = append(sentences, fragment)
	}

	if len(sentences) == 0 {
		return []string{strings.TrimSpace(scrubbed)}
	}

	return sentences
}

func scrub(text string) string {
	text = fencedBlockRe.ReplaceAllString(text, "\n")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "*", "")
	text = headingRe.ReplaceAllString(text, "")

	return text
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', ';':
		return true
	default:
		return false
	}
}

// cut produces raw fragments: terminal punctuation followed by whitespace
// ends a fragment, as does any run of newlines.
func cut(text string) []string {
	var fragments []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			fragments = append(fragments, current.String())
			current.Reset()
			continue
		}

		current.WriteRune(r)

		if isTerminal(r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			fragments = append(fragments, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		fragments = append(fragments, current.String())
	}

	return fragments
}
