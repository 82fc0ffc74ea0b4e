package render

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const MaxMessageLength = 4096

var (
	stripPolicy = bluemonday.StrictPolicy()
	blankLines  = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
	headBlock   = regexp.MustCompile(`(?is)<head.*?</head>`)
)

// PlainText drops markup from an answer so it can be sent as a chat message.
func PlainText(answer string) string {
	answer = StripCodeFence(answer)
	answer = headBlock.ReplaceAllString(answer, "")
	for _, tag := range []string{"</p>", "<br>", "<br/>", "</h1>", "</h2>", "</h3>", "</li>", "</div>"} {
		answer = strings.ReplaceAll(answer, tag, tag+"\n")
	}

	text := html.UnescapeString(stripPolicy.Sanitize(answer))
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Split cuts text into chunks of at most maxLen runes, preferring line breaks.
func Split(text string, maxLen int) []string {
	var chunks []string
	for text != "" {
		if utf8.RuneCountInString(text) <= maxLen {
			return append(chunks, text)
		}

		cut := cutIndex(text, maxLen)
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	return chunks
}

// cutIndex returns a byte offset at or before maxLen runes.
func cutIndex(text string, maxLen int) int {
	limit := 0
	for i := 0; i < maxLen; i++ {
		_, size := utf8.DecodeRuneInString(text[limit:])
		limit += size
	}

	if i := strings.LastIndex(text[:limit], "\n"); i > 0 {
		return i
	}
	return limit
}
