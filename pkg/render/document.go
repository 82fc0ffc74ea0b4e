package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/russross/blackfriday"
)

// MaxDocumentSize is the Telegram bot API upload limit.
const MaxDocumentSize = 50 << 20

var ErrTooLarge = errors.New("document exceeds upload limit")

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```\\s*$")

const notebookStyles = `
body { font-family: 'Times New Roman', Times, serif; margin: 0; padding: 0; }
.default-background { background-color: #f0f0f0; padding: 20px; font-family: Arial, sans-serif; }
h1, h2, h3, h4, h5, h6, p { margin: 0 0 0.5em; line-height: 1.5; }
pre { background: #fff; border: 1px solid #add8e6; border-radius: 6px; padding: 8px; overflow-x: auto; }
`

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Ответ</title>
<style>{{.Styles}}</style>
</head>
<body>
<div class="default-background">
{{.Body}}
</div>
</body>
</html>
`))

// Document turns a model answer into a standalone HTML page. Answers that already are
// HTML pages are kept as is, anything else is treated as markdown.
func Document(answer string) ([]byte, error) {
	answer = StripCodeFence(answer)

	var out []byte
	if looksLikeHTML(answer) {
		out = []byte(answer)
	} else {
		var buf bytes.Buffer
		err := documentTemplate.Execute(&buf, struct {
			Styles template.CSS
			Body   template.HTML
		}{
			Styles: template.CSS(notebookStyles),
			Body:   template.HTML(blackfriday.MarkdownCommon([]byte(answer))),
		})
		if err != nil {
			return nil, fmt.Errorf("executing document template: %w", err)
		}
		out = buf.Bytes()
	}

	if len(out) > MaxDocumentSize {
		return nil, ErrTooLarge
	}
	return out, nil
}

// StripCodeFence removes a markdown code fence wrapping the whole answer.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

func looksLikeHTML(s string) bool {
	head := strings.ToLower(s[:min(len(s), 512)])
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
