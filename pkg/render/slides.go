package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
)

var ErrNoSlides = errors.New("no slides in answer")

var slidesTemplate = template.Must(template.New("slides").Parse(`<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Презентация</title>
<style>
body { margin: 0; background: #f5f5f5; font-family: Arial, sans-serif; }
section { box-sizing: border-box; min-height: 100vh; padding: 6vh 8vw; border-top: 0.6vh solid #3498db; page-break-after: always; }
h1 { color: #2980b9; text-align: center; font-size: 2.4em; }
li { color: #34495e; font-size: 1.3em; margin-bottom: 0.6em; }
</style>
</head>
<body>
{{range .}}<section>
<h1>{{if .Title}}{{.Title}}{{else}}Без заголовка{{end}}</h1>
<ul>
{{range .Points}}<li>{{.}}</li>
{{end}}</ul>
</section>
{{end}}</body>
</html>
`))

// ParseSlides decodes the structured answer requested in slides mode.
func ParseSlides(answer string) ([]domain.Slide, error) {
	var slides []domain.Slide
	if err := json.Unmarshal([]byte(StripCodeFence(answer)), &slides); err != nil {
		return nil, fmt.Errorf("decoding slides: %w", err)
	}
	if len(slides) == 0 {
		return nil, ErrNoSlides
	}
	return slides, nil
}

// Slides renders a deck as a single HTML page, one section per slide.
func Slides(slides []domain.Slide) ([]byte, error) {
	var buf bytes.Buffer
	if err := slidesTemplate.Execute(&buf, slides); err != nil {
		return nil, fmt.Errorf("executing slides template: %w", err)
	}
	if buf.Len() > MaxDocumentSize {
		return nil, ErrTooLarge
	}
	return buf.Bytes(), nil
}
