package domain

import "fmt"

type ResponseMode string

const (
	ResponseModeDocument ResponseMode = "document"
	ResponseModeSlides   ResponseMode = "slides"
	ResponseModeText     ResponseMode = "text"

	DefaultResponseMode = ResponseModeDocument
)

var ResponseModes = []ResponseMode{ResponseModeDocument, ResponseModeSlides, ResponseModeText}

func ParseResponseMode(s string) (ResponseMode, error) {
	for _, m := range ResponseModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown response mode %q", s)
}

func (m ResponseMode) Label() string {
	switch m {
	case ResponseModeDocument:
		return "HTML (файл)"
	case ResponseModeSlides:
		return "Презентация (файл)"
	case ResponseModeText:
		return "Текст (сообщение)"
	}
	return string(m)
}

type Slide struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}
