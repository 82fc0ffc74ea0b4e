package gemini

import (
	"encoding/base64"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
)

const (
	typeArray  jsonschema.DataType = "ARRAY"
	typeObject jsonschema.DataType = "OBJECT"
	typeString jsonschema.DataType = "STRING"

	jsonMimeType = "application/json"
)

// slidesSchema describes an array of {title, points[]} objects in the upstream schema dialect.
var slidesSchema = &jsonschema.Definition{
	Type: typeArray,
	Items: &jsonschema.Definition{
		Type: typeObject,
		Properties: map[string]jsonschema.Definition{
			"title": {Type: typeString},
			"points": {
				Type:  typeArray,
				Items: &jsonschema.Definition{Type: typeString},
			},
		},
		Required: []string{"title", "points"},
	},
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64                `json:"temperature"`
	ResponseMimeType string                 `json:"responseMimeType,omitempty"`
	ResponseSchema   *jsonschema.Definition `json:"responseSchema,omitempty"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content struct {
		Parts []struct {
			Text *string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

func newGenerateContentRequest(req domain.GenerationRequest) *generateContentRequest {
	contents := make([]content, 0, len(req.Contents))
	for _, turn := range req.Contents {
		c := content{Role: turn.Role, Parts: make([]part, 0, len(turn.Parts))}
		for _, p := range turn.Parts {
			if p.InlineData != nil {
				c.Parts = append(c.Parts, part{InlineData: &inlineData{
					MimeType: p.InlineData.MimeType,
					Data:     base64.StdEncoding.EncodeToString(p.InlineData.Data),
				}})
				continue
			}
			c.Parts = append(c.Parts, part{Text: p.Text})
		}
		contents = append(contents, c)
	}

	cfg := generationConfig{Temperature: req.Temperature}
	if req.Structured {
		cfg.ResponseMimeType = jsonMimeType
		cfg.ResponseSchema = slidesSchema
	}

	return &generateContentRequest{Contents: contents, GenerationConfig: cfg}
}

// firstText returns candidates[0].content.parts[0].text if the response has that shape.
func (r *generateContentResponse) firstText() (string, bool) {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	text := r.Candidates[0].Content.Parts[0].Text
	if text == nil {
		return "", false
	}
	return *text, true
}
