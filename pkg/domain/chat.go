package domain

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one entry of a conversation. Turns are never mutated once appended to a history.
type Turn struct {
	Role  string
	Parts []Part
}

type Part struct {
	Text       string
	InlineData *Blob
}

type Blob struct {
	MimeType string
	Data     []byte
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func BlobPart(mimeType string, data []byte) Part {
	return Part{InlineData: &Blob{MimeType: mimeType, Data: data}}
}

func (p Part) IsBinary() bool {
	return p.InlineData != nil
}

// GenerationRequest is one logical call to the upstream service.
type GenerationRequest struct {
	Contents    []Turn
	Temperature float64
	Structured  bool
}
