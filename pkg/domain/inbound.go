package domain

// InboundItem is a transport-agnostic view of one incoming message.
type InboundItem struct {
	UserID    int64
	ChatID    int64
	MessageID int
	GroupID   string
	Caption   string
	Text      string
	File      *FileRef
}

type FileRef struct {
	ID       string
	Name     string
	MimeType string
	IsPhoto  bool
}

func (i InboundItem) Prompt() string {
	if i.Caption != "" {
		return i.Caption
	}
	return i.Text
}
