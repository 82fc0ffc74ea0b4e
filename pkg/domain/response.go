package domain

type Response struct {
	ChatID   int64
	Text     string
	File     *File
	Keyboard *Keyboard
	Invoice  *Invoice
	Err      error
}

type File struct {
	Name string
	Data []byte
}

type Keyboard struct {
	Buttons       []Button
	ButtonsPerRow int
}

// Button is either a callback button or, when URL is set, a link button.
type Button struct {
	Label string
	Data  string
	URL   string
}

type Invoice struct {
	Title       string
	Description string
	Payload     string
	Currency    string
	Amount      int
}
