package converter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
)

const (
	mimeJPEG = "image/jpeg"
	mimePDF  = "application/pdf"
)

var ErrNotText = errors.New("file is not valid utf-8 text")

// passthroughImages are accepted upstream as is.
var passthroughImages = []string{mimeJPEG, "image/webp", "image/heic", "image/heif"}

var textExtensions = []string{".py", ".txt", ".html", ".md"}

// FileConverter turns downloaded files into request parts, sniffing the real
// content type instead of trusting the one reported by the client.
type FileConverter struct{}

// Convert returns the part for a file. Text files are inlined after caption.
func (FileConverter) Convert(name string, data []byte, caption string) (domain.Part, error) {
	mtype := mimetype.Detect(data)

	switch {
	case strings.HasPrefix(mtype.String(), "image/"):
		return imagePart(mtype, data)
	case mtype.Is(mimePDF):
		return domain.BlobPart(mimePDF, data), nil
	case isText(mtype) || lo.Contains(textExtensions, strings.ToLower(filepath.Ext(name))):
		if !utf8.Valid(data) {
			return domain.Part{}, ErrNotText
		}
		return domain.TextPart(fmt.Sprintf("%s\n\nСодержимое файла:\n\n%s", caption, data)), nil
	}

	return domain.Part{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, mtype.String())
}

// Image returns a JPEG-normalized part for photo payloads.
func (FileConverter) Image(data []byte) (domain.Part, error) {
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return domain.Part{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, mtype.String())
	}
	return imagePart(mtype, data)
}

func imagePart(mtype *mimetype.MIME, data []byte) (domain.Part, error) {
	for _, m := range passthroughImages {
		if mtype.Is(m) {
			return domain.BlobPart(m, data), nil
		}
	}

	converted, err := ToJPEG(data)
	if err != nil {
		return domain.Part{}, fmt.Errorf("%w: %v", domain.ErrUnsupportedFile, err)
	}
	return domain.BlobPart(mimeJPEG, converted), nil
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
