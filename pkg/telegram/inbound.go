package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
)

// ToInboundItem keeps the largest photo size and the document, if any.
func ToInboundItem(msg *tgbotapi.Message) domain.InboundItem {
	item := domain.InboundItem{
		ChatID:    msg.Chat.ID,
		UserID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		GroupID:   msg.MediaGroupID,
		Caption:   msg.Caption,
		Text:      msg.Text,
	}
	if msg.From != nil {
		item.UserID = msg.From.ID
	}

	switch {
	case len(msg.Photo) > 0:
		photo := msg.Photo[len(msg.Photo)-1]
		item.File = &domain.FileRef{ID: photo.FileID, Name: "photo.jpg", MimeType: "image/jpeg", IsPhoto: true}
	case msg.Document != nil:
		item.File = &domain.FileRef{ID: msg.Document.FileID, Name: msg.Document.FileName, MimeType: msg.Document.MimeType}
	}

	return item
}
