package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
)

func TestToInboundItem(t *testing.T) {
	tests := []struct {
		name string
		msg  *tgbotapi.Message
		want domain.InboundItem
	}{
		{
			name: "album photo keeps largest size",
			msg: &tgbotapi.Message{
				MessageID:    3,
				Chat:         &tgbotapi.Chat{ID: 10},
				From:         &tgbotapi.User{ID: 1},
				MediaGroupID: "G1",
				Caption:      "solve this",
				Photo:        []tgbotapi.PhotoSize{{FileID: "s", Width: 90}, {FileID: "m", Width: 320}, {FileID: "l", Width: 1280}},
			},
			want: domain.InboundItem{
				UserID: 1, ChatID: 10, MessageID: 3, GroupID: "G1", Caption: "solve this",
				File: &domain.FileRef{ID: "l", Name: "photo.jpg", MimeType: "image/jpeg", IsPhoto: true},
			},
		},
		{
			name: "document",
			msg: &tgbotapi.Message{
				MessageID: 4,
				Chat:      &tgbotapi.Chat{ID: 10},
				From:      &tgbotapi.User{ID: 1},
				Document:  &tgbotapi.Document{FileID: "d", FileName: "task.py", MimeType: "text/x-python"},
			},
			want: domain.InboundItem{
				UserID: 1, ChatID: 10, MessageID: 4,
				File: &domain.FileRef{ID: "d", Name: "task.py", MimeType: "text/x-python"},
			},
		},
		{
			name: "no sender falls back to chat",
			msg:  &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: 10}, Text: "hi"},
			want: domain.InboundItem{UserID: 10, ChatID: 10, MessageID: 5, Text: "hi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToInboundItem(tt.msg))
		})
	}
}

func TestInlineKeyboardChunksRows(t *testing.T) {
	kb := inlineKeyboard(&domain.Keyboard{
		ButtonsPerRow: 2,
		Buttons: []domain.Button{
			{Label: "a", Data: "a"},
			{Label: "b", Data: "b"},
			{Label: "site", URL: "https://example.com"},
		},
	})

	require.Len(t, kb.InlineKeyboard, 2)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	require.Len(t, kb.InlineKeyboard[1], 1)
	require.NotNil(t, kb.InlineKeyboard[1][0].URL)
	assert.Equal(t, "https://example.com", *kb.InlineKeyboard[1][0].URL)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "a", *kb.InlineKeyboard[0][0].CallbackData)
}

func TestInlineKeyboardZeroPerRow(t *testing.T) {
	kb := inlineKeyboard(&domain.Keyboard{Buttons: []domain.Button{{Label: "a", Data: "a"}, {Label: "b", Data: "b"}}})
	assert.Len(t, kb.InlineKeyboard, 2)
}
