package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
	"github.com/dskvich/homework-telegram-bot/pkg/logger"
)

const donationURL = "https://www.donationalerts.com/"

type chatService struct {
	historyRepo  HistoryRepository
	settingsRepo SettingsRepository
	responseCh   chan<- domain.Response
}

func NewChatService(
	historyRepo HistoryRepository,
	settingsRepo SettingsRepository,
	responseCh chan<- domain.Response,
) *chatService {
	return &chatService{
		historyRepo:  historyRepo,
		settingsRepo: settingsRepo,
		responseCh:   responseCh,
	}
}

func (c *chatService) SendGreeting(ctx context.Context, chatID, userID int64) {
	c.historyRepo.Clear(userID)

	greeting := `👋 Привет! Я твой личный помощник для учёбы и могу решить домашние задания по разным предметам.

⭐ Как пользоваться:
Просто отправь фотографию или файл (PDF, TXT, HTML, PY и т.д.) с заданием. Подпись к фото или файлу поможет мне понять, что нужно сделать. Несколько фото одним альбомом я решу вместе.

⚠️ Для геометрии отправляй задачи по одной, а не несколько на одном листе.

📄 По умолчанию отвечаю HTML-файлом, оформленным как тетрадный лист. Формат можно сменить в /settings.`

	respond(ctx, c.responseCh, domain.Response{
		ChatID: chatID,
		Text:   greeting,
		Keyboard: &domain.Keyboard{
			Buttons: []domain.Button{
				{Label: "Начать чат", Data: domain.StartChatCallback},
				{Label: "Настройки", Data: domain.SettingsCallback},
				{Label: "Донат", URL: donationURL},
			},
			ButtonsPerRow: 1,
		},
	})
}

func (c *chatService) StartChat(ctx context.Context, chatID int64) {
	respond(ctx, c.responseCh, domain.Response{
		ChatID: chatID,
		Text:   "Отлично, можете присылать ваши задания. Чтобы начать заново, используйте команду /start.",
	})
}

func (c *chatService) ClearChatHistory(ctx context.Context, chatID, userID int64) {
	text := lo.Ternary(c.historyRepo.Clear(userID),
		"🧹 Диалог сброшен. Можете начинать новую беседу.",
		"Диалог не найден. Начните новую беседу.")

	respond(ctx, c.responseCh, domain.Response{ChatID: chatID, Text: text})
}

func (c *chatService) SendSettings(ctx context.Context, chatID int64) {
	respond(ctx, c.responseCh, domain.Response{
		ChatID: chatID,
		Text:   "⚙️ Выберите, как мне отвечать:",
		Keyboard: &domain.Keyboard{
			Buttons: []domain.Button{
				{Label: "Способ отправки", Data: domain.SettingsSendMethodCallback},
				{Label: "Назад", Data: domain.StartChatCallback},
			},
			ButtonsPerRow: 1,
		},
	})
}

func (c *chatService) SendResponseModes(ctx context.Context, chatID, userID int64) {
	current := c.settingsRepo.ResponseMode(userID)

	buttons := lo.Map(domain.ResponseModes, func(m domain.ResponseMode, _ int) domain.Button {
		label := lo.Ternary(m == current, "✅ "+m.Label(), m.Label())
		return domain.Button{Label: label, Data: domain.SetFormatCallbackPrefix + string(m)}
	})
	buttons = append(buttons, domain.Button{Label: "Назад", Data: domain.SettingsCallback})

	respond(ctx, c.responseCh, domain.Response{
		ChatID:   chatID,
		Text:     "📝 Выберите формат ответа:",
		Keyboard: &domain.Keyboard{Buttons: buttons, ButtonsPerRow: 1},
	})
}

func (c *chatService) SetResponseMode(ctx context.Context, chatID, userID int64, data string) {
	mode, err := c.parseResponseMode(data)
	if err != nil {
		slog.WarnContext(ctx, "Rejecting response mode", "data", data, logger.Err(err))
		respond(ctx, c.responseCh, domain.Response{ChatID: chatID, Text: domain.UnknownFormatMessage})
		return
	}

	c.settingsRepo.SetResponseMode(userID, mode)
	slog.InfoContext(ctx, "Response mode changed", "mode", mode)

	respond(ctx, c.responseCh, domain.Response{
		ChatID: chatID,
		Text:   fmt.Sprintf("✅ Теперь я буду отвечать в формате «%s». Чтобы изменить, зайдите в /settings.", mode.Label()),
	})
}

func (c *chatService) parseResponseMode(data string) (domain.ResponseMode, error) {
	if !strings.HasPrefix(data, domain.SetFormatCallbackPrefix) {
		return "", fmt.Errorf("invalid format, expected prefix '%s'", domain.SetFormatCallbackPrefix)
	}

	return domain.ParseResponseMode(strings.TrimPrefix(data, domain.SetFormatCallbackPrefix))
}
