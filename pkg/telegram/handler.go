package telegram

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
)

type AssistantService interface {
	Submit(ctx context.Context, item domain.InboundItem)
}

type ChatService interface {
	SendGreeting(ctx context.Context, chatID, userID int64)
	StartChat(ctx context.Context, chatID int64)
	ClearChatHistory(ctx context.Context, chatID, userID int64)
	SendSettings(ctx context.Context, chatID int64)
	SendResponseModes(ctx context.Context, chatID, userID int64)
	SetResponseMode(ctx context.Context, chatID, userID int64, data string)
}

type BillingService interface {
	SendBalance(ctx context.Context, chatID, userID int64)
	SendInvoice(ctx context.Context, chatID int64)
	ValidatePayload(payload string) error
	CompletePayment(ctx context.Context, chatID, userID int64, payload string)
}

type CheckoutAnswerer interface {
	AnswerPreCheckout(ctx context.Context, queryID string, reason error)
}

type handler struct {
	assistantService AssistantService
	chatService      ChatService
	billingService   BillingService
	checkout         CheckoutAnswerer
}

func NewHandler(
	assistantService AssistantService,
	chatService ChatService,
	billingService BillingService,
	checkout CheckoutAnswerer,
) *handler {
	return &handler{
		assistantService: assistantService,
		chatService:      chatService,
		billingService:   billingService,
		checkout:         checkout,
	}
}

func (h *handler) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	switch {
	case update.PreCheckoutQuery != nil:
		q := update.PreCheckoutQuery
		h.checkout.AnswerPreCheckout(ctx, q.ID, h.billingService.ValidatePayload(q.InvoicePayload))

	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)

	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *handler) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		slog.WarnContext(ctx, "Callback without message", "data", callback.Data)
		return
	}

	chatID, userID := callback.Message.Chat.ID, callback.From.ID
	data := callback.Data

	switch {
	case data == domain.StartChatCallback:
		h.chatService.StartChat(ctx, chatID)
	case data == domain.SettingsCallback:
		h.chatService.SendSettings(ctx, chatID)
	case data == domain.SettingsSendMethodCallback:
		h.chatService.SendResponseModes(ctx, chatID, userID)
	case strings.HasPrefix(data, domain.SetFormatCallbackPrefix):
		h.chatService.SetResponseMode(ctx, chatID, userID, data)
	case data == domain.BuyCreditsCallback:
		h.billingService.SendInvoice(ctx, chatID)
	default:
		slog.WarnContext(ctx, "Unhandled callback", "data", data)
	}
}

func (h *handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	item := ToInboundItem(msg)

	switch {
	case msg.SuccessfulPayment != nil:
		h.billingService.CompletePayment(ctx, item.ChatID, item.UserID, msg.SuccessfulPayment.InvoicePayload)

	case item.File == nil && isCommand(msg.Text):
		h.handleCommand(ctx, item.ChatID, item.UserID, msg.Text)

	default:
		h.assistantService.Submit(ctx, item)
	}
}

func isCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

func (h *handler) handleCommand(ctx context.Context, chatID, userID int64, text string) {
	cmd := strings.ToLower(strings.TrimSpace(text))
	cmd = strings.Fields(cmd)[0]
	cmd = strings.Split(cmd, "@")[0]

	switch cmd {
	case "/start":
		h.chatService.SendGreeting(ctx, chatID, userID)
	case "/reset":
		h.chatService.ClearChatHistory(ctx, chatID, userID)
	case "/settings":
		h.chatService.SendSettings(ctx, chatID)
	case "/balance":
		h.billingService.SendBalance(ctx, chatID, userID)
	case "/buy":
		h.billingService.SendInvoice(ctx, chatID)
	default:
		slog.WarnContext(ctx, "Unhandled command", "cmd", cmd)
	}
}
