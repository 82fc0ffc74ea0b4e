package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
	"github.com/dskvich/homework-telegram-bot/pkg/logger"
)

// MaxDownloadSize is the largest file the bot API lets bots download.
const MaxDownloadSize = 20 << 20

type client struct {
	token     string
	bot       *tgbotapi.BotAPI
	updatesCh tgbotapi.UpdatesChannel
}

func NewClient(token string) (*client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot api instance: %w", err)
	}

	return newClient(token, bot), nil
}

func newClient(token string, bot *tgbotapi.BotAPI) *client {
	slog.Info("authorized on telegram", "account", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query", "pre_checkout_query"}

	return &client{
		token:     token,
		bot:       bot,
		updatesCh: bot.GetUpdatesChan(u),
	}
}

func (c *client) GetUpdates() tgbotapi.UpdatesChannel {
	return c.updatesCh
}

func (c *client) Stop() {
	c.bot.StopReceivingUpdates()
}

func (c *client) SendResponse(ctx context.Context, resp *domain.Response) {
	chattable, err := c.toChattable(ctx, resp)
	if err != nil {
		slog.ErrorContext(ctx, "Building telegram message", "chatID", resp.ChatID, logger.Err(err))
		return
	}

	if _, err := c.bot.Send(chattable); err != nil {
		slog.ErrorContext(ctx, "Sending telegram message", "chatID", resp.ChatID, logger.Err(err))
		c.notifyDeliveryFailure(ctx, resp.ChatID)
	}
}

func (c *client) toChattable(ctx context.Context, resp *domain.Response) (tgbotapi.Chattable, error) {
	switch {
	case resp.Err != nil:
		slog.ErrorContext(ctx, "Request failed", "chatID", resp.ChatID, logger.Err(resp.Err))
		text := lo.Ternary(domain.IsUnsupportedInput(resp.Err), domain.UnsupportedInputMessage, domain.UnavailableMessage)
		return tgbotapi.NewMessage(resp.ChatID, text), nil

	case resp.Invoice != nil:
		inv := resp.Invoice
		invoice := tgbotapi.NewInvoice(resp.ChatID, inv.Title, inv.Description, inv.Payload, "", "", inv.Currency,
			[]tgbotapi.LabeledPrice{{Label: inv.Title, Amount: inv.Amount}})
		invoice.SuggestedTipAmounts = []int{}
		return invoice, nil

	case resp.File != nil:
		return tgbotapi.NewDocument(resp.ChatID, tgbotapi.FileBytes{Name: resp.File.Name, Bytes: resp.File.Data}), nil

	case resp.Text != "":
		msg := tgbotapi.NewMessage(resp.ChatID, resp.Text)
		if resp.Keyboard != nil {
			msg.ReplyMarkup = inlineKeyboard(resp.Keyboard)
		}
		return msg, nil
	}

	return nil, errors.New("empty response")
}

func inlineKeyboard(kb *domain.Keyboard) tgbotapi.InlineKeyboardMarkup {
	buttons := lo.Map(kb.Buttons, func(b domain.Button, _ int) tgbotapi.InlineKeyboardButton {
		if b.URL != "" {
			return tgbotapi.NewInlineKeyboardButtonURL(b.Label, b.URL)
		}
		return tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data)
	})

	return tgbotapi.NewInlineKeyboardMarkup(lo.Chunk(buttons, max(kb.ButtonsPerRow, 1))...)
}

func (c *client) notifyDeliveryFailure(ctx context.Context, chatID int64) {
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, domain.DeliveryFailedMessage)); err != nil {
		slog.ErrorContext(ctx, "Sending failure notification", "chatID", chatID, logger.Err(err))
	}
}

func (c *client) AcknowledgeCallback(ctx context.Context, callbackQueryID string) {
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackQueryID, "")); err != nil {
		slog.ErrorContext(ctx, "Acknowledging callback", logger.Err(err))
	}
}

func (c *client) StartTyping(ctx context.Context, chatID int64) {
	if _, err := c.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		slog.WarnContext(ctx, "Sending typing action", logger.Err(err))
	}
}

// AnswerPreCheckout approves the checkout when reason is nil.
func (c *client) AnswerPreCheckout(ctx context.Context, queryID string, reason error) {
	cfg := tgbotapi.PreCheckoutConfig{PreCheckoutQueryID: queryID, OK: reason == nil}
	if reason != nil {
		cfg.ErrorMessage = "Не удалось оформить покупку, попробуйте ещё раз."
	}

	if _, err := c.bot.Request(cfg); err != nil {
		slog.ErrorContext(ctx, "Answering pre-checkout query", logger.Err(err))
	}
}

func (c *client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("getting file: %w", err)
	}
	if file.FileSize > MaxDownloadSize {
		return nil, fmt.Errorf("file is too big: %d bytes", file.FileSize)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.token), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.bot.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", redactURL(err))
	}
	defer func(Body io.ReadCloser) {
		if closeErr := Body.Close(); closeErr != nil {
			slog.ErrorContext(ctx, "closing body", logger.Err(closeErr))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return data, nil
}

// redactURL drops the file URL, which embeds the bot token, from transport errors.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
