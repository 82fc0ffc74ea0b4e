package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
	"github.com/dskvich/homework-telegram-bot/pkg/logger"
)

const (
	starsCurrency = "XTR"
	payloadPrefix = "credits"
	payloadSep    = ":"

	// maxSettled bounds the remembered payloads; the oldest are forgotten first.
	maxSettled = 10000
)

type billingService struct {
	ledger     CreditLedger
	packSize   int64
	packPrice  int
	responseCh chan<- domain.Response

	mu           sync.Mutex
	settled      map[string]struct{}
	settledOrder []string
	maxSettled   int
}

func NewBillingService(
	ledger CreditLedger,
	packSize int64,
	packPrice int,
	responseCh chan<- domain.Response,
) (*billingService, error) {
	if packSize <= 0 || packPrice <= 0 {
		return nil, fmt.Errorf("invalid credit pack: size %d, price %d", packSize, packPrice)
	}
	return &billingService{
		ledger:     ledger,
		packSize:   packSize,
		packPrice:  packPrice,
		responseCh: responseCh,
		settled:    make(map[string]struct{}),
		maxSettled: maxSettled,
	}, nil
}

func (b *billingService) SendBalance(ctx context.Context, chatID, userID int64) {
	respond(ctx, b.responseCh, domain.Response{
		ChatID: chatID,
		Text:   fmt.Sprintf("🪙 Ваш баланс: %d кредит(ов).", b.ledger.Balance(userID)),
		Keyboard: &domain.Keyboard{
			Buttons:       []domain.Button{{Label: domain.BuyCreditsLabel, Data: domain.BuyCreditsCallback}},
			ButtonsPerRow: 1,
		},
	})
}

func (b *billingService) SendInvoice(ctx context.Context, chatID int64) {
	payload := strings.Join([]string{payloadPrefix, strconv.FormatInt(b.packSize, 10), uuid.NewString()}, payloadSep)

	respond(ctx, b.responseCh, domain.Response{
		ChatID: chatID,
		Invoice: &domain.Invoice{
			Title:       fmt.Sprintf("%d кредитов", b.packSize),
			Description: "Кредиты расходуются на ответы в платных форматах, один ответ — один кредит.",
			Payload:     payload,
			Currency:    starsCurrency,
			Amount:      b.packPrice,
		},
	})
}

// ValidatePayload is used to approve a pre-checkout query.
func (b *billingService) ValidatePayload(payload string) error {
	_, err := parsePayload(payload)
	return err
}

// CompletePayment credits the purchased units once per invoice payload.
func (b *billingService) CompletePayment(ctx context.Context, chatID, userID int64, payload string) {
	units, err := parsePayload(payload)
	if err != nil {
		respond(ctx, b.responseCh, domain.Response{ChatID: chatID, Err: fmt.Errorf("parsing payment payload: %w", err)})
		return
	}

	if !b.markSettled(payload) {
		slog.WarnContext(ctx, "Ignoring duplicate payment", "payload", payload)
		return
	}

	if err := b.ledger.Credit(userID, units); err != nil {
		slog.ErrorContext(ctx, "Crediting payment failed", "payload", payload, logger.Err(err))
		respond(ctx, b.responseCh, domain.Response{ChatID: chatID, Err: err})
		return
	}

	slog.InfoContext(ctx, "Payment credited", "units", units)

	respond(ctx, b.responseCh, domain.Response{
		ChatID: chatID,
		Text:   fmt.Sprintf("✅ Зачислено кредитов: %d. Баланс: %d.", units, b.ledger.Balance(userID)),
	})
}

// markSettled records payload and reports false if it was already settled.
func (b *billingService) markSettled(payload string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.settled[payload]; ok {
		return false
	}
	if len(b.settledOrder) >= b.maxSettled {
		delete(b.settled, b.settledOrder[0])
		b.settledOrder = b.settledOrder[1:]
	}
	b.settled[payload] = struct{}{}
	b.settledOrder = append(b.settledOrder, payload)
	return true
}

func parsePayload(payload string) (int64, error) {
	fields := strings.Split(payload, payloadSep)
	if len(fields) != 3 || fields[0] != payloadPrefix {
		return 0, fmt.Errorf("unexpected payload %q", payload)
	}
	if _, err := uuid.Parse(fields[2]); err != nil {
		return 0, fmt.Errorf("invalid payload id: %w", err)
	}

	units, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid payload units: %w", err)
	}
	if units <= 0 {
		return 0, errors.New("payload units must be positive")
	}
	return units, nil
}
