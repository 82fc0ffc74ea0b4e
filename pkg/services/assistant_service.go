package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/dskvich/homework-telegram-bot/pkg/converter"
	"github.com/dskvich/homework-telegram-bot/pkg/domain"
	"github.com/dskvich/homework-telegram-bot/pkg/logger"
	"github.com/dskvich/homework-telegram-bot/pkg/metrics"
	"github.com/dskvich/homework-telegram-bot/pkg/render"
)

type ContentGenerator interface {
	GenerateContent(ctx context.Context, req domain.GenerationRequest) (string, error)
}

type CreditLedger interface {
	TryConsume(userID int64) bool
	Refund(userID int64)
	Balance(userID int64) int64
	Credit(userID int64, amount int64) error
}

type HistoryRepository interface {
	Append(userID int64, turns ...domain.Turn)
	Get(userID int64) []domain.Turn
	Clear(userID int64) bool
}

type SettingsRepository interface {
	ResponseMode(userID int64) domain.ResponseMode
	SetResponseMode(userID int64, mode domain.ResponseMode)
}

type FileDownloader interface {
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

type PartConverter interface {
	Convert(name string, data []byte, caption string) (domain.Part, error)
	Image(data []byte) (domain.Part, error)
}

type GroupAggregator interface {
	Add(groupID string, item domain.InboundItem, dispatch func(items []domain.InboundItem)) bool
}

type assistantService struct {
	generator    ContentGenerator
	ledger       CreditLedger
	historyRepo  HistoryRepository
	settingsRepo SettingsRepository
	downloader   FileDownloader
	converter    PartConverter
	groups       GroupAggregator
	meteredModes []domain.ResponseMode
	responseCh   chan<- domain.Response
}

func NewAssistantService(
	generator ContentGenerator,
	ledger CreditLedger,
	historyRepo HistoryRepository,
	settingsRepo SettingsRepository,
	downloader FileDownloader,
	converter PartConverter,
	groups GroupAggregator,
	meteredModes []domain.ResponseMode,
	responseCh chan<- domain.Response,
) *assistantService {
	return &assistantService{
		generator:    generator,
		ledger:       ledger,
		historyRepo:  historyRepo,
		settingsRepo: settingsRepo,
		downloader:   downloader,
		converter:    converter,
		groups:       groups,
		meteredModes: meteredModes,
		responseCh:   responseCh,
	}
}

// Submit handles one inbound item. Items of a media group are buffered until the
// group goes quiet, then answered together.
func (s *assistantService) Submit(ctx context.Context, item domain.InboundItem) {
	if item.GroupID == "" {
		s.answerSingle(ctx, item)
		return
	}

	slog.InfoContext(ctx, "Buffering media group item", "groupID", item.GroupID, "messageID", item.MessageID)

	accepted := s.groups.Add(item.GroupID, item, func(items []domain.InboundItem) {
		s.answerGroup(ctx, items)
	})
	if !accepted {
		slog.WarnContext(ctx, "Media group item dropped, aggregator stopped", "groupID", item.GroupID)
	}
}

func (s *assistantService) answerSingle(ctx context.Context, item domain.InboundItem) {
	if item.File == nil && item.Text == "" {
		respond(ctx, s.responseCh, domain.Response{ChatID: item.ChatID, Text: domain.EmptyMessage})
		return
	}

	respond(ctx, s.responseCh, domain.Response{ChatID: item.ChatID, Text: domain.ProcessingMessage})

	parts, err := s.singleParts(ctx, item)
	if err != nil {
		s.reportInputError(ctx, item.ChatID, err)
		return
	}

	s.generate(ctx, item.ChatID, item.UserID, domain.Turn{Role: domain.RoleUser, Parts: parts})
}

func (s *assistantService) singleParts(ctx context.Context, item domain.InboundItem) ([]domain.Part, error) {
	if item.File == nil {
		return []domain.Part{domain.TextPart(item.Text)}, nil
	}

	part, err := s.filePart(ctx, item)
	if err != nil {
		return nil, err
	}
	if !part.IsBinary() {
		return []domain.Part{part}, nil
	}

	prompt := lo.CoalesceOrEmpty(item.Caption, domain.DefaultImagePrompt)
	return []domain.Part{domain.TextPart(prompt), part}, nil
}

func (s *assistantService) answerGroup(ctx context.Context, items []domain.InboundItem) {
	metrics.DispatchedGroups.Inc()

	first := items[0]
	ctx = logger.ContextWithUserID(ctx, first.UserID)
	slog.InfoContext(ctx, "Answering media group", "groupID", first.GroupID, "items", len(items))

	respond(ctx, s.responseCh, domain.Response{ChatID: first.ChatID, Text: domain.ProcessingAlbumMessage})

	prompt, parts := s.groupParts(ctx, items)
	if len(parts) == 0 {
		respond(ctx, s.responseCh, domain.Response{ChatID: first.ChatID, Text: domain.UnsupportedInputMessage})
		return
	}

	turn := domain.Turn{Role: domain.RoleUser, Parts: append([]domain.Part{domain.TextPart(prompt)}, parts...)}
	s.generate(ctx, first.ChatID, first.UserID, turn)
}

// groupParts converts the items in arrival order. The last non-empty caption becomes the
// prompt. Items that fail to convert are skipped.
func (s *assistantService) groupParts(ctx context.Context, items []domain.InboundItem) (string, []domain.Part) {
	var (
		prompt string
		parts  []domain.Part
	)
	for _, item := range items {
		if item.Caption != "" {
			prompt = item.Caption
		}
		if item.File == nil {
			continue
		}

		part, err := s.filePart(ctx, item)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping media group item", "messageID", item.MessageID, logger.Err(err))
			continue
		}
		parts = append(parts, part)
	}

	return lo.CoalesceOrEmpty(prompt, domain.DefaultAlbumPrompt), parts
}

func (s *assistantService) filePart(ctx context.Context, item domain.InboundItem) (domain.Part, error) {
	data, err := s.downloader.DownloadFile(ctx, item.File.ID)
	if err != nil {
		return domain.Part{}, fmt.Errorf("downloading file: %w", err)
	}

	if item.File.IsPhoto {
		return s.converter.Image(data)
	}
	return s.converter.Convert(item.File.Name, data, item.Caption)
}

func (s *assistantService) reportInputError(ctx context.Context, chatID int64, err error) {
	slog.WarnContext(ctx, "Rejecting input", logger.Err(err))

	switch {
	case errors.Is(err, converter.ErrNotText):
		respond(ctx, s.responseCh, domain.Response{ChatID: chatID, Text: domain.NotReadableTextMessage})
	case domain.IsUnsupportedInput(err):
		respond(ctx, s.responseCh, domain.Response{ChatID: chatID, Text: domain.UnsupportedInputMessage})
	default:
		respond(ctx, s.responseCh, domain.Response{ChatID: chatID, Err: err})
	}
}

// generate gates metered modes on credit, calls the upstream service and delivers the
// rendered answer. A consumed credit is refunded when no answer reaches the user.
func (s *assistantService) generate(ctx context.Context, chatID, userID int64, userTurn domain.Turn) {
	mode := s.settingsRepo.ResponseMode(userID)
	metered := lo.Contains(s.meteredModes, mode)

	if metered && !s.ledger.TryConsume(userID) {
		slog.InfoContext(ctx, "Rejecting metered request", "mode", mode, logger.Err(domain.ErrInsufficientCredit))
		respond(ctx, s.responseCh, insufficientCreditResponse(chatID))
		return
	}

	req := domain.GenerationRequest{
		Contents:    s.buildContents(userID, mode, userTurn),
		Temperature: temperature,
		Structured:  mode == domain.ResponseModeSlides,
	}

	slog.InfoContext(ctx, "Calling upstream for content", "mode", mode, "turns", len(req.Contents))

	answer, err := s.generator.GenerateContent(ctx, req)
	if err != nil {
		if metered {
			s.ledger.Refund(userID)
		}
		respond(ctx, s.responseCh, domain.Response{ChatID: chatID, Err: fmt.Errorf("generating content: %w", err)})
		return
	}

	s.historyRepo.Append(userID, userTurn, domain.Turn{Role: domain.RoleModel, Parts: []domain.Part{domain.TextPart(answer)}})

	if !s.deliver(ctx, chatID, mode, answer) && metered {
		s.ledger.Refund(userID)
	}
}

func (s *assistantService) buildContents(userID int64, mode domain.ResponseMode, userTurn domain.Turn) []domain.Turn {
	instructions := lo.Ternary(mode == domain.ResponseModeSlides, presentationPrompt, developerPrompt)

	history := s.historyRepo.Get(userID)
	contents := make([]domain.Turn, 0, len(history)+2)
	contents = append(contents, domain.Turn{Role: domain.RoleUser, Parts: []domain.Part{domain.TextPart(instructions)}})
	contents = append(contents, history...)
	return append(contents, userTurn)
}

// deliver renders the answer for the mode and reports whether an artifact was sent.
func (s *assistantService) deliver(ctx context.Context, chatID int64, mode domain.ResponseMode, answer string) bool {
	switch mode {
	case domain.ResponseModeSlides:
		slides, err := render.ParseSlides(answer)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to parse slides", logger.Err(err))
			respond(ctx, s.responseCh, domain.Response{ChatID: chatID, Text: domain.SlidesRetryMessage})
			return false
		}
		deck, err := render.Slides(slides)
		if err != nil {
			return s.reportRenderError(ctx, chatID, err)
		}
		respond(ctx, s.responseCh, domain.Response{ChatID: chatID, File: &domain.File{Name: "presentation.html", Data: deck}})

	case domain.ResponseModeText:
		text := lo.CoalesceOrEmpty(render.PlainText(answer), domain.NoAnswerMessage)
		for _, chunk := range render.Split(text, render.MaxMessageLength) {
			respond(ctx, s.responseCh, domain.Response{ChatID: chatID, Text: chunk})
		}

	default:
		doc, err := render.Document(answer)
		if err != nil {
			return s.reportRenderError(ctx, chatID, err)
		}
		respond(ctx, s.responseCh, domain.Response{ChatID: chatID, File: &domain.File{Name: "solution.html", Data: doc}})
	}

	return true
}

func (s *assistantService) reportRenderError(ctx context.Context, chatID int64, err error) bool {
	slog.ErrorContext(ctx, "Failed to render answer", logger.Err(err))

	if errors.Is(err, render.ErrTooLarge) {
		respond(ctx, s.responseCh, domain.Response{ChatID: chatID, Text: domain.FileTooLargeMessage})
		return false
	}
	respond(ctx, s.responseCh, domain.Response{ChatID: chatID, Err: err})
	return false
}

func insufficientCreditResponse(chatID int64) domain.Response {
	return domain.Response{
		ChatID: chatID,
		Text:   domain.InsufficientCreditMessage,
		Keyboard: &domain.Keyboard{
			Buttons:       []domain.Button{{Label: domain.BuyCreditsLabel, Data: domain.BuyCreditsCallback}},
			ButtonsPerRow: 1,
		},
	}
}

// respond hands a response to the sender unless the context is already done.
func respond(ctx context.Context, ch chan<- domain.Response, resp domain.Response) {
	select {
	case ch <- resp:
	case <-ctx.Done():
		slog.WarnContext(ctx, "Dropping response, context done", "chatID", resp.ChatID)
	}
}
