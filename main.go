package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"github.com/dskvich/homework-telegram-bot/pkg/aggregator"
	"github.com/dskvich/homework-telegram-bot/pkg/auth"
	"github.com/dskvich/homework-telegram-bot/pkg/converter"
	"github.com/dskvich/homework-telegram-bot/pkg/domain"
	"github.com/dskvich/homework-telegram-bot/pkg/gemini"
	"github.com/dskvich/homework-telegram-bot/pkg/ledger"
	"github.com/dskvich/homework-telegram-bot/pkg/logger"
	"github.com/dskvich/homework-telegram-bot/pkg/repository"
	"github.com/dskvich/homework-telegram-bot/pkg/services"
	"github.com/dskvich/homework-telegram-bot/pkg/telegram"
	"github.com/dskvich/homework-telegram-bot/pkg/workers"
)

const secretsFile = "secrets.env"

type Config struct {
	TelegramBotToken          string        `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	TelegramAuthorizedUserIDs []int64       `env:"TELEGRAM_AUTHORIZED_USER_IDS" envSeparator:" "`
	GeminiAPIKeys             []string      `env:"GEMINI_API_KEYS,required,notEmpty" envSeparator:","`
	GeminiModel               string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiBaseURL             string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	GeminiTimeout             time.Duration `env:"GEMINI_TIMEOUT" envDefault:"300s"`
	GeminiMaxAttempts         int           `env:"GEMINI_MAX_ATTEMPTS" envDefault:"5"`
	GeminiRetryDelay          time.Duration `env:"GEMINI_RETRY_DELAY" envDefault:"1s"`
	MediaGroupQuietPeriod     time.Duration `env:"MEDIA_GROUP_QUIET_PERIOD" envDefault:"2s"`
	MaxHistoryTurns           int           `env:"MAX_HISTORY_TURNS" envDefault:"10"`
	HistoryTTL                time.Duration `env:"HISTORY_TTL" envDefault:"0s"`
	MeteredResponseModes      []string      `env:"METERED_RESPONSE_MODES" envSeparator:"," envDefault:"slides"`
	TrialCredits              int64         `env:"TRIAL_CREDITS" envDefault:"0"`
	CreditsPackSize           int64         `env:"CREDITS_PACK_SIZE" envDefault:"10"`
	CreditsPackPrice          int           `env:"CREDITS_PACK_PRICE" envDefault:"50"`
	MetricsAddr               string        `env:"METRICS_ADDR" envDefault:":2112"`
	LogLevel                  string        `env:"LOG_LEVEL" envDefault:"info"`
	LogNoColor                bool          `env:"LOG_NO_COLOR"`
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.NewOptions(cfg.LogLevel, cfg.LogNoColor))))

	workerGroup, cleanup, err := setupWorkers(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return workerGroup.Run(ctx)
}

func loadConfig() (*Config, error) {
	if err := godotenv.Load(secretsFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", secretsFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}
	return cfg, nil
}

func parseResponseModes(values []string) ([]domain.ResponseMode, error) {
	modes := make([]domain.ResponseMode, 0, len(values))
	for _, v := range values {
		mode, err := domain.ParseResponseMode(v)
		if err != nil {
			return nil, err
		}
		modes = append(modes, mode)
	}
	return modes, nil
}

func setupWorkers(cfg *Config) (workers.Group, func(), error) {
	var workerGroup workers.Group

	meteredModes, err := parseResponseModes(cfg.MeteredResponseModes)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing metered response modes: %w", err)
	}

	rotator, err := gemini.NewRotator(cfg.GeminiAPIKeys)
	if err != nil {
		return nil, nil, fmt.Errorf("creating key rotator: %w", err)
	}

	geminiClient, err := gemini.NewClient(gemini.Config{
		BaseURL:     cfg.GeminiBaseURL,
		Model:       cfg.GeminiModel,
		Timeout:     cfg.GeminiTimeout,
		MaxAttempts: cfg.GeminiMaxAttempts,
		RetryDelay:  cfg.GeminiRetryDelay,
	}, rotator)
	if err != nil {
		return nil, nil, fmt.Errorf("creating gemini client: %w", err)
	}

	telegramClient, err := telegram.NewClient(cfg.TelegramBotToken)
	if err != nil {
		return nil, nil, fmt.Errorf("creating telegram client: %w", err)
	}
	authenticator := auth.NewAuthenticator(cfg.TelegramAuthorizedUserIDs)

	historyRepository := repository.NewHistoryRepository(cfg.MaxHistoryTurns, cfg.HistoryTTL)
	settingsRepository := repository.NewSettingsRepository()
	creditLedger := ledger.New(cfg.TrialCredits)
	window := aggregator.New[domain.InboundItem](cfg.MediaGroupQuietPeriod)

	responseCh := make(chan domain.Response)

	assistantService := services.NewAssistantService(
		geminiClient,
		creditLedger,
		historyRepository,
		settingsRepository,
		telegramClient,
		&converter.FileConverter{},
		window,
		meteredModes,
		responseCh,
	)

	chatService := services.NewChatService(
		historyRepository,
		settingsRepository,
		responseCh,
	)

	billingService, err := services.NewBillingService(
		creditLedger,
		cfg.CreditsPackSize,
		cfg.CreditsPackPrice,
		responseCh,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating billing service: %w", err)
	}

	handler := telegram.NewHandler(
		assistantService,
		chatService,
		billingService,
		telegramClient,
	)

	if worker, err := workers.
		NewTelegramUpdateListener(
			telegramClient,
			authenticator,
			handler,
		); err == nil {
		workerGroup = append(workerGroup, worker)
	} else {
		return nil, nil, err
	}

	workerGroup = append(workerGroup, workers.NewResponseSender(telegramClient, responseCh))

	if cfg.MetricsAddr != "" {
		workerGroup = append(workerGroup, workers.NewMetricsServer(cfg.MetricsAddr))
	}

	cleanup := func() {
		telegramClient.Stop()
		if dropped := window.Stop(); dropped > 0 {
			slog.Warn("dropped pending media groups on shutdown", "groups", dropped)
		}
	}

	return workerGroup, cleanup, nil
}
