package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
	"github.com/dskvich/homework-telegram-bot/pkg/logger"
	"github.com/dskvich/homework-telegram-bot/pkg/metrics"
)

const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel       = "gemini-2.5-flash"
	DefaultTimeout     = 300 * time.Second
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = time.Second

	maxErrorBodyBytes = 4 << 10
)

type Config struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

type KeyProvider interface {
	Next() string
}

type client struct {
	cfg     Config
	keys    KeyProvider
	hc      *http.Client
	sleepFn func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config, keys KeyProvider) (*client, error) {
	if keys == nil {
		return nil, errors.New("key provider is nil")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &client{
		cfg:     cfg,
		keys:    keys,
		hc:      &http.Client{Timeout: cfg.Timeout},
		sleepFn: sleep,
	}, nil
}

// GenerateContent runs one logical request, rotating keys and retrying per retryPolicies.
// The returned error is always a *domain.UpstreamError.
func (c *client) GenerateContent(ctx context.Context, req domain.GenerationRequest) (string, error) {
	started := time.Now()

	body, err := json.Marshal(newGenerateContentRequest(req))
	if err != nil {
		return "", c.fail(started, &domain.UpstreamError{Kind: domain.FailureUnclassified, Err: fmt.Errorf("marshaling request: %w", err)})
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		key := c.keys.Next()

		text, kind, err := c.do(ctx, key, body)
		metrics.UpstreamAttempts.WithLabelValues(outcome(kind)).Inc()
		if kind == 0 {
			metrics.UpstreamRequestDuration.WithLabelValues("ok").Observe(time.Since(started).Seconds())
			return text, nil
		}
		lastErr = err

		policy, ok := retryPolicies[kind]
		if !ok || !policy.retry {
			slog.ErrorContext(ctx, "Upstream request failed", "kind", kind, "attempt", attempt, "key", maskKey(key), logger.Err(err))
			return "", c.fail(started, &domain.UpstreamError{Kind: kind, Attempts: attempt, Err: err})
		}

		slog.WarnContext(ctx, "Upstream attempt failed, rotating key", "kind", kind, "attempt", attempt, "key", maskKey(key), logger.Err(err))

		if !policy.backoff || attempt == c.cfg.MaxAttempts {
			continue
		}
		delay := c.cfg.RetryDelay * time.Duration(1<<attempt)
		if err := c.sleepFn(ctx, delay); err != nil {
			return "", c.fail(started, &domain.UpstreamError{Kind: domain.FailureUnclassified, Attempts: attempt, Err: err})
		}
	}

	return "", c.fail(started, &domain.UpstreamError{Kind: domain.FailureRetriesExhausted, Attempts: c.cfg.MaxAttempts, Err: lastErr})
}

func (c *client) fail(started time.Time, err *domain.UpstreamError) error {
	metrics.UpstreamRequestDuration.WithLabelValues(err.Kind.String()).Observe(time.Since(started).Seconds())
	return err
}

// do performs a single attempt. A zero kind means success.
func (c *client) do(ctx context.Context, key string, body []byte) (string, domain.FailureKind, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.BaseURL, c.cfg.Model, url.QueryEscape(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", domain.FailureUnclassified, fmt.Errorf("creating HTTP request: %w", redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", domain.FailureUnclassified, fmt.Errorf("executing HTTP request: %w", ctx.Err())
		}
		return "", domain.FailureTransient, fmt.Errorf("executing HTTP request: %w", redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", classifyStatus(resp.StatusCode, errBody), fmt.Errorf("unexpected status code: %d, response: %s", resp.StatusCode, string(errBody))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.FailureTransient, fmt.Errorf("reading response body: %w", err)
	}

	var genResp generateContentResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		slog.WarnContext(ctx, "Undecodable upstream response", logger.Err(err))
		return domain.NoAnswerMessage, 0, nil
	}

	text, ok := genResp.firstText()
	if !ok {
		slog.WarnContext(ctx, "Upstream response has no text candidate", "body", string(respBody))
		return domain.NoAnswerMessage, 0, nil
	}

	return text, 0, nil
}

func outcome(kind domain.FailureKind) string {
	if kind == 0 {
		return "ok"
	}
	return kind.String()
}

// redact drops the request URL, which carries the API key, from transport errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
