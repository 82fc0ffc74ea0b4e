package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
)

type scriptedReply struct {
	status int
	body   string
}

type upstreamStub struct {
	mu      sync.Mutex
	replies []scriptedReply
	keys    []string
	bodies  [][]byte
}

func (s *upstreamStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	s.keys = append(s.keys, r.URL.Query().Get("key"))
	s.bodies = append(s.bodies, body)

	idx := len(s.keys) - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	w.WriteHeader(s.replies[idx].status)
	_, _ = io.WriteString(w, s.replies[idx].body)
}

func (s *upstreamStub) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

const okBody = `{"candidates":[{"content":{"parts":[{"text":"answer"}],"role":"model"}}]}`

func newTestClient(t *testing.T, stub *upstreamStub, keys ...string) (*client, *[]time.Duration) {
	t.Helper()

	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	if len(keys) == 0 {
		keys = []string{"k1", "k2"}
	}
	rotator, err := NewRotator(keys)
	require.NoError(t, err)

	c, err := NewClient(Config{BaseURL: srv.URL, Model: "test-model"}, rotator)
	require.NoError(t, err)

	var delays []time.Duration
	c.sleepFn = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return c, &delays
}

func textRequest(text string) domain.GenerationRequest {
	return domain.GenerationRequest{
		Contents:    []domain.Turn{{Role: domain.RoleUser, Parts: []domain.Part{domain.TextPart(text)}}},
		Temperature: 0.4,
	}
}

func requireUpstreamErr(t *testing.T, err error, kind domain.FailureKind, attempts int) {
	t.Helper()

	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, kind, upstreamErr.Kind)
	assert.Equal(t, attempts, upstreamErr.Attempts)
}

func TestGenerateContent_Success(t *testing.T) {
	stub := &upstreamStub{replies: []scriptedReply{{http.StatusOK, okBody}}}
	c, delays := newTestClient(t, stub)

	text, err := c.GenerateContent(context.Background(), textRequest("hi"))

	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	assert.Equal(t, 1, stub.calls())
	assert.Empty(t, *delays)
}

func TestGenerateContent_RateLimitedThenSuccess(t *testing.T) {
	stub := &upstreamStub{replies: []scriptedReply{
		{http.StatusTooManyRequests, `{}`},
		{http.StatusTooManyRequests, `{}`},
		{http.StatusTooManyRequests, `{}`},
		{http.StatusTooManyRequests, `{}`},
		{http.StatusOK, okBody},
	}}
	c, delays := newTestClient(t, stub, "k1", "k2", "k3")

	text, err := c.GenerateContent(context.Background(), textRequest("hi"))

	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	assert.Equal(t, 5, stub.calls())
	assert.Equal(t, []string{"k1", "k2", "k3", "k1", "k2"}, stub.keys)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}, *delays)
}

func TestGenerateContent_MalformedIsTerminal(t *testing.T) {
	stub := &upstreamStub{replies: []scriptedReply{
		{http.StatusBadRequest, `{"error":{"message":"Unsupported MIME type"}}`},
		{http.StatusOK, okBody},
	}}
	c, delays := newTestClient(t, stub)

	_, err := c.GenerateContent(context.Background(), textRequest("hi"))

	requireUpstreamErr(t, err, domain.FailureMalformed, 1)
	assert.True(t, domain.IsUnsupportedInput(err))
	assert.Equal(t, 1, stub.calls())
	assert.Empty(t, *delays)
}

func TestGenerateContent_InvalidKeyRotatesWithoutBackoff(t *testing.T) {
	stub := &upstreamStub{replies: []scriptedReply{
		{http.StatusBadRequest, `{"error":{"message":"API key not valid. Please pass a valid API key."}}`},
		{http.StatusOK, okBody},
	}}
	c, delays := newTestClient(t, stub, "bad", "good")

	text, err := c.GenerateContent(context.Background(), textRequest("hi"))

	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	assert.Equal(t, []string{"bad", "good"}, stub.keys)
	assert.Empty(t, *delays)
}

func TestGenerateContent_InvalidKeyIsNotEvicted(t *testing.T) {
	stub := &upstreamStub{replies: []scriptedReply{
		{http.StatusBadRequest, `API_KEY_INVALID`},
		{http.StatusOK, okBody},
		{http.StatusOK, okBody},
	}}
	c, _ := newTestClient(t, stub, "bad", "good")

	_, err := c.GenerateContent(context.Background(), textRequest("one"))
	require.NoError(t, err)
	_, err = c.GenerateContent(context.Background(), textRequest("two"))
	require.NoError(t, err)

	assert.Equal(t, []string{"bad", "good", "bad"}, stub.keys)
}

func TestGenerateContent_RetriesExhausted(t *testing.T) {
	stub := &upstreamStub{replies: []scriptedReply{{http.StatusServiceUnavailable, `overloaded`}}}
	c, delays := newTestClient(t, stub)

	_, err := c.GenerateContent(context.Background(), textRequest("hi"))

	requireUpstreamErr(t, err, domain.FailureRetriesExhausted, DefaultMaxAttempts)
	assert.False(t, domain.IsUnsupportedInput(err))
	assert.Equal(t, DefaultMaxAttempts, stub.calls())
	assert.Len(t, *delays, DefaultMaxAttempts-1)
}

func TestGenerateContent_UnexpectedShapeIsSoftSuccess(t *testing.T) {
	tests := map[string]string{
		"no candidates": `{"candidates":[]}`,
		"no parts":      `{"candidates":[{"content":{"parts":[]}}]}`,
		"not json":      `<html>`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			stub := &upstreamStub{replies: []scriptedReply{{http.StatusOK, body}}}
			c, _ := newTestClient(t, stub)

			text, err := c.GenerateContent(context.Background(), textRequest("hi"))

			require.NoError(t, err)
			assert.Equal(t, domain.NoAnswerMessage, text)
			assert.Equal(t, 1, stub.calls())
		})
	}
}

func TestGenerateContent_CancelledDuringBackoff(t *testing.T) {
	stub := &upstreamStub{replies: []scriptedReply{{http.StatusTooManyRequests, `{}`}}}
	c, _ := newTestClient(t, stub)
	c.sleepFn = func(context.Context, time.Duration) error { return context.Canceled }

	_, err := c.GenerateContent(context.Background(), textRequest("hi"))

	requireUpstreamErr(t, err, domain.FailureUnclassified, 1)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, stub.calls())
}

func TestGenerateContent_WireFormat(t *testing.T) {
	stub := &upstreamStub{replies: []scriptedReply{{http.StatusOK, okBody}}}
	c, _ := newTestClient(t, stub)

	req := domain.GenerationRequest{
		Contents: []domain.Turn{{
			Role:  domain.RoleUser,
			Parts: []domain.Part{domain.TextPart("solve"), domain.BlobPart("image/jpeg", []byte{0xff, 0xd8})},
		}},
		Temperature: 0.4,
		Structured:  true,
	}
	_, err := c.GenerateContent(context.Background(), req)
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(stub.bodies[0], &sent))

	contents := sent["contents"].([]any)
	require.Len(t, contents, 1)
	turn := contents[0].(map[string]any)
	assert.Equal(t, "user", turn["role"])
	parts := turn["parts"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "solve", parts[0].(map[string]any)["text"])
	assert.Equal(t, map[string]any{"mimeType": "image/jpeg", "data": "/9g="}, parts[1].(map[string]any)["inlineData"])

	cfg := sent["generationConfig"].(map[string]any)
	assert.Equal(t, 0.4, cfg["temperature"])
	assert.Equal(t, "application/json", cfg["responseMimeType"])
	schema := cfg["responseSchema"].(map[string]any)
	assert.Equal(t, "ARRAY", schema["type"])
	items := schema["items"].(map[string]any)
	assert.Equal(t, "OBJECT", items["type"])
	assert.Contains(t, items["properties"], "title")
	assert.Contains(t, items["properties"], "points")
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   domain.FailureKind
	}{
		{http.StatusBadRequest, "API key not valid. Please pass a valid API key.", domain.FailureCredentialInvalid},
		{http.StatusBadRequest, `"reason": "API_KEY_INVALID"`, domain.FailureCredentialInvalid},
		{http.StatusBadRequest, "Request contains an invalid argument.", domain.FailureMalformed},
		{http.StatusTooManyRequests, "", domain.FailureRateLimited},
		{http.StatusInternalServerError, "", domain.FailureTransient},
		{http.StatusForbidden, "", domain.FailureTransient},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyStatus(tt.status, []byte(tt.body)), "%d %s", tt.status, tt.body)
	}
}
