package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
)

func turn(text string) domain.Turn {
	return domain.Turn{Role: domain.RoleUser, Parts: []domain.Part{domain.TextPart(text)}}
}

func texts(turns []domain.Turn) []string {
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, t.Parts[0].Text)
	}
	return out
}

func TestHistory_EvictsOldestFirst(t *testing.T) {
	repo := NewHistoryRepository(DefaultMaxTurns, 0)

	for i := 0; i < 25; i++ {
		repo.Append(1, turn(fmt.Sprint(i)))
		require.LessOrEqual(t, len(repo.Get(1)), DefaultMaxTurns)
	}

	assert.Equal(t, []string{"15", "16", "17", "18", "19", "20", "21", "22", "23", "24"}, texts(repo.Get(1)))
}

func TestHistory_AppendPairKeepsBound(t *testing.T) {
	repo := NewHistoryRepository(3, 0)

	repo.Append(1, turn("q1"), turn("a1"))
	repo.Append(1, turn("q2"), turn("a2"))

	assert.Equal(t, []string{"a1", "q2", "a2"}, texts(repo.Get(1)))
}

func TestHistory_ConcurrentAppends(t *testing.T) {
	repo := NewHistoryRepository(DefaultMaxTurns, 0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			repo.Append(1, turn(fmt.Sprint(i)), turn(fmt.Sprint(i)))
		}(i)
	}
	wg.Wait()

	assert.Len(t, repo.Get(1), DefaultMaxTurns)
}

func TestHistory_GetReturnsCopy(t *testing.T) {
	repo := NewHistoryRepository(DefaultMaxTurns, 0)
	repo.Append(1, turn("a"))

	got := repo.Get(1)
	got[0] = turn("mutated")

	assert.Equal(t, []string{"a"}, texts(repo.Get(1)))
}

func TestHistory_Clear(t *testing.T) {
	repo := NewHistoryRepository(DefaultMaxTurns, 0)

	assert.False(t, repo.Clear(1))

	repo.Append(1, turn("a"))
	repo.Append(2, turn("b"))
	assert.True(t, repo.Clear(1))

	assert.Empty(t, repo.Get(1))
	assert.Len(t, repo.Get(2), 1)
}

func TestHistory_TTL(t *testing.T) {
	repo := NewHistoryRepository(DefaultMaxTurns, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	repo.Append(1, turn("old"))
	now = now.Add(2 * time.Minute)

	assert.Empty(t, repo.Get(1))

	repo.Append(1, turn("new"))
	assert.Equal(t, []string{"new"}, texts(repo.Get(1)))
}

func TestSettings_DefaultAndSet(t *testing.T) {
	repo := NewSettingsRepository()

	assert.Equal(t, domain.ResponseModeDocument, repo.ResponseMode(1))

	repo.SetResponseMode(1, domain.ResponseModeSlides)
	assert.Equal(t, domain.ResponseModeSlides, repo.ResponseMode(1))
	assert.Equal(t, domain.ResponseModeDocument, repo.ResponseMode(2))
}
