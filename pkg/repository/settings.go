package repository

import (
	"sync"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
)

type settingsRepository struct {
	mu    sync.RWMutex
	modes map[int64]domain.ResponseMode
}

func NewSettingsRepository() *settingsRepository {
	return &settingsRepository{
		modes: make(map[int64]domain.ResponseMode),
	}
}

func (s *settingsRepository) SetResponseMode(userID int64, mode domain.ResponseMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.modes[userID] = mode
}

func (s *settingsRepository) ResponseMode(userID int64) domain.ResponseMode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if mode, ok := s.modes[userID]; ok {
		return mode
	}
	return domain.DefaultResponseMode
}
