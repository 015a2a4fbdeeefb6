package services

import (
	"context"
	"fmt"

	"finura/internal/core"
	"finura/internal/store"
)

type SettingsService struct {
	store store.SettingsStore
}

func NewSettingsService(s store.SettingsStore) *SettingsService {
	return &SettingsService{store: s}
}

func (s *SettingsService) Get(ctx context.Context, userID string) (core.Settings, error) {
	return s.store.GetSettings(ctx, userID)
}

// SetDailyLimit replaces the user's daily spending limit. The limit applies
// to future expense creation only; existing transactions are untouched.
func (s *SettingsService) SetDailyLimit(ctx context.Context, userID string, limit core.Money) (core.Settings, error) {
	if err := limit.Validate(); err != nil {
		return core.Settings{}, err
	}
	settings, err := s.store.SetDailyLimit(ctx, userID, limit)
	if err != nil {
		return core.Settings{}, fmt.Errorf("set daily limit: %w", err)
	}
	return settings, nil
}
