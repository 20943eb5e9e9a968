// Package profile manages the local user's personalization profile.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"assistant-api/internal/database"
)

// ErrNotFound is returned when no profile has been saved yet.
var ErrNotFound = errors.New("profile not found")

// ErrValidation is returned when a profile fails validation.
var ErrValidation = errors.New("profile validation error")

// Service provides validated access to the stored user profile.
type Service struct {
	store  database.Store
	logger *slog.Logger
}

// NewService creates a profile service backed by the given store.
func NewService(store database.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:  store,
		logger: logger.With("component", "profile"),
	}
}

// Get returns the stored profile, or ErrNotFound when none exists.
func (s *Service) Get(ctx context.Context) (*database.Profile, error) {
	profile, err := s.store.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

// Save validates and persists the profile. Updates preserve the original
// creation timestamp.
func (s *Service) Save(ctx context.Context, p *database.Profile) error {
	if err := Validate(p); err != nil {
		return err
	}

	p.Name = strings.TrimSpace(p.Name)
	p.WorkArea = strings.TrimSpace(p.WorkArea)
	p.FamilyInfo = strings.TrimSpace(p.FamilyInfo)
	p.Interests = strings.TrimSpace(p.Interests)

	if err := s.store.SaveProfile(ctx, p); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Profile saved", "name", p.Name, "role", p.Role)
	return nil
}

// Delete removes the stored profile.
func (s *Service) Delete(ctx context.Context) error {
	return s.store.DeleteProfile(ctx)
}

// Validate checks the fields a profile cannot do without.
func Validate(p *database.Profile) error {
	if p == nil {
		return fmt.Errorf("%w: profile is nil", ErrValidation)
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"name", p.Name},
		{"role", p.Role},
		{"communication_style", p.CommunicationStyle},
	} {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: missing required field: %s", ErrValidation, field.name)
		}
	}

	return nil
}
