// Package events implements event CRUD with input validation. Participant
// counts are read through the same repository so listings always reflect
// the stored registrations, never an in-process cache.
package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gatherspace/server/internal/domain/ids"
	"github.com/gatherspace/server/internal/domain/validate"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// EventInput carries the create-event request body. Date is an RFC3339
// timestamp string; it is parsed before storage.
type EventInput struct {
	Name            string `json:"name" validate:"required,max=500"`
	Description     string `json:"description" validate:"required,max=10000"`
	Date            string `json:"date" validate:"required"`
	Location        string `json:"location" validate:"required,max=500"`
	MaxParticipants int    `json:"maxParticipants" validate:"required,min=1"`
}

// EventUpdateInput carries a partial update; absent fields keep their value.
type EventUpdateInput struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=500"`
	Description     *string `json:"description" validate:"omitempty,min=1,max=10000"`
	Date            *string `json:"date"`
	Location        *string `json:"location" validate:"omitempty,min=1,max=500"`
	MaxParticipants *int    `json:"maxParticipants" validate:"omitempty,min=1"`
}

type Service struct {
	repo      Repository
	logger    zerolog.Logger
	validator *validator.Validate
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		logger:    logger.With().Str("component", "events").Logger(),
		validator: validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, input EventInput) (*Event, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)

	if err := s.validator.Struct(input); err != nil {
		return nil, validate.Fields(err)
	}
	date, err := parseDate(input.Date)
	if err != nil {
		return nil, err
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint event id: %w", err)
	}

	event, err := s.repo.Create(ctx, CreateParams{
		ID:              id,
		Name:            input.Name,
		Description:     input.Description,
		Date:            date,
		Location:        input.Location,
		MaxParticipants: input.MaxParticipants,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("event_id", event.ID).Int("max_participants", event.MaxParticipants).Msg("event created")
	return event, nil
}

func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, input EventUpdateInput) (*Event, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, validate.Fields(err)
	}

	params := UpdateParams{
		Name:            trimmed(input.Name),
		Description:     trimmed(input.Description),
		Location:        trimmed(input.Location),
		MaxParticipants: input.MaxParticipants,
	}
	if input.Date != nil {
		date, err := parseDate(*input.Date)
		if err != nil {
			return nil, err
		}
		params.Date = &date
	}
	if params.Name != nil && *params.Name == "" {
		return nil, validate.FieldErrors{"name": "is required"}
	}
	if params.Description != nil && *params.Description == "" {
		return nil, validate.FieldErrors{"description": "is required"}
	}
	if params.Location != nil && *params.Location == "" {
		return nil, validate.FieldErrors{"location": "is required"}
	}

	event, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("event_id", id).Msg("event updated")
	return event, nil
}

// Delete removes the event. Registrations for it are removed with it so no
// participant record is left orphaned.
func (s *Service) Delete(ctx context.Context, id string) (*Event, error) {
	event, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("event_id", id).Msg("event deleted")
	return event, nil
}

// ListJoined returns the events the given user has registered for.
func (s *Service) ListJoined(ctx context.Context, userID string) ([]Event, error) {
	return s.repo.ListJoinedByUser(ctx, userID)
}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, validate.FieldErrors{"date": "must be an RFC3339 timestamp"}
	}
	return parsed, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	t := strings.TrimSpace(*value)
	return &t
}
