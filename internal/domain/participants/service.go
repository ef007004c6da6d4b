// Package participants mediates all changes to the user-event membership
// relation. Two invariants must survive concurrent callers:
//
//   - an event holds at most MaxParticipants registrations, and
//   - a user holds at most one registration per event.
//
// Both are enforced inside one store transaction per attempt. The event row
// is locked first, which serializes registration attempts per event; the
// unique (user_id, event_id) constraint in storage backstops the duplicate
// check. Participant counts are always read inside the transaction - caching
// them would reintroduce the capacity race.
package participants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherspace/server/internal/domain/ids"
	"github.com/rs/zerolog"
)

type Service struct {
	store  Store
	logger zerolog.Logger
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "participants").Logger(),
	}
}

// Register adds userID to eventID. It fails with ErrEventNotFound,
// ErrEventFull, or ErrAlreadyRegistered; on success the returned
// registration carries the event snapshot taken under the lock.
func (s *Service) Register(ctx context.Context, userID, eventID string) (*Registration, error) {
	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint registration id: %w", err)
	}

	var created *Registration
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		event, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}

		count, err := tx.CountByEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("count participants: %w", err)
		}
		if count >= event.MaxParticipants {
			return ErrEventFull
		}

		if _, err := tx.Find(ctx, userID, eventID); err == nil {
			return ErrAlreadyRegistered
		} else if !errors.Is(err, ErrNotRegistered) {
			return fmt.Errorf("check existing registration: %w", err)
		}

		reg := Registration{
			ID:        id,
			UserID:    userID,
			EventID:   eventID,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Insert(ctx, reg); err != nil {
			return err
		}
		reg.Event = event
		created = &reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("event_id", eventID).
		Msg("participant registered")
	return created, nil
}

// Unregister removes userID's registration for eventID and returns the
// deleted record's prior state. Fails with ErrNotRegistered if absent.
func (s *Service) Unregister(ctx context.Context, userID, eventID string) (*Registration, error) {
	var removed *Registration
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		reg, err := tx.Find(ctx, userID, eventID)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, reg.ID); err != nil {
			return fmt.Errorf("delete registration: %w", err)
		}
		removed = reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("event_id", eventID).
		Msg("participant unregistered")
	return removed, nil
}

// ListByEvent returns the event's registrations joined with user summaries,
// ordered by creation time ascending. Fails with ErrEventNotFound when the
// event does not exist.
func (s *Service) ListByEvent(ctx context.Context, eventID string) ([]Registration, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListByEvent(ctx, eventID)
}
