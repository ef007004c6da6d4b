package participants

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventFull         = errors.New("event has reached its participant limit")
	ErrAlreadyRegistered = errors.New("user is already registered for this event")
	ErrNotRegistered     = errors.New("registration not found")
)

// EventSnapshot is the event state observed under the registration lock.
type EventSnapshot struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Date            time.Time `json:"date"`
	Location        string    `json:"location"`
	MaxParticipants int       `json:"maxParticipants"`
	CreatedAt       time.Time `json:"createdAt"`
}

// UserSummary is the projection of a user attached to listed registrations.
// It never carries the credential hash.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Registration links one user to one event. The (UserID, EventID) pair is
// unique; records are created by Register and destroyed by Unregister,
// never updated in place.
type Registration struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	EventID   string         `json:"eventId"`
	CreatedAt time.Time      `json:"createdAt"`
	Event     *EventSnapshot `json:"event,omitempty"`
	User      *UserSummary   `json:"user,omitempty"`
}

// Store is the transactional storage the engine runs against.
//
// WithTx runs fn against a Store bound to one transaction; the engine's
// check-then-act sequences only hold between LockEvent and commit.
// LockEvent must serialize concurrent callers on the same event (row lock
// in Postgres, mutex in the in-memory implementation).
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	LockEvent(ctx context.Context, eventID string) (*EventSnapshot, error)
	GetEvent(ctx context.Context, eventID string) (*EventSnapshot, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
	Find(ctx context.Context, userID, eventID string) (*Registration, error)
	Insert(ctx context.Context, reg Registration) error
	Delete(ctx context.Context, id string) error
	ListByEvent(ctx context.Context, eventID string) ([]Registration, error)
}
