package events

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("event not found")

type Event struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Date             time.Time `json:"date"`
	Location         string    `json:"location"`
	MaxParticipants  int       `json:"maxParticipants"`
	ParticipantCount int       `json:"participantCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

type CreateParams struct {
	ID              string
	Name            string
	Description     string
	Date            time.Time
	Location        string
	MaxParticipants int
}

// UpdateParams carries a partial update; nil fields are left untouched.
type UpdateParams struct {
	Name            *string
	Description     *string
	Date            *time.Time
	Location        *string
	MaxParticipants *int
}

func (p UpdateParams) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Date == nil &&
		p.Location == nil && p.MaxParticipants == nil
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Event, error)
	List(ctx context.Context) ([]Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, id string, params UpdateParams) (*Event, error)
	Delete(ctx context.Context, id string) (*Event, error)
	ListJoinedByUser(ctx context.Context, userID string) ([]Event, error)
}
