// Package memory implements the domain store interfaces on in-process maps.
// It backs unit tests so domain and handler logic can run without Postgres.
//
// ParticipantStore.WithTx serializes callers with a single mutex, which is
// the "serialize registration attempts" half of the registration engine's
// race policy. It does not roll back partial writes; the engine's
// transactional sequences only mutate state as their final step, so error
// paths leave nothing behind.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gatherspace/server/internal/domain/events"
	"github.com/gatherspace/server/internal/domain/participants"
	"github.com/gatherspace/server/internal/domain/users"
)

type Store struct {
	mu    sync.Mutex
	users map[string]users.User
	evts  map[string]events.Event
	regs  map[string]participants.Registration
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]users.User),
		evts:  make(map[string]events.Event),
		regs:  make(map[string]participants.Registration),
	}
}

func (s *Store) Users() *UserStore               { return &UserStore{db: s} }
func (s *Store) Events() *EventStore             { return &EventStore{db: s} }
func (s *Store) Participants() *ParticipantStore { return &ParticipantStore{db: s} }

type UserStore struct {
	db *Store
}

var _ users.Repository = (*UserStore)(nil)

func (s *UserStore) Create(_ context.Context, params users.CreateParams) (*users.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, params.Email) {
			return nil, users.ErrEmailTaken
		}
		if u.Username == params.Username {
			return nil, users.ErrUsernameTaken
		}
	}

	user := users.User{
		ID:           params.ID,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    now(),
	}
	s.db.users[user.ID] = user
	return &user, nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*users.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u, ok := s.db.users[id]; ok {
		return &u, nil
	}
	return nil, users.ErrNotFound
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*users.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, users.ErrNotFound
}

func (s *UserStore) GetByUsername(_ context.Context, username string) (*users.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, users.ErrNotFound
}

type EventStore struct {
	db *Store
}

var _ events.Repository = (*EventStore)(nil)

func (s *EventStore) Create(_ context.Context, params events.CreateParams) (*events.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	event := events.Event{
		ID:              params.ID,
		Name:            params.Name,
		Description:     params.Description,
		Date:            params.Date,
		Location:        params.Location,
		MaxParticipants: params.MaxParticipants,
		CreatedAt:       now(),
	}
	s.db.evts[event.ID] = event
	return &event, nil
}

func (s *EventStore) List(_ context.Context) ([]events.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	items := make([]events.Event, 0, len(s.db.evts))
	for _, e := range s.db.evts {
		e.ParticipantCount = s.db.countLocked(e.ID)
		items = append(items, e)
	}
	sortEvents(items)
	return items, nil
}

func (s *EventStore) GetByID(_ context.Context, id string) (*events.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e, ok := s.db.evts[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	e.ParticipantCount = s.db.countLocked(id)
	return &e, nil
}

func (s *EventStore) Update(_ context.Context, id string, params events.UpdateParams) (*events.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e, ok := s.db.evts[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	if params.Name != nil {
		e.Name = *params.Name
	}
	if params.Description != nil {
		e.Description = *params.Description
	}
	if params.Date != nil {
		e.Date = *params.Date
	}
	if params.Location != nil {
		e.Location = *params.Location
	}
	if params.MaxParticipants != nil {
		e.MaxParticipants = *params.MaxParticipants
	}
	s.db.evts[id] = e
	e.ParticipantCount = s.db.countLocked(id)
	return &e, nil
}

func (s *EventStore) Delete(_ context.Context, id string) (*events.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e, ok := s.db.evts[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	delete(s.db.evts, id)
	for regID, reg := range s.db.regs {
		if reg.EventID == id {
			delete(s.db.regs, regID)
		}
	}
	return &e, nil
}

func (s *EventStore) ListJoinedByUser(_ context.Context, userID string) ([]events.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	items := make([]events.Event, 0)
	for _, reg := range s.db.regs {
		if reg.UserID != userID {
			continue
		}
		if e, ok := s.db.evts[reg.EventID]; ok {
			e.ParticipantCount = s.db.countLocked(e.ID)
			items = append(items, e)
		}
	}
	sortEvents(items)
	return items, nil
}

type ParticipantStore struct {
	db   *Store
	inTx bool
}

var _ participants.Store = (*ParticipantStore)(nil)

func (s *ParticipantStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx participants.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(ctx, &ParticipantStore{db: s.db, inTx: true})
}

func (s *ParticipantStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

func (s *ParticipantStore) LockEvent(_ context.Context, eventID string) (*participants.EventSnapshot, error) {
	defer s.lock()()
	return s.db.snapshotLocked(eventID)
}

func (s *ParticipantStore) GetEvent(_ context.Context, eventID string) (*participants.EventSnapshot, error) {
	defer s.lock()()
	return s.db.snapshotLocked(eventID)
}

func (s *ParticipantStore) CountByEvent(_ context.Context, eventID string) (int, error) {
	defer s.lock()()
	return s.db.countLocked(eventID), nil
}

func (s *ParticipantStore) Find(_ context.Context, userID, eventID string) (*participants.Registration, error) {
	defer s.lock()()
	for _, reg := range s.db.regs {
		if reg.UserID == userID && reg.EventID == eventID {
			reg.Event = nil
			reg.User = nil
			return &reg, nil
		}
	}
	return nil, participants.ErrNotRegistered
}

func (s *ParticipantStore) Insert(_ context.Context, reg participants.Registration) error {
	defer s.lock()()
	for _, existing := range s.db.regs {
		if existing.UserID == reg.UserID && existing.EventID == reg.EventID {
			return participants.ErrAlreadyRegistered
		}
	}
	reg.Event = nil
	reg.User = nil
	s.db.regs[reg.ID] = reg
	return nil
}

func (s *ParticipantStore) Delete(_ context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.db.regs[id]; !ok {
		return participants.ErrNotRegistered
	}
	delete(s.db.regs, id)
	return nil
}

func (s *ParticipantStore) ListByEvent(_ context.Context, eventID string) ([]participants.Registration, error) {
	defer s.lock()()
	items := make([]participants.Registration, 0)
	for _, reg := range s.db.regs {
		if reg.EventID != eventID {
			continue
		}
		if u, ok := s.db.users[reg.UserID]; ok {
			reg.User = &participants.UserSummary{
				ID:       u.ID,
				Username: u.Username,
				Email:    u.Email,
			}
		}
		items = append(items, reg)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) snapshotLocked(eventID string) (*participants.EventSnapshot, error) {
	e, ok := s.evts[eventID]
	if !ok {
		return nil, participants.ErrEventNotFound
	}
	return &participants.EventSnapshot{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		Date:            e.Date,
		Location:        e.Location,
		MaxParticipants: e.MaxParticipants,
		CreatedAt:       e.CreatedAt,
	}, nil
}

func (s *Store) countLocked(eventID string) int {
	count := 0
	for _, reg := range s.regs {
		if reg.EventID == eventID {
			count++
		}
	}
	return count
}

func now() time.Time {
	return time.Now().UTC()
}

func sortEvents(items []events.Event) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Date.Equal(items[j].Date) {
			return items[i].ID < items[j].ID
		}
		return items[i].Date.Before(items[j].Date)
	})
}
