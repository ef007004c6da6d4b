package participants_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gatherspace/server/internal/domain/events"
	"github.com/gatherspace/server/internal/domain/ids"
	"github.com/gatherspace/server/internal/domain/participants"
	"github.com/gatherspace/server/internal/domain/users"
	"github.com/gatherspace/server/internal/storage/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*participants.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return participants.NewService(store.Participants(), zerolog.Nop()), store
}

func seedUser(t *testing.T, store *memory.Store, username string) *users.User {
	t.Helper()
	id, err := ids.NewULID()
	require.NoError(t, err)
	user, err := store.Users().Create(context.Background(), users.CreateParams{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return user
}

func seedEvent(t *testing.T, store *memory.Store, maxParticipants int) *events.Event {
	t.Helper()
	id, err := ids.NewULID()
	require.NoError(t, err)
	event, err := store.Events().Create(context.Background(), events.CreateParams{
		ID:              id,
		Name:            "Go Meetup",
		Description:     "Monthly meetup",
		Date:            time.Now().Add(48 * time.Hour).UTC(),
		Location:        "Community Hall",
		MaxParticipants: maxParticipants,
	})
	require.NoError(t, err)
	return event
}

func TestRegisterRoundTrip(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice")
	event := seedEvent(t, store, 10)

	reg, err := svc.Register(context.Background(), user.ID, event.ID)
	require.NoError(t, err)
	require.True(t, ids.IsULID(reg.ID))
	require.Equal(t, user.ID, reg.UserID)
	require.Equal(t, event.ID, reg.EventID)
	require.False(t, reg.CreatedAt.IsZero())
	require.NotNil(t, reg.Event)
	require.Equal(t, event.Name, reg.Event.Name)

	listed, err := svc.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, reg.ID, listed[0].ID)
	require.NotNil(t, listed[0].User)
	require.Equal(t, "alice", listed[0].User.Username)
}

func TestRegisterUnknownEvent(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice")

	missing, err := ids.NewULID()
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), user.ID, missing)
	require.ErrorIs(t, err, participants.ErrEventNotFound)
}

func TestRegisterTwiceSameEvent(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice")
	event := seedEvent(t, store, 10)

	_, err := svc.Register(context.Background(), user.ID, event.ID)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), user.ID, event.ID)
	require.ErrorIs(t, err, participants.ErrAlreadyRegistered)

	listed, err := svc.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestRegisterSameUserDifferentEvents(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice")
	first := seedEvent(t, store, 5)
	second := seedEvent(t, store, 5)

	_, err := svc.Register(context.Background(), user.ID, first.ID)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), user.ID, second.ID)
	require.NoError(t, err)
}

func TestRegisterFullEvent(t *testing.T) {
	svc, store := newTestService(t)
	event := seedEvent(t, store, 2)

	for i := 0; i < 2; i++ {
		user := seedUser(t, store, fmt.Sprintf("user%d", i))
		_, err := svc.Register(context.Background(), user.ID, event.ID)
		require.NoError(t, err)
	}

	late := seedUser(t, store, "late")
	_, err := svc.Register(context.Background(), late.ID, event.ID)
	require.ErrorIs(t, err, participants.ErrEventFull)
}

func TestConcurrentRegistrationRespectsCapacity(t *testing.T) {
	const capacity = 5
	const contenders = 12

	svc, store := newTestService(t)
	event := seedEvent(t, store, capacity)

	userIDs := make([]string, contenders)
	for i := range userIDs {
		userIDs[i] = seedUser(t, store, fmt.Sprintf("user%d", i)).ID
	}

	results := make(chan error, contenders)
	var wg sync.WaitGroup
	for _, userID := range userIDs {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := svc.Register(context.Background(), userID, event.ID)
			results <- err
		}(userID)
	}
	wg.Wait()
	close(results)

	succeeded, full := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, participants.ErrEventFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, capacity, succeeded)
	require.Equal(t, contenders-capacity, full)

	listed, err := svc.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, listed, capacity)
}

func TestUnregisterReturnsPriorState(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice")
	event := seedEvent(t, store, 10)

	reg, err := svc.Register(context.Background(), user.ID, event.ID)
	require.NoError(t, err)

	removed, err := svc.Unregister(context.Background(), user.ID, event.ID)
	require.NoError(t, err)
	require.Equal(t, reg.ID, removed.ID)
	require.Equal(t, user.ID, removed.UserID)
	require.Equal(t, event.ID, removed.EventID)

	listed, err := svc.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestUnregisterTwice(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice")
	event := seedEvent(t, store, 10)

	_, err := svc.Register(context.Background(), user.ID, event.ID)
	require.NoError(t, err)
	_, err = svc.Unregister(context.Background(), user.ID, event.ID)
	require.NoError(t, err)

	_, err = svc.Unregister(context.Background(), user.ID, event.ID)
	require.ErrorIs(t, err, participants.ErrNotRegistered)
}

func TestUnregisterFreesCapacity(t *testing.T) {
	svc, store := newTestService(t)
	event := seedEvent(t, store, 1)
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	_, err := svc.Register(context.Background(), alice.ID, event.ID)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), bob.ID, event.ID)
	require.ErrorIs(t, err, participants.ErrEventFull)

	_, err = svc.Unregister(context.Background(), alice.ID, event.ID)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), bob.ID, event.ID)
	require.NoError(t, err)
}

func TestListByEventUnknownEvent(t *testing.T) {
	svc, _ := newTestService(t)

	missing, err := ids.NewULID()
	require.NoError(t, err)

	_, err = svc.ListByEvent(context.Background(), missing)
	require.ErrorIs(t, err, participants.ErrEventNotFound)
}

func TestListByEventOrderedByRegistrationTime(t *testing.T) {
	svc, store := newTestService(t)
	event := seedEvent(t, store, 10)

	var regIDs []string
	for i := 0; i < 3; i++ {
		user := seedUser(t, store, fmt.Sprintf("user%d", i))
		reg, err := svc.Register(context.Background(), user.ID, event.ID)
		require.NoError(t, err)
		regIDs = append(regIDs, reg.ID)
		time.Sleep(time.Millisecond)
	}

	listed, err := svc.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for i, reg := range listed {
		require.Equal(t, regIDs[i], reg.ID)
	}
}
