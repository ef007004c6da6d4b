package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/gatherspace/server/internal/domain/events"
	"github.com/gatherspace/server/internal/domain/ids"
	"github.com/gatherspace/server/internal/domain/validate"
	"github.com/gatherspace/server/internal/storage/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*events.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return events.NewService(store.Events(), zerolog.Nop()), store
}

func validInput() events.EventInput {
	return events.EventInput{
		Name:            "Go Meetup",
		Description:     "Monthly community meetup",
		Date:            "2026-09-12T18:00:00Z",
		Location:        "Community Hall",
		MaxParticipants: 30,
	}
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var fields validate.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields, field)
}

func TestCreateEvent(t *testing.T) {
	svc, _ := newTestService(t)

	event, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.True(t, ids.IsULID(event.ID))
	require.Equal(t, "Go Meetup", event.Name)
	require.Equal(t, 30, event.MaxParticipants)
	require.Equal(t, time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC), event.Date.UTC())
	require.Zero(t, event.ParticipantCount)
}

func TestCreateEventTrimsFields(t *testing.T) {
	svc, _ := newTestService(t)

	input := validInput()
	input.Name = "  Go Meetup  "
	input.Location = " Community Hall "

	event, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, "Go Meetup", event.Name)
	require.Equal(t, "Community Hall", event.Location)
}

func TestCreateEventValidation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*events.EventInput)
		field  string
	}{
		{"missing name", func(in *events.EventInput) { in.Name = "" }, "name"},
		{"blank name", func(in *events.EventInput) { in.Name = "   " }, "name"},
		{"missing description", func(in *events.EventInput) { in.Description = "" }, "description"},
		{"missing location", func(in *events.EventInput) { in.Location = "" }, "location"},
		{"zero capacity", func(in *events.EventInput) { in.MaxParticipants = 0 }, "maxParticipants"},
		{"negative capacity", func(in *events.EventInput) { in.MaxParticipants = -3 }, "maxParticipants"},
		{"missing date", func(in *events.EventInput) { in.Date = "" }, "date"},
		{"malformed date", func(in *events.EventInput) { in.Date = "12-09-2026" }, "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := svc.Create(context.Background(), input)
			requireFieldError(t, err, tc.field)
		})
	}
}

func TestGetByIDUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	missing, err := ids.NewULID()
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), missing)
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestListOrderedByDate(t *testing.T) {
	svc, _ := newTestService(t)

	later := validInput()
	later.Name = "Later"
	later.Date = "2026-10-01T10:00:00Z"
	_, err := svc.Create(context.Background(), later)
	require.NoError(t, err)

	sooner := validInput()
	sooner.Name = "Sooner"
	sooner.Date = "2026-09-01T10:00:00Z"
	_, err = svc.Create(context.Background(), sooner)
	require.NoError(t, err)

	listed, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, "Sooner", listed[0].Name)
	require.Equal(t, "Later", listed[1].Name)
}

func TestUpdatePartial(t *testing.T) {
	svc, _ := newTestService(t)

	event, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	name := "Renamed Meetup"
	capacity := 50
	updated, err := svc.Update(context.Background(), event.ID, events.EventUpdateInput{
		Name:            &name,
		MaxParticipants: &capacity,
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed Meetup", updated.Name)
	require.Equal(t, 50, updated.MaxParticipants)
	require.Equal(t, event.Description, updated.Description)
	require.Equal(t, event.Location, updated.Location)
}

func TestUpdateRejectsBlankName(t *testing.T) {
	svc, _ := newTestService(t)

	event, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	blank := "   "
	_, err = svc.Update(context.Background(), event.ID, events.EventUpdateInput{Name: &blank})
	requireFieldError(t, err, "name")
}

func TestUpdateRejectsMalformedDate(t *testing.T) {
	svc, _ := newTestService(t)

	event, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	bad := "next tuesday"
	_, err = svc.Update(context.Background(), event.ID, events.EventUpdateInput{Date: &bad})
	requireFieldError(t, err, "date")
}

func TestUpdateUnknownEvent(t *testing.T) {
	svc, _ := newTestService(t)

	missing, err := ids.NewULID()
	require.NoError(t, err)

	name := "anything"
	_, err = svc.Update(context.Background(), missing, events.EventUpdateInput{Name: &name})
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestDeleteRemovesEvent(t *testing.T) {
	svc, _ := newTestService(t)

	event, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), event.ID)
	require.NoError(t, err)
	require.Equal(t, event.ID, deleted.ID)

	_, err = svc.GetByID(context.Background(), event.ID)
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestDeleteUnknownEvent(t *testing.T) {
	svc, _ := newTestService(t)

	missing, err := ids.NewULID()
	require.NoError(t, err)

	_, err = svc.Delete(context.Background(), missing)
	require.ErrorIs(t, err, events.ErrNotFound)
}
