package postgres

import (
	"context"
	"errors"

	"github.com/gatherspace/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
)

var _ events.Repository = (*EventRepository)(nil)

const eventColumns = `
e.id, e.name, e.description, e.date, e.location, e.max_participants, e.created_at,
(SELECT count(*) FROM participants p WHERE p.event_id = e.id) AS participant_count`

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO events AS e (id, name, description, date, location, max_participants)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+eventColumns,
		params.ID, params.Name, params.Description, params.Date, params.Location, params.MaxParticipants)

	event, err := scanEvent(row)
	if err != nil {
		return nil, wrapErr("insert event", err)
	}
	return event, nil
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events e
 ORDER BY e.date ASC, e.id ASC`)
	if err != nil {
		return nil, wrapErr("list events", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events e
 WHERE e.id = $1`, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, wrapErr("get event", err)
	}
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, id string, params events.UpdateParams) (*events.Event, error) {
	if params.Empty() {
		return r.GetByID(ctx, id)
	}

	row := r.queryer().QueryRow(ctx, `
UPDATE events AS e
   SET name             = COALESCE($2, name),
       description      = COALESCE($3, description),
       date             = COALESCE($4, date),
       location         = COALESCE($5, location),
       max_participants = COALESCE($6, max_participants)
 WHERE id = $1
RETURNING `+eventColumns,
		id, params.Name, params.Description, params.Date, params.Location, params.MaxParticipants)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, wrapErr("update event", err)
	}
	return event, nil
}

// Delete removes the event; the participants foreign key cascades, so no
// registration outlives its event.
func (r *EventRepository) Delete(ctx context.Context, id string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
DELETE FROM events AS e
 WHERE e.id = $1
RETURNING e.id, e.name, e.description, e.date, e.location, e.max_participants, e.created_at, 0`, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, wrapErr("delete event", err)
	}
	return event, nil
}

func (r *EventRepository) ListJoinedByUser(ctx context.Context, userID string) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events e
  JOIN participants mine ON mine.event_id = e.id AND mine.user_id = $1
 ORDER BY e.date ASC, e.id ASC`, userID)
	if err != nil {
		return nil, wrapErr("list joined events", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var e events.Event
	if err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Date, &e.Location,
		&e.MaxParticipants, &e.CreatedAt, &e.ParticipantCount,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]events.Event, error) {
	items := make([]events.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, wrapErr("scan event", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate events", err)
	}
	return items, nil
}
