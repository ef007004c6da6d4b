package postgres

import (
	"context"
	"errors"

	"github.com/gatherspace/server/internal/domain/participants"
	"github.com/jackc/pgx/v5"
)

var _ participants.Store = (*ParticipantRepository)(nil)

// WithTx runs fn against a store bound to a single transaction. Nested
// calls reuse the outer transaction.
func (r *ParticipantRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx participants.Store) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin tx", err)
	}

	wrapped := &ParticipantRepository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit tx", err)
	}
	return nil
}

const eventSnapshotColumns = `id, name, description, date, location, max_participants, created_at`

// LockEvent reads the event under FOR UPDATE, serializing concurrent
// registration attempts on the same event for the rest of the transaction.
// Outside a transaction the lock is released immediately, so callers that
// need the serialization must go through WithTx.
func (r *ParticipantRepository) LockEvent(ctx context.Context, eventID string) (*participants.EventSnapshot, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT `+eventSnapshotColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID)
	return scanEventSnapshot(row)
}

func (r *ParticipantRepository) GetEvent(ctx context.Context, eventID string) (*participants.EventSnapshot, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT `+eventSnapshotColumns+` FROM events WHERE id = $1`, eventID)
	return scanEventSnapshot(row)
}

func (r *ParticipantRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.queryer().QueryRow(ctx,
		`SELECT count(*) FROM participants WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, wrapErr("count participants", err)
	}
	return count, nil
}

func (r *ParticipantRepository) Find(ctx context.Context, userID, eventID string) (*participants.Registration, error) {
	var reg participants.Registration
	err := r.queryer().QueryRow(ctx, `
SELECT id, user_id, event_id, created_at
  FROM participants
 WHERE user_id = $1 AND event_id = $2`, userID, eventID).
		Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, participants.ErrNotRegistered
		}
		return nil, wrapErr("find registration", err)
	}
	return &reg, nil
}

func (r *ParticipantRepository) Insert(ctx context.Context, reg participants.Registration) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO participants (id, user_id, event_id, created_at)
VALUES ($1, $2, $3, $4)`,
		reg.ID, reg.UserID, reg.EventID, reg.CreatedAt)
	if err != nil {
		if uniqueViolation(err, "participants_user_id_event_id_key") {
			return participants.ErrAlreadyRegistered
		}
		return wrapErr("insert registration", err)
	}
	return nil
}

func (r *ParticipantRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete registration", err)
	}
	if tag.RowsAffected() == 0 {
		return participants.ErrNotRegistered
	}
	return nil
}

func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID string) ([]participants.Registration, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT p.id, p.user_id, p.event_id, p.created_at, u.id, u.username, u.email
  FROM participants p
  JOIN users u ON u.id = p.user_id
 WHERE p.event_id = $1
 ORDER BY p.created_at ASC, p.id ASC`, eventID)
	if err != nil {
		return nil, wrapErr("list participants", err)
	}
	defer rows.Close()

	items := make([]participants.Registration, 0)
	for rows.Next() {
		var reg participants.Registration
		var user participants.UserSummary
		if err := rows.Scan(
			&reg.ID, &reg.UserID, &reg.EventID, &reg.CreatedAt,
			&user.ID, &user.Username, &user.Email,
		); err != nil {
			return nil, wrapErr("scan registration", err)
		}
		reg.User = &user
		items = append(items, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate registrations", err)
	}
	return items, nil
}

func scanEventSnapshot(row pgx.Row) (*participants.EventSnapshot, error) {
	var snap participants.EventSnapshot
	if err := row.Scan(
		&snap.ID, &snap.Name, &snap.Description, &snap.Date,
		&snap.Location, &snap.MaxParticipants, &snap.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, participants.ErrEventNotFound
		}
		return nil, wrapErr("get event", err)
	}
	return &snap, nil
}
