package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ctfbot/internal/common"
	"ctfbot/internal/domain/model"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	FindByID(ctx context.Context, id int64) (*model.Event, error)
	// FindByName resolves case-insensitively; duplicate names resolve to
	// the most recently created event (highest id).
	FindByName(ctx context.Context, name string) (*model.Event, error)
	// FindLatest returns the most recently created event of any status.
	FindLatest(ctx context.Context) (*model.Event, error)
	// MarkEnded is idempotent: re-ending an ended event is a no-op.
	MarkEnded(ctx context.Context, id int64) error
	SaveResourceRefs(ctx context.Context, id int64, roleID, roomChannelID, logChannelID string) error
}

type pgEventRepository struct {
	db *sql.DB
}

func NewPgEventRepository(db *sql.DB) EventRepository {
	return &pgEventRepository{db: db}
}

const eventColumns = `id, name, url, format, start_at, end_at, status, role_id, room_channel_id, log_channel_id, created_at`

func (r *pgEventRepository) Create(ctx context.Context, event *model.Event) error {
	query := `INSERT INTO ctf_events (name, url, format, start_at, end_at, status)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		event.Name, event.URL, event.Format, event.StartAt, event.EndAt, event.Status,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgEventRepository.Create: %w", err)
	}
	return nil
}

func (r *pgEventRepository) FindByID(ctx context.Context, id int64) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM ctf_events WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), "FindByID")
}

func (r *pgEventRepository) FindByName(ctx context.Context, name string) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM ctf_events
	          WHERE LOWER(name) = LOWER($1)
	          ORDER BY id DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, name), "FindByName")
}

func (r *pgEventRepository) FindLatest(ctx context.Context) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM ctf_events ORDER BY id DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query), "FindLatest")
}

func (r *pgEventRepository) MarkEnded(ctx context.Context, id int64) error {
	query := `UPDATE ctf_events SET status = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, model.StatusEnded, id)
	if err != nil {
		return fmt.Errorf("pgEventRepository.MarkEnded: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgEventRepository) SaveResourceRefs(ctx context.Context, id int64, roleID, roomChannelID, logChannelID string) error {
	query := `UPDATE ctf_events SET role_id = $1, room_channel_id = $2, log_channel_id = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, roleID, roomChannelID, logChannelID, id); err != nil {
		return fmt.Errorf("pgEventRepository.SaveResourceRefs: %w", err)
	}
	return nil
}

func (r *pgEventRepository) scanOne(row *sql.Row, op string) (*model.Event, error) {
	event := &model.Event{}
	err := row.Scan(
		&event.ID, &event.Name, &event.URL, &event.Format,
		&event.StartAt, &event.EndAt, &event.Status,
		&event.RoleID, &event.RoomChannelID, &event.LogChannelID,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgEventRepository.%s: %w", op, err)
	}
	return event, nil
}
