package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ctfbot/internal/common"
	"ctfbot/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type MembershipRepository interface {
	// Create inserts a membership row. The (event_id, user_id) primary key
	// rejects a racing duplicate join, surfaced as ErrAlreadyJoined.
	Create(ctx context.Context, m *model.Membership) error
	Exists(ctx context.Context, eventID int64, userID string) (bool, error)
	CountByEvent(ctx context.Context, eventID int64) (int, error)
}

type pgMembershipRepository struct {
	db *sql.DB
}

func NewPgMembershipRepository(db *sql.DB) MembershipRepository {
	return &pgMembershipRepository{db: db}
}

func (r *pgMembershipRepository) Create(ctx context.Context, m *model.Membership) error {
	query := `INSERT INTO memberships (event_id, user_id, joined_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, m.EventID, m.UserID, m.JoinedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("user %s already joined event %d: %w", m.UserID, m.EventID, common.ErrAlreadyJoined)
		}
		return fmt.Errorf("pgMembershipRepository.Create: %w", err)
	}
	return nil
}

func (r *pgMembershipRepository) Exists(ctx context.Context, eventID int64, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM memberships WHERE event_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, eventID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgMembershipRepository.Exists: %w", err)
	}
	return exists, nil
}

func (r *pgMembershipRepository) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	query := `SELECT COUNT(*) FROM memberships WHERE event_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgMembershipRepository.CountByEvent: %w", err)
	}
	return count, nil
}
