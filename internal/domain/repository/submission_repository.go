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

type SubmissionRepository interface {
	// Create inserts a submission row. The (event_id, flag_value) unique
	// constraint rejects a racing duplicate, surfaced as ErrDuplicateFlag.
	Create(ctx context.Context, s *model.Submission) error
	FlagExists(ctx context.Context, eventID int64, flagValue string) (bool, error)
	// ListByEvent returns submissions newest first.
	ListByEvent(ctx context.Context, eventID int64) ([]model.Submission, error)
	CountByEvent(ctx context.Context, eventID int64) (int, error)
	// LiveScoreboard orders by solve count only; ties are unordered.
	LiveScoreboard(ctx context.Context, eventID int64, limit int) ([]model.ScoreboardEntry, error)
	// FinalScoreboard breaks count ties by earliest first solve.
	FinalScoreboard(ctx context.Context, eventID int64, limit int) ([]model.ScoreboardEntry, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	query := `INSERT INTO flag_submissions (id, event_id, user_id, challenge, category, flag_value, submitted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.EventID, s.UserID, s.Challenge, s.Category, s.FlagValue, s.SubmittedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("flag already recorded for event %d: %w", s.EventID, common.ErrDuplicateFlag)
		}
		return fmt.Errorf("pgSubmissionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) FlagExists(ctx context.Context, eventID int64, flagValue string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM flag_submissions WHERE event_id = $1 AND flag_value = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, eventID, flagValue).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.FlagExists: %w", err)
	}
	return exists, nil
}

func (r *pgSubmissionRepository) ListByEvent(ctx context.Context, eventID int64) ([]model.Submission, error) {
	query := `SELECT id, event_id, user_id, challenge, category, flag_value, submitted_at
	          FROM flag_submissions WHERE event_id = $1 ORDER BY submitted_at DESC`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByEvent: %w", err)
	}
	defer rows.Close()

	var submissions []model.Submission
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.EventID, &s.UserID, &s.Challenge, &s.Category, &s.FlagValue, &s.SubmittedAt); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListByEvent scan: %w", err)
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

func (r *pgSubmissionRepository) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	query := `SELECT COUNT(*) FROM flag_submissions WHERE event_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgSubmissionRepository.CountByEvent: %w", err)
	}
	return count, nil
}

func (r *pgSubmissionRepository) LiveScoreboard(ctx context.Context, eventID int64, limit int) ([]model.ScoreboardEntry, error) {
	query := `SELECT user_id, COUNT(*) AS score FROM flag_submissions
	          WHERE event_id = $1 GROUP BY user_id
	          ORDER BY score DESC LIMIT $2`
	return r.scanScoreboard(ctx, query, eventID, limit, "LiveScoreboard")
}

func (r *pgSubmissionRepository) FinalScoreboard(ctx context.Context, eventID int64, limit int) ([]model.ScoreboardEntry, error) {
	query := `SELECT user_id, COUNT(*) AS score FROM flag_submissions
	          WHERE event_id = $1 GROUP BY user_id
	          ORDER BY score DESC, MIN(submitted_at) ASC LIMIT $2`
	return r.scanScoreboard(ctx, query, eventID, limit, "FinalScoreboard")
}

func (r *pgSubmissionRepository) scanScoreboard(ctx context.Context, query string, eventID int64, limit int, op string) ([]model.ScoreboardEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.%s: %w", op, err)
	}
	defer rows.Close()

	var entries []model.ScoreboardEntry
	for rows.Next() {
		var e model.ScoreboardEntry
		if err := rows.Scan(&e.UserID, &e.Score); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.%s scan: %w", op, err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
