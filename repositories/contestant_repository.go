package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crownstage/pageant-system/models"
	"github.com/lib/pq"
)

var (
	ErrContestantNotFound           = errors.New("contestant not found")
	ErrContestantCompetitionInvalid = errors.New("invalid competition reference for contestant")

	// ErrContestantSourceConflict: уникальный индекс по source_nominee_id.
	// Гарантия "ровно один участник на номинанта" держится на БД, а не на
	// клиентском read-then-write.
	ErrContestantSourceConflict = errors.New("contestant for this nominee already exists")
)

type ContestantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, contestant *models.Contestant) error
	GetByID(ctx context.Context, id int) (*models.Contestant, error)
	GetBySourceNomineeID(ctx context.Context, nomineeID int) (*models.Contestant, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]models.Contestant, error)
	// AddVotes атомарно увеличивает счётчик голосов и возвращает новый итог.
	AddVotes(ctx context.Context, exec SQLExecutor, id, delta int) (int, error)
	// SetVotes — административная корректировка счётчика.
	SetVotes(ctx context.Context, id, votes int) error
	UpdatePhotoKey(ctx context.Context, contestantID int, photoKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresContestantRepository struct {
	db *sql.DB
}

func NewPostgresContestantRepository(db *sql.DB) ContestantRepository {
	return &postgresContestantRepository{db: db}
}

func (r *postgresContestantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresContestantRepository) Create(ctx context.Context, exec SQLExecutor, c *models.Contestant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO contestants (competition_id, name, votes, source_nominee_id, photo_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		c.CompetitionID, c.Name, c.Votes, c.SourceNomineeID, c.PhotoKey,
	).Scan(&c.ID, &c.CreatedAt)

	return r.handleContestantError(err)
}

func (r *postgresContestantRepository) GetByID(ctx context.Context, id int) (*models.Contestant, error) {
	executor := r.getExecutor(nil)
	query := `
		SELECT id, competition_id, name, votes, source_nominee_id, photo_key, created_at
		FROM contestants
		WHERE id = $1`

	c := &models.Contestant{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.CompetitionID, &c.Name, &c.Votes, &c.SourceNomineeID, &c.PhotoKey, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContestantNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresContestantRepository) GetBySourceNomineeID(ctx context.Context, nomineeID int) (*models.Contestant, error) {
	executor := r.getExecutor(nil)
	query := `
		SELECT id, competition_id, name, votes, source_nominee_id, photo_key, created_at
		FROM contestants
		WHERE source_nominee_id = $1`

	c := &models.Contestant{}
	err := executor.QueryRowContext(ctx, query, nomineeID).Scan(
		&c.ID, &c.CompetitionID, &c.Name, &c.Votes, &c.SourceNomineeID, &c.PhotoKey, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContestantNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresContestantRepository) ListByCompetition(ctx context.Context, competitionID int) ([]models.Contestant, error) {
	executor := r.getExecutor(nil)
	query := `
		SELECT id, competition_id, name, votes, source_nominee_id, photo_key, created_at
		FROM contestants
		WHERE competition_id = $1
		ORDER BY votes DESC, created_at ASC`

	rows, err := executor.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contestants := make([]models.Contestant, 0)
	for rows.Next() {
		var c models.Contestant
		if scanErr := rows.Scan(
			&c.ID, &c.CompetitionID, &c.Name, &c.Votes, &c.SourceNomineeID, &c.PhotoKey, &c.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		contestants = append(contestants, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return contestants, nil
}

func (r *postgresContestantRepository) AddVotes(ctx context.Context, exec SQLExecutor, id, delta int) (int, error) {
	executor := r.getExecutor(exec)
	query := `UPDATE contestants SET votes = votes + $1 WHERE id = $2 RETURNING votes`

	var votes int
	err := executor.QueryRowContext(ctx, query, delta, id).Scan(&votes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrContestantNotFound
		}
		return 0, fmt.Errorf("failed to add votes for contestant %d: %w", id, err)
	}
	return votes, nil
}

func (r *postgresContestantRepository) SetVotes(ctx context.Context, id, votes int) error {
	executor := r.getExecutor(nil)
	query := `UPDATE contestants SET votes = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, votes, id)
	if err != nil {
		return fmt.Errorf("failed to set votes for contestant %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrContestantNotFound)
}

func (r *postgresContestantRepository) UpdatePhotoKey(ctx context.Context, contestantID int, photoKey *string) error {
	executor := r.getExecutor(nil)
	query := `UPDATE contestants SET photo_key = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, photoKey, contestantID)
	if err != nil {
		return fmt.Errorf("failed to update contestant photo key: %w", err)
	}
	return checkAffectedRows(result, ErrContestantNotFound)
}

func (r *postgresContestantRepository) Delete(ctx context.Context, id int) error {
	executor := r.getExecutor(nil)
	query := `DELETE FROM contestants WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleContestantError(err)
	}
	return checkAffectedRows(result, ErrContestantNotFound)
}

func (r *postgresContestantRepository) handleContestantError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "contestants_source_nominee_id_key" {
				return ErrContestantSourceConflict
			}
		case "23503":
			if pqErr.Constraint == "contestants_competition_id_fkey" {
				return ErrContestantCompetitionInvalid
			}
		}
	}
	return err
}
