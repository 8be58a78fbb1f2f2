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
	ErrRoundNotFound           = errors.New("voting round not found")
	ErrRoundOrderConflict      = errors.New("voting round order conflict for this competition")
	ErrRoundCompetitionInvalid = errors.New("invalid competition reference for voting round")
)

type VotingRoundRepository interface {
	ListByCompetition(ctx context.Context, competitionID int) ([]models.VotingRound, error)
	// ReplaceAll атомарно заменяет весь набор раундов конкурса: таблица
	// раундов всегда валидируется и сохраняется целиком.
	ReplaceAll(ctx context.Context, exec SQLExecutor, competitionID int, rounds []models.VotingRound) error
	DeleteByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) error
}

type postgresVotingRoundRepository struct {
	db *sql.DB
}

func NewPostgresVotingRoundRepository(db *sql.DB) VotingRoundRepository {
	return &postgresVotingRoundRepository{db: db}
}

func (r *postgresVotingRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresVotingRoundRepository) ListByCompetition(ctx context.Context, competitionID int) ([]models.VotingRound, error) {
	executor := r.getExecutor(nil)
	query := `
		SELECT id, competition_id, round_order, start_date, end_date, contestants_advance
		FROM voting_rounds
		WHERE competition_id = $1
		ORDER BY round_order ASC`

	rows, err := executor.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rounds := make([]models.VotingRound, 0)
	for rows.Next() {
		var vr models.VotingRound
		if scanErr := rows.Scan(
			&vr.ID, &vr.CompetitionID, &vr.RoundOrder, &vr.StartDate, &vr.EndDate, &vr.ContestantsAdvance,
		); scanErr != nil {
			return nil, scanErr
		}
		rounds = append(rounds, vr)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return rounds, nil
}

func (r *postgresVotingRoundRepository) ReplaceAll(ctx context.Context, exec SQLExecutor, competitionID int, rounds []models.VotingRound) error {
	executor := r.getExecutor(exec)

	if err := r.DeleteByCompetition(ctx, executor, competitionID); err != nil {
		return err
	}

	query := `
		INSERT INTO voting_rounds (competition_id, round_order, start_date, end_date, contestants_advance)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	for i := range rounds {
		rounds[i].CompetitionID = competitionID
		err := executor.QueryRowContext(ctx, query,
			competitionID, rounds[i].RoundOrder, rounds[i].StartDate, rounds[i].EndDate, rounds[i].ContestantsAdvance,
		).Scan(&rounds[i].ID)
		if err != nil {
			return r.handleRoundError(err)
		}
	}

	return nil
}

func (r *postgresVotingRoundRepository) DeleteByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM voting_rounds WHERE competition_id = $1`, competitionID)
	if err != nil {
		return fmt.Errorf("failed to delete voting rounds for competition %d: %w", competitionID, err)
	}
	return nil
}

func (r *postgresVotingRoundRepository) handleRoundError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "voting_rounds_competition_id_round_order_key" {
				return ErrRoundOrderConflict
			}
		case "23503":
			if pqErr.Constraint == "voting_rounds_competition_id_fkey" {
				return ErrRoundCompetitionInvalid
			}
		}
	}
	return err
}
