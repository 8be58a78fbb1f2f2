package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/crownstage/pageant-system/models"
	"github.com/lib/pq"
)

var (
	ErrCompetitionNotFound     = errors.New("competition not found")
	ErrCompetitionNameConflict = errors.New("competition name conflict for this host")
	ErrCompetitionInUse        = errors.New("competition is in use (contestants/nominees exist)")
	ErrCompetitionInvalidHost  = errors.New("invalid host reference")

	// ErrStatusConflict: условное обновление статуса не нашло строку с
	// ожидаемым статусом. Ожидаемый исход конкурентной оценки, не сбой.
	ErrStatusConflict = errors.New("competition status changed concurrently")
)

type ListCompetitionsFilter struct {
	HostID *int
	Status *models.CompetitionStatus
	Limit  int
	Offset int
}

type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	List(ctx context.Context, filter ListCompetitionsFilter) ([]models.Competition, error)
	Update(ctx context.Context, exec SQLExecutor, competition *models.Competition) error
	// UpdateStatusIf — compare-and-swap: статус меняется, только если в БД
	// всё ещё expected. Несовпадение — ErrStatusConflict.
	UpdateStatusIf(ctx context.Context, exec SQLExecutor, id int, expected, next models.CompetitionStatus) error
	Delete(ctx context.Context, id int) error
	UpdateCoverKey(ctx context.Context, competitionID int, coverKey *string) error
	AddVoteRevenue(ctx context.Context, exec SQLExecutor, competitionID int, amount float64) error
	ListForAutoStatusUpdate(ctx context.Context, exec SQLExecutor, currentTime time.Time) ([]*models.Competition, error)
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

func (r *postgresCompetitionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const competitionColumns = `
	id, name, description, host_id, status,
	nomination_start, nomination_end, voting_start, voting_end, finale_date,
	prize_pool_minimum, price_per_vote, use_vote_bundler, allow_manual_votes,
	number_of_winners, vote_revenue, created_at, cover_key`

func scanCompetition(row interface{ Scan(dest ...interface{}) error }, c *models.Competition) error {
	return row.Scan(
		&c.ID, &c.Name, &c.Description, &c.HostID, &c.Status,
		&c.NominationStart, &c.NominationEnd, &c.VotingStart, &c.VotingEnd, &c.FinaleDate,
		&c.PrizePoolMinimum, &c.PricePerVote, &c.UseVoteBundler, &c.AllowManualVotes,
		&c.NumberOfWinners, &c.VoteRevenue, &c.CreatedAt, &c.CoverKey,
	)
}

func (r *postgresCompetitionRepository) Create(ctx context.Context, c *models.Competition) error {
	executor := r.getExecutor(nil)
	query := `
		INSERT INTO competitions (
			name, description, host_id, status,
			nomination_start, nomination_end, voting_start, voting_end, finale_date,
			prize_pool_minimum, price_per_vote, use_vote_bundler, allow_manual_votes,
			number_of_winners, cover_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		c.Name, c.Description, c.HostID, c.Status,
		c.NominationStart, c.NominationEnd, c.VotingStart, c.VotingEnd, c.FinaleDate,
		c.PrizePoolMinimum, c.PricePerVote, c.UseVoteBundler, c.AllowManualVotes,
		c.NumberOfWinners, c.CoverKey,
	).Scan(&c.ID, &c.CreatedAt)

	return r.handleCompetitionError(err)
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	executor := r.getExecutor(nil)
	query := `SELECT` + competitionColumns + ` FROM competitions WHERE id = $1`

	c := &models.Competition{}
	err := scanCompetition(executor.QueryRowContext(ctx, query, id), c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCompetitionRepository) List(ctx context.Context, filter ListCompetitionsFilter) ([]models.Competition, error) {
	executor := r.getExecutor(nil)
	query := `SELECT` + competitionColumns + ` FROM competitions WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.HostID != nil {
		query += fmt.Sprintf(" AND host_id = $%d", argID)
		args = append(args, *filter.HostID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY nomination_start DESC NULLS LAST, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	competitions := make([]models.Competition, 0)
	for rows.Next() {
		var c models.Competition
		if scanErr := scanCompetition(rows, &c); scanErr != nil {
			return nil, scanErr
		}
		competitions = append(competitions, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return competitions, nil
}

func (r *postgresCompetitionRepository) Update(ctx context.Context, exec SQLExecutor, c *models.Competition) error {
	executor := r.getExecutor(exec)
	// cover_key и vote_revenue обновляются своими методами. status пишется
	// только через UpdateStatusIf: общая запись не должна перетирать
	// конкурентный переход статуса.
	query := `
		UPDATE competitions SET
			name = $1,
			description = $2,
			nomination_start = $3,
			nomination_end = $4,
			voting_start = $5,
			voting_end = $6,
			finale_date = $7,
			prize_pool_minimum = $8,
			price_per_vote = $9,
			use_vote_bundler = $10,
			allow_manual_votes = $11,
			number_of_winners = $12
		WHERE id = $13`

	result, err := executor.ExecContext(ctx, query,
		c.Name, c.Description,
		c.NominationStart, c.NominationEnd, c.VotingStart, c.VotingEnd, c.FinaleDate,
		c.PrizePoolMinimum, c.PricePerVote, c.UseVoteBundler, c.AllowManualVotes,
		c.NumberOfWinners,
		c.ID,
	)

	if err != nil {
		return r.handleCompetitionError(err)
	}

	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) UpdateStatusIf(ctx context.Context, exec SQLExecutor, id int, expected, next models.CompetitionStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE competitions SET status = $1 WHERE id = $2 AND status = $3`
	result, err := executor.ExecContext(ctx, query, next, id, expected)
	if err != nil {
		return r.handleCompetitionError(err)
	}
	// 0 строк: либо конкурс исчез, либо статус уже сменили конкурентно.
	// Для вызывающей стороны оба случая означают "переход не наш".
	return checkAffectedRows(result, ErrStatusConflict)
}

func (r *postgresCompetitionRepository) UpdateCoverKey(ctx context.Context, competitionID int, coverKey *string) error {
	executor := r.getExecutor(nil)
	query := `UPDATE competitions SET cover_key = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, coverKey, competitionID)
	if err != nil {
		return fmt.Errorf("failed to update competition cover key: %w", err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) AddVoteRevenue(ctx context.Context, exec SQLExecutor, competitionID int, amount float64) error {
	executor := r.getExecutor(exec)
	query := `UPDATE competitions SET vote_revenue = vote_revenue + $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, amount, competitionID)
	if err != nil {
		return fmt.Errorf("failed to add vote revenue for competition %d: %w", competitionID, err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) Delete(ctx context.Context, id int) error {
	executor := r.getExecutor(nil)
	query := `DELETE FROM competitions WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleCompetitionError(err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

// ListForAutoStatusUpdate выбирает кандидатов на автопереход: published с
// открывшимся окном номинаций и live/active с наступившим финалом.
func (r *postgresCompetitionRepository) ListForAutoStatusUpdate(ctx context.Context, exec SQLExecutor, currentTime time.Time) ([]*models.Competition, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT` + competitionColumns + `
		FROM competitions
		WHERE
			(status = $1 AND nomination_start IS NOT NULL AND nomination_start <= $2)
			OR (status IN ($3, $4) AND finale_date IS NOT NULL AND finale_date <= $2)`
	args := []interface{}{
		models.StatusPublished, // $1
		currentTime,            // $2
		models.StatusLive,      // $3
		models.StatusActive,    // $4
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitions for auto status update: %w", err)
	}
	defer rows.Close()

	var competitions []*models.Competition
	for rows.Next() {
		var c models.Competition
		if scanErr := scanCompetition(rows, &c); scanErr != nil {
			return nil, fmt.Errorf("failed to scan competition for auto status update: %w", scanErr)
		}
		competitions = append(competitions, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during competition rows iteration for auto status update: %w", err)
	}
	return competitions, nil
}

func (r *postgresCompetitionRepository) handleCompetitionError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "competitions_host_id_name_key" {
				return ErrCompetitionNameConflict
			}
		case "23503":
			switch pqErr.Constraint {
			case "competitions_host_id_fkey":
				return ErrCompetitionInvalidHost
			default:
				// FK из contestants/nominees/voting_rounds на competitions:
				// конкурс нельзя удалить, пока на него ссылаются.
				return ErrCompetitionInUse
			}
		}
	}
	return err
}
