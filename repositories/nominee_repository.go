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
	ErrNomineeNotFound           = errors.New("nominee not found")
	ErrNomineeTokenConflict      = errors.New("nominee invite token conflict")
	ErrNomineeCompetitionInvalid = errors.New("invalid competition reference for nominee")

	// ErrNomineeStatusConflict: условный переход статуса не нашёл строку
	// с ожидаемым статусом — другой админ успел раньше.
	ErrNomineeStatusConflict = errors.New("nominee status changed concurrently")
)

type NomineeRepository interface {
	Create(ctx context.Context, nominee *models.Nominee) error
	GetByID(ctx context.Context, id int) (*models.Nominee, error)
	GetByInviteToken(ctx context.Context, token string) (*models.Nominee, error)
	// ListActive возвращает номинантов конкурса без терминальных статусов:
	// отклонённые остаются в хранилище, но не попадают в активные выборки.
	ListActive(ctx context.Context, competitionID int) ([]models.Nominee, error)
	ListByStatus(ctx context.Context, competitionID int, status models.NomineeStatus) ([]models.Nominee, error)
	// UpdateStatusIf — compare-and-swap перехода статуса.
	UpdateStatusIf(ctx context.Context, exec SQLExecutor, id int, expected, next models.NomineeStatus) error
	// CompleteProfileIf записывает поля анкеты и переводит статус одним
	// условным обновлением: при несовпадении статуса не меняется ничего.
	CompleteProfileIf(ctx context.Context, nominee *models.Nominee, expected, next models.NomineeStatus) error
	SetInviteToken(ctx context.Context, id int, token string) error
	MarkClaimed(ctx context.Context, id int, claimedAt time.Time) error
	// MarkConverted проставляет обратную ссылку на участника, только если
	// она ещё не была проставлена.
	MarkConverted(ctx context.Context, exec SQLExecutor, id, contestantID int) error
}

type postgresNomineeRepository struct {
	db *sql.DB
}

func NewPostgresNomineeRepository(db *sql.DB) NomineeRepository {
	return &postgresNomineeRepository{db: db}
}

func (r *postgresNomineeRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const nomineeColumns = `
	id, competition_id, status, nominated_by, nominator_name, nominator_email,
	name, email, age, occupation, bio, interests,
	invite_token, claimed_at, profile_complete, converted_to_contestant_id, created_at`

func scanNominee(row interface{ Scan(dest ...interface{}) error }, n *models.Nominee) error {
	return row.Scan(
		&n.ID, &n.CompetitionID, &n.Status, &n.NominatedBy, &n.NominatorName, &n.NominatorEmail,
		&n.Name, &n.Email, &n.Age, &n.Occupation, &n.Bio, &n.Interests,
		&n.InviteToken, &n.ClaimedAt, &n.ProfileDone, &n.ConvertedToContestantID, &n.CreatedAt,
	)
}

func (r *postgresNomineeRepository) Create(ctx context.Context, n *models.Nominee) error {
	executor := r.getExecutor(nil)
	query := `
		INSERT INTO nominees (
			competition_id, status, nominated_by, nominator_name, nominator_email,
			name, email, age, occupation, bio, interests, profile_complete
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		n.CompetitionID, n.Status, n.NominatedBy, n.NominatorName, n.NominatorEmail,
		n.Name, n.Email, n.Age, n.Occupation, n.Bio, n.Interests, n.ProfileDone,
	).Scan(&n.ID, &n.CreatedAt)

	return r.handleNomineeError(err)
}

func (r *postgresNomineeRepository) GetByID(ctx context.Context, id int) (*models.Nominee, error) {
	executor := r.getExecutor(nil)
	query := `SELECT` + nomineeColumns + ` FROM nominees WHERE id = $1`

	n := &models.Nominee{}
	err := scanNominee(executor.QueryRowContext(ctx, query, id), n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNomineeNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *postgresNomineeRepository) GetByInviteToken(ctx context.Context, token string) (*models.Nominee, error) {
	executor := r.getExecutor(nil)
	query := `SELECT` + nomineeColumns + ` FROM nominees WHERE invite_token = $1`

	n := &models.Nominee{}
	err := scanNominee(executor.QueryRowContext(ctx, query, token), n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNomineeNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *postgresNomineeRepository) ListActive(ctx context.Context, competitionID int) ([]models.Nominee, error) {
	executor := r.getExecutor(nil)
	query := `
		SELECT` + nomineeColumns + `
		FROM nominees
		WHERE competition_id = $1 AND status NOT IN ($2, $3)
		ORDER BY created_at ASC`

	return r.queryNominees(ctx, executor, query, competitionID, models.NomineeApproved, models.NomineeRejected)
}

func (r *postgresNomineeRepository) ListByStatus(ctx context.Context, competitionID int, status models.NomineeStatus) ([]models.Nominee, error) {
	executor := r.getExecutor(nil)
	query := `
		SELECT` + nomineeColumns + `
		FROM nominees
		WHERE competition_id = $1 AND status = $2
		ORDER BY created_at ASC`

	return r.queryNominees(ctx, executor, query, competitionID, status)
}

func (r *postgresNomineeRepository) queryNominees(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]models.Nominee, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nominees := make([]models.Nominee, 0)
	for rows.Next() {
		var n models.Nominee
		if scanErr := scanNominee(rows, &n); scanErr != nil {
			return nil, scanErr
		}
		nominees = append(nominees, n)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return nominees, nil
}

func (r *postgresNomineeRepository) UpdateStatusIf(ctx context.Context, exec SQLExecutor, id int, expected, next models.NomineeStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE nominees SET status = $1 WHERE id = $2 AND status = $3`
	result, err := executor.ExecContext(ctx, query, next, id, expected)
	if err != nil {
		return r.handleNomineeError(err)
	}
	return checkAffectedRows(result, ErrNomineeStatusConflict)
}

func (r *postgresNomineeRepository) CompleteProfileIf(ctx context.Context, n *models.Nominee, expected, next models.NomineeStatus) error {
	executor := r.getExecutor(nil)
	query := `
		UPDATE nominees SET
			name = $1,
			age = $2,
			occupation = $3,
			bio = $4,
			interests = $5,
			profile_complete = $6,
			status = $7
		WHERE id = $8 AND status = $9`

	result, err := executor.ExecContext(ctx, query,
		n.Name, n.Age, n.Occupation, n.Bio, n.Interests, n.ProfileDone,
		next, n.ID, expected,
	)
	if err != nil {
		return r.handleNomineeError(err)
	}

	return checkAffectedRows(result, ErrNomineeStatusConflict)
}

func (r *postgresNomineeRepository) SetInviteToken(ctx context.Context, id int, token string) error {
	executor := r.getExecutor(nil)
	query := `UPDATE nominees SET invite_token = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, token, id)
	if err != nil {
		return r.handleNomineeError(err)
	}
	return checkAffectedRows(result, ErrNomineeNotFound)
}

func (r *postgresNomineeRepository) MarkClaimed(ctx context.Context, id int, claimedAt time.Time) error {
	executor := r.getExecutor(nil)
	query := `UPDATE nominees SET claimed_at = $1 WHERE id = $2 AND claimed_at IS NULL`
	result, err := executor.ExecContext(ctx, query, claimedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark nominee %d claimed: %w", id, err)
	}
	return checkAffectedRows(result, ErrNomineeNotFound)
}

func (r *postgresNomineeRepository) MarkConverted(ctx context.Context, exec SQLExecutor, id, contestantID int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE nominees SET converted_to_contestant_id = $1
		WHERE id = $2 AND converted_to_contestant_id IS NULL`
	result, err := executor.ExecContext(ctx, query, contestantID, id)
	if err != nil {
		return fmt.Errorf("failed to mark nominee %d converted: %w", id, err)
	}
	return checkAffectedRows(result, ErrNomineeStatusConflict)
}

func (r *postgresNomineeRepository) handleNomineeError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "nominees_invite_token_key" {
				return ErrNomineeTokenConflict
			}
		case "23503":
			if pqErr.Constraint == "nominees_competition_id_fkey" {
				return ErrNomineeCompetitionInvalid
			}
		}
	}
	return err
}
