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
	ErrJudgeNotFound          = errors.New("judge not found")
	ErrJudgeEmailConflict     = errors.New("judge email is already in use")
	ErrJudgeAlreadyAssigned   = errors.New("judge is already assigned to this competition")
	ErrJudgeAssignmentInvalid = errors.New("invalid judge or competition reference")
)

type JudgeRepository interface {
	Create(ctx context.Context, judge *models.Judge) error
	GetByID(ctx context.Context, id int) (*models.Judge, error)
	List(ctx context.Context, limit, offset int) ([]models.Judge, error)
	Update(ctx context.Context, judge *models.Judge) error
	Delete(ctx context.Context, id int) error
	AssignToCompetition(ctx context.Context, judgeID, competitionID int) error
	UnassignFromCompetition(ctx context.Context, judgeID, competitionID int) error
	ListByCompetition(ctx context.Context, competitionID int) ([]models.Judge, error)
	CountByCompetition(ctx context.Context, competitionID int) (int, error)
}

type postgresJudgeRepository struct {
	db *sql.DB
}

func NewPostgresJudgeRepository(db *sql.DB) JudgeRepository {
	return &postgresJudgeRepository{db: db}
}

func (r *postgresJudgeRepository) Create(ctx context.Context, j *models.Judge) error {
	query := `
		INSERT INTO judges (name, email, bio, photo_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, j.Name, j.Email, j.Bio, j.PhotoKey).
		Scan(&j.ID, &j.CreatedAt)

	return r.handleJudgeError(err)
}

func (r *postgresJudgeRepository) GetByID(ctx context.Context, id int) (*models.Judge, error) {
	query := `SELECT id, name, email, bio, photo_key, created_at FROM judges WHERE id = $1`

	j := &models.Judge{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&j.ID, &j.Name, &j.Email, &j.Bio, &j.PhotoKey, &j.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJudgeNotFound
		}
		return nil, err
	}
	return j, nil
}

func (r *postgresJudgeRepository) List(ctx context.Context, limit, offset int) ([]models.Judge, error) {
	query := `SELECT id, name, email, bio, photo_key, created_at FROM judges ORDER BY name ASC`
	args := []interface{}{}
	argID := 1

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, limit)
		argID++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJudges(rows)
}

func (r *postgresJudgeRepository) Update(ctx context.Context, j *models.Judge) error {
	query := `UPDATE judges SET name = $1, email = $2, bio = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, j.Name, j.Email, j.Bio, j.ID)
	if err != nil {
		return r.handleJudgeError(err)
	}
	return checkAffectedRows(result, ErrJudgeNotFound)
}

func (r *postgresJudgeRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM judges WHERE id = $1`, id)
	if err != nil {
		return r.handleJudgeError(err)
	}
	return checkAffectedRows(result, ErrJudgeNotFound)
}

func (r *postgresJudgeRepository) AssignToCompetition(ctx context.Context, judgeID, competitionID int) error {
	query := `INSERT INTO competition_judges (judge_id, competition_id) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, judgeID, competitionID)
	return r.handleJudgeError(err)
}

func (r *postgresJudgeRepository) UnassignFromCompetition(ctx context.Context, judgeID, competitionID int) error {
	query := `DELETE FROM competition_judges WHERE judge_id = $1 AND competition_id = $2`
	result, err := r.db.ExecContext(ctx, query, judgeID, competitionID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrJudgeNotFound)
}

func (r *postgresJudgeRepository) ListByCompetition(ctx context.Context, competitionID int) ([]models.Judge, error) {
	query := `
		SELECT j.id, j.name, j.email, j.bio, j.photo_key, j.created_at
		FROM judges j
		JOIN competition_judges cj ON cj.judge_id = j.id
		WHERE cj.competition_id = $1
		ORDER BY j.name ASC`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJudges(rows)
}

func (r *postgresJudgeRepository) CountByCompetition(ctx context.Context, competitionID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM competition_judges WHERE competition_id = $1`, competitionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count judges for competition %d: %w", competitionID, err)
	}
	return count, nil
}

func scanJudges(rows *sql.Rows) ([]models.Judge, error) {
	judges := make([]models.Judge, 0)
	for rows.Next() {
		var j models.Judge
		if scanErr := rows.Scan(
			&j.ID, &j.Name, &j.Email, &j.Bio, &j.PhotoKey, &j.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		judges = append(judges, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return judges, nil
}

func (r *postgresJudgeRepository) handleJudgeError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			switch pqErr.Constraint {
			case "judges_email_key":
				return ErrJudgeEmailConflict
			case "competition_judges_pkey":
				return ErrJudgeAlreadyAssigned
			}
		case "23503":
			return ErrJudgeAssignmentInvalid
		}
	}
	return err
}
