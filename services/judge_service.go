package services

import (
	"context"
	"errors"

	"github.com/crownstage/pageant-system/models"
	"github.com/crownstage/pageant-system/repositories"
)

type JudgeService struct {
	judgeRepo       repositories.JudgeRepository
	competitionRepo repositories.CompetitionRepository
}

func NewJudgeService(judgeRepo repositories.JudgeRepository, competitionRepo repositories.CompetitionRepository) *JudgeService {
	return &JudgeService{judgeRepo: judgeRepo, competitionRepo: competitionRepo}
}

func (s *JudgeService) CreateJudge(ctx context.Context, judge *models.Judge) error {
	if judge.Name == "" || judge.Email == "" {
		return ErrValidationFailed
	}
	return mapJudgeRepoError(s.judgeRepo.Create(ctx, judge))
}

func (s *JudgeService) GetJudgeByID(ctx context.Context, id int) (*models.Judge, error) {
	judge, err := s.judgeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapJudgeRepoError(err)
	}
	return judge, nil
}

func (s *JudgeService) ListJudges(ctx context.Context, limit, offset int) ([]models.Judge, error) {
	return s.judgeRepo.List(ctx, limit, offset)
}

func (s *JudgeService) UpdateJudge(ctx context.Context, judge *models.Judge) error {
	return mapJudgeRepoError(s.judgeRepo.Update(ctx, judge))
}

func (s *JudgeService) DeleteJudge(ctx context.Context, id int) error {
	return mapJudgeRepoError(s.judgeRepo.Delete(ctx, id))
}

func (s *JudgeService) AssignJudge(ctx context.Context, judgeID, competitionID int) error {
	if _, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		return mapCompetitionRepoError(err)
	}
	return mapJudgeRepoError(s.judgeRepo.AssignToCompetition(ctx, judgeID, competitionID))
}

func (s *JudgeService) UnassignJudge(ctx context.Context, judgeID, competitionID int) error {
	return mapJudgeRepoError(s.judgeRepo.UnassignFromCompetition(ctx, judgeID, competitionID))
}

func (s *JudgeService) ListCompetitionJudges(ctx context.Context, competitionID int) ([]models.Judge, error) {
	return s.judgeRepo.ListByCompetition(ctx, competitionID)
}

func mapJudgeRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrJudgeNotFound):
		return ErrJudgeNotFound
	case errors.Is(err, repositories.ErrJudgeEmailConflict):
		return ErrJudgeEmailConflict
	case errors.Is(err, repositories.ErrJudgeAlreadyAssigned):
		return ErrJudgeAssigned
	case errors.Is(err, repositories.ErrJudgeAssignmentInvalid):
		return ErrNotFound
	default:
		return err
	}
}
