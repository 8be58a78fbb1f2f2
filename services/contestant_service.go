package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/crownstage/pageant-system/models"
	"github.com/crownstage/pageant-system/repositories"
	"github.com/crownstage/pageant-system/storage"
)

// ContestantService — витрина участников и админские операции над ними.
// Создание участников происходит только через NomineeService.Convert.
type ContestantService struct {
	contestantRepo  repositories.ContestantRepository
	competitionRepo repositories.CompetitionRepository
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewContestantService(
	contestantRepo repositories.ContestantRepository,
	competitionRepo repositories.CompetitionRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) *ContestantService {
	return &ContestantService{
		contestantRepo:  contestantRepo,
		competitionRepo: competitionRepo,
		uploader:        uploader,
		logger:          logger,
	}
}

func (s *ContestantService) GetContestantByID(ctx context.Context, id int) (*models.Contestant, error) {
	contestant, err := s.contestantRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrContestantNotFound) {
			return nil, ErrContestantNotFound
		}
		return nil, err
	}
	s.decorate(contestant)
	return contestant, nil
}

func (s *ContestantService) ListByCompetition(ctx context.Context, competitionID int) ([]models.Contestant, error) {
	if _, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		return nil, mapCompetitionRepoError(err)
	}

	contestants, err := s.contestantRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	for i := range contestants {
		s.decorate(&contestants[i])
	}
	return contestants, nil
}

func (s *ContestantService) UploadPhoto(ctx context.Context, id int, contentType string, reader io.Reader) (*models.Contestant, error) {
	contestant, err := s.GetContestantByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("contestants/%d/photo", contestant.ID)
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload contestant photo: %w", err)
	}

	if err := s.contestantRepo.UpdatePhotoKey(ctx, contestant.ID, &result.Key); err != nil {
		if errors.Is(err, repositories.ErrContestantNotFound) {
			return nil, ErrContestantNotFound
		}
		return nil, err
	}

	contestant.PhotoKey = &result.Key
	s.decorate(contestant)
	return contestant, nil
}

// SetVotes — прямая корректировка счётчика (только админ).
func (s *ContestantService) SetVotes(ctx context.Context, id, votes int) (*models.Contestant, error) {
	if votes < 0 {
		return nil, fmt.Errorf("%w: votes must not be negative", ErrValidationFailed)
	}

	if err := s.contestantRepo.SetVotes(ctx, id, votes); err != nil {
		if errors.Is(err, repositories.ErrContestantNotFound) {
			return nil, ErrContestantNotFound
		}
		return nil, err
	}

	s.logger.Info("contestant votes adjusted",
		slog.Int("contestant_id", id),
		slog.Int("votes", votes))

	return s.GetContestantByID(ctx, id)
}

func (s *ContestantService) DeleteContestant(ctx context.Context, id int) error {
	err := s.contestantRepo.Delete(ctx, id)
	if errors.Is(err, repositories.ErrContestantNotFound) {
		return ErrContestantNotFound
	}
	return err
}

func (s *ContestantService) decorate(c *models.Contestant) {
	if c.PhotoKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*c.PhotoKey)
		c.PhotoURL = &url
	}
}
