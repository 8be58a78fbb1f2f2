package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crownstage/pageant-system/models"
	"github.com/crownstage/pageant-system/repositories"
)

const inviteTokenLength = 16 // Длина токена в байтах (32 символа в hex)

// Notifier — коллаборатор уведомлений. Движок вызывает его по контракту,
// но не ждёт гарантий доставки.
type Notifier interface {
	SendNomineeInvite(nominee *models.Nominee) error
	ResendNomineeInvite(nominee *models.Nominee) error
}

type SubmitNominationInput struct {
	CompetitionID  int                     `json:"competition_id"`
	NominatedBy    models.NominationSource `json:"nominated_by"`
	NominatorName  *string                 `json:"nominator_name"`
	NominatorEmail *string                 `json:"nominator_email"`
	Name           string                  `json:"name"`
	Email          string                  `json:"email"`
	Age            *int                    `json:"age"`
	Occupation     *string                 `json:"occupation"`
	Bio            *string                 `json:"bio"`
	Interests      *string                 `json:"interests"`
}

type CompleteProfileInput struct {
	Name       string  `json:"name"`
	Age        *int    `json:"age"`
	Occupation *string `json:"occupation"`
	Bio        *string `json:"bio"`
	Interests  *string `json:"interests"`
}

// NomineeService реализует конвейер номинант → участник.
//
// Статусы: new / pending_approval → (approve) → awaiting_profile →
// (complete profile) → profile_complete → (convert) → approved.
// Самономинации стартуют в pending и конвертируются сразу. reject —
// терминальный статус из любого нетерминального; записи не удаляются.
type NomineeService struct {
	nomineeRepo    repositories.NomineeRepository
	contestantRepo repositories.ContestantRepository
	notifier       Notifier
	logger         *slog.Logger

	now func() time.Time
}

func NewNomineeService(
	nomineeRepo repositories.NomineeRepository,
	contestantRepo repositories.ContestantRepository,
	notifier Notifier,
	logger *slog.Logger,
) *NomineeService {
	return &NomineeService{
		nomineeRepo:    nomineeRepo,
		contestantRepo: contestantRepo,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
	}
}

// WithClock подменяет источник времени (для тестов).
func (s *NomineeService) WithClock(now func() time.Time) *NomineeService {
	s.now = now
	return s
}

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// SubmitNomination создаёт номинанта. Самономинация стартует в pending
// (номинант уже аутентифицирован при подаче), сторонняя — в new и требует
// данных номинатора.
func (s *NomineeService) SubmitNomination(ctx context.Context, input SubmitNominationInput) (*models.Nominee, error) {
	if input.Name == "" || input.Email == "" {
		return nil, fmt.Errorf("%w: nominee name and email are required", ErrValidationFailed)
	}

	var status models.NomineeStatus
	switch input.NominatedBy {
	case models.NominatedBySelf:
		status = models.NomineePending
	case models.NominatedByThirdParty:
		if input.NominatorName == nil || *input.NominatorName == "" ||
			input.NominatorEmail == nil || *input.NominatorEmail == "" {
			return nil, ErrNominatorRequired
		}
		status = models.NomineeNew
	default:
		return nil, fmt.Errorf("%w: unknown nomination source %q", ErrValidationFailed, input.NominatedBy)
	}

	nominee := &models.Nominee{
		CompetitionID:  input.CompetitionID,
		Status:         status,
		NominatedBy:    input.NominatedBy,
		NominatorName:  input.NominatorName,
		NominatorEmail: input.NominatorEmail,
		Name:           input.Name,
		Email:          input.Email,
		Age:            input.Age,
		Occupation:     input.Occupation,
		Bio:            input.Bio,
		Interests:      input.Interests,
		ProfileDone:    input.NominatedBy == models.NominatedBySelf,
	}

	if err := s.nomineeRepo.Create(ctx, nominee); err != nil {
		if errors.Is(err, repositories.ErrNomineeCompetitionInvalid) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}

	return nominee, nil
}

func (s *NomineeService) GetNomineeByID(ctx context.Context, id int) (*models.Nominee, error) {
	nominee, err := s.nomineeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNomineeNotFound) {
			return nil, ErrNomineeNotFound
		}
		return nil, err
	}
	return nominee, nil
}

// ListActiveNominees: терминальные статусы (approved, rejected) в активные
// выборки не попадают.
func (s *NomineeService) ListActiveNominees(ctx context.Context, competitionID int) ([]models.Nominee, error) {
	return s.nomineeRepo.ListActive(ctx, competitionID)
}

// Approve: new / pending_approval → awaiting_profile. Генерирует свежий
// инвайт-токен и отправляет приглашение (fire-and-forget).
func (s *NomineeService) Approve(ctx context.Context, nomineeID int) (*models.Nominee, error) {
	nominee, err := s.GetNomineeByID(ctx, nomineeID)
	if err != nil {
		return nil, err
	}

	if nominee.Status != models.NomineeNew && nominee.Status != models.NomineePendingApproval {
		return nil, fmt.Errorf("%w: approve from %s", ErrInvalidNomineeTransition, nominee.Status)
	}

	// Сначала токен, потом переход: номинант не может оказаться в
	// awaiting_profile без инвайта.
	token, err := s.issueInviteToken(ctx, nominee)
	if err != nil {
		return nil, err
	}
	nominee.InviteToken = &token

	if err := s.transition(ctx, nominee, models.NomineeAwaitingProfile); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if sendErr := s.notifier.SendNomineeInvite(nominee); sendErr != nil {
			// Доставка не гарантируется: переход состоялся, письмо можно
			// перепослать через ResendInvite.
			s.logger.Warn("failed to send nominee invite",
				slog.Int("nominee_id", nominee.ID),
				slog.Any("error", sendErr))
		}
	}

	return nominee, nil
}

// issueInviteToken генерирует уникальный токен с повторами при конфликте.
func (s *NomineeService) issueInviteToken(ctx context.Context, nominee *models.Nominee) (string, error) {
	const maxAttempts = 3

	for attempt := 0; attempt < maxAttempts; attempt++ {
		token, err := generateSecureToken(inviteTokenLength)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInviteTokenGeneration, err)
		}

		err = s.nomineeRepo.SetInviteToken(ctx, nominee.ID, token)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, repositories.ErrNomineeTokenConflict) {
			return "", err
		}
		// Конфликт токена, пробуем снова
	}

	return "", fmt.Errorf("%w after %d attempts", ErrInviteTokenGeneration, maxAttempts)
}

// CompleteProfile: awaiting_profile → profile_complete. Вызывается самим
// номинантом по инвайт-токену либо админом в демо-потоке (simulate).
func (s *NomineeService) CompleteProfile(ctx context.Context, nomineeID int, input CompleteProfileInput) (*models.Nominee, error) {
	nominee, err := s.GetNomineeByID(ctx, nomineeID)
	if err != nil {
		return nil, err
	}

	if nominee.Status != models.NomineeAwaitingProfile {
		return nil, fmt.Errorf("%w: complete profile from %s", ErrInvalidNomineeTransition, nominee.Status)
	}

	if input.Name != "" {
		nominee.Name = input.Name
	}
	nominee.Age = input.Age
	nominee.Occupation = input.Occupation
	nominee.Bio = input.Bio
	nominee.Interests = input.Interests
	nominee.ProfileDone = true

	// Анкета и переход пишутся одним условным обновлением: конкурентный
	// reject не получает частично заполненного профиля.
	err = s.nomineeRepo.CompleteProfileIf(ctx, nominee, models.NomineeAwaitingProfile, models.NomineeProfileComplete)
	if err != nil {
		if errors.Is(err, repositories.ErrNomineeStatusConflict) {
			return nil, fmt.Errorf("%w: nominee status changed concurrently", ErrInvalidNomineeTransition)
		}
		return nil, err
	}
	nominee.Status = models.NomineeProfileComplete

	claimedAt := s.now()
	if err := s.nomineeRepo.MarkClaimed(ctx, nominee.ID, claimedAt); err != nil {
		s.logger.Warn("failed to mark nominee claimed",
			slog.Int("nominee_id", nominee.ID),
			slog.Any("error", err))
	} else {
		nominee.ClaimedAt = &claimedAt
	}

	return nominee, nil
}

// CompleteProfileByToken — вход номинанта по инвайт-ссылке.
func (s *NomineeService) CompleteProfileByToken(ctx context.Context, token string, input CompleteProfileInput) (*models.Nominee, error) {
	nominee, err := s.nomineeRepo.GetByInviteToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNomineeNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return s.CompleteProfile(ctx, nominee.ID, input)
}

// Convert: pending / profile_complete → approved. Материализует участника
// ровно один раз на номинанта. Идемпотентность держится на двух рубежах:
// обратной ссылке converted_to_contestant_id и уникальном индексе
// contestants.source_nominee_id — не на сравнении имён.
func (s *NomineeService) Convert(ctx context.Context, nomineeID int) (*models.Contestant, error) {
	nominee, err := s.GetNomineeByID(ctx, nomineeID)
	if err != nil {
		return nil, err
	}

	// Повторный convert — no-op: возвращаем уже созданного участника.
	if nominee.ConvertedToContestantID != nil {
		return s.contestantRepo.GetByID(ctx, *nominee.ConvertedToContestantID)
	}

	if nominee.Status != models.NomineePending && nominee.Status != models.NomineeProfileComplete {
		return nil, fmt.Errorf("%w: convert from %s", ErrInvalidNomineeTransition, nominee.Status)
	}
	if nominee.Status == models.NomineeProfileComplete && !nominee.ProfileDone {
		return nil, ErrNomineeProfileIncomplete
	}

	contestant := &models.Contestant{
		CompetitionID:   nominee.CompetitionID,
		Name:            nominee.Name,
		Votes:           0,
		SourceNomineeID: &nominee.ID,
	}

	if err := s.contestantRepo.Create(ctx, nil, contestant); err != nil {
		if errors.Is(err, repositories.ErrContestantSourceConflict) {
			// Конкурентный convert уже создал участника: возвращаем его.
			return s.contestantRepo.GetBySourceNomineeID(ctx, nominee.ID)
		}
		return nil, err
	}

	if err := s.nomineeRepo.MarkConverted(ctx, nil, nominee.ID, contestant.ID); err != nil {
		return nil, err
	}

	if err := s.transition(ctx, nominee, models.NomineeApproved); err != nil {
		return nil, err
	}

	s.logger.Info("nominee converted to contestant",
		slog.Int("nominee_id", nominee.ID),
		slog.Int("contestant_id", contestant.ID))

	return contestant, nil
}

// Reject — терминальный переход из любого нетерминального статуса.
// Запись остаётся в хранилище (аудит), но исчезает из активных выборок.
func (s *NomineeService) Reject(ctx context.Context, nomineeID int) (*models.Nominee, error) {
	nominee, err := s.GetNomineeByID(ctx, nomineeID)
	if err != nil {
		return nil, err
	}

	if nominee.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: reject from %s", ErrInvalidNomineeTransition, nominee.Status)
	}

	if err := s.transition(ctx, nominee, models.NomineeRejected); err != nil {
		return nil, err
	}

	return nominee, nil
}

// ResendInvite: только из awaiting_profile; состояние не меняется, письмо
// отправляется повторно.
func (s *NomineeService) ResendInvite(ctx context.Context, nomineeID int) error {
	nominee, err := s.GetNomineeByID(ctx, nomineeID)
	if err != nil {
		return err
	}

	if nominee.Status != models.NomineeAwaitingProfile {
		return fmt.Errorf("%w: resend invite from %s", ErrInvalidNomineeTransition, nominee.Status)
	}
	if nominee.InviteToken == nil {
		return ErrInviteNotFound
	}

	if s.notifier == nil {
		return nil
	}
	return s.notifier.ResendNomineeInvite(nominee)
}

// transition выполняет compare-and-swap статуса против значения, по
// которому принималось решение.
func (s *NomineeService) transition(ctx context.Context, nominee *models.Nominee, next models.NomineeStatus) error {
	err := s.nomineeRepo.UpdateStatusIf(ctx, nil, nominee.ID, nominee.Status, next)
	if err != nil {
		if errors.Is(err, repositories.ErrNomineeStatusConflict) {
			return fmt.Errorf("%w: nominee status changed concurrently", ErrInvalidNomineeTransition)
		}
		return err
	}
	nominee.Status = next
	return nil
}
