package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/crownstage/pageant-system/lifecycle"
	"github.com/crownstage/pageant-system/models"
	"github.com/crownstage/pageant-system/pricing"
	"github.com/crownstage/pageant-system/repositories"
	"github.com/crownstage/pageant-system/storage"
	"golang.org/x/sync/errgroup"
)

// Ограничение параллелизма при фоновом обходе конкурсов.
const autoUpdateConcurrency = 4

// Broadcaster доставляет события live-клиентам комнаты конкурса.
// Реализуется live.Hub; доставка fire-and-forget.
type Broadcaster interface {
	BroadcastToCompetition(competitionID int, event interface{})
}

// StatusNotifier уведомляет хоста о смене статуса конкурса.
// Реализуется EmailService; доставка не гарантируется.
type StatusNotifier interface {
	SendCompetitionStatusEmail(userEmail, competitionName, status string, competitionID int) error
}

type CreateCompetitionInput struct {
	Name             string     `json:"name"`
	Description      *string    `json:"description"`
	NominationStart  *time.Time `json:"nomination_start"`
	NominationEnd    *time.Time `json:"nomination_end"`
	VotingStart      *time.Time `json:"voting_start"`
	VotingEnd        *time.Time `json:"voting_end"`
	FinaleDate       *time.Time `json:"finale_date"`
	PrizePoolMinimum float64    `json:"prize_pool_minimum"`
	PricePerVote     float64    `json:"price_per_vote"`
	UseVoteBundler   bool       `json:"use_vote_bundler"`
	AllowManualVotes bool       `json:"allow_manual_votes"`
	NumberOfWinners  int        `json:"number_of_winners"`
}

// UpdateCompetitionInput: nil-поле — "не менять". Редактируемость каждого
// изменяемого поля проверяется против текущего статуса до любой записи.
type UpdateCompetitionInput struct {
	Name             *string    `json:"name"`
	Description      *string    `json:"description"`
	NominationStart  *time.Time `json:"nomination_start"`
	NominationEnd    *time.Time `json:"nomination_end"`
	VotingStart      *time.Time `json:"voting_start"`
	VotingEnd        *time.Time `json:"voting_end"`
	FinaleDate       *time.Time `json:"finale_date"`
	PrizePoolMinimum *float64   `json:"prize_pool_minimum"`
	PricePerVote     *float64   `json:"price_per_vote"`
	UseVoteBundler   *bool      `json:"use_vote_bundler"`
	AllowManualVotes *bool      `json:"allow_manual_votes"`
	NumberOfWinners  *int       `json:"number_of_winners"`

	VotingRounds []models.VotingRound `json:"voting_rounds"`

	// Подтверждение оператора для warn-полей.
	AcknowledgeWarnings bool `json:"acknowledge_warnings"`
}

type CompetitionService struct {
	db              *sql.DB
	competitionRepo repositories.CompetitionRepository
	roundRepo       repositories.VotingRoundRepository
	judgeRepo       repositories.JudgeRepository
	userRepo        repositories.UserRepository
	uploader        storage.FileUploader
	hub             Broadcaster
	statusNotifier  StatusNotifier
	logger          *slog.Logger

	// Инъектируемые часы: вся временная логика детерминирована в тестах.
	now func() time.Time
}

func NewCompetitionService(
	db *sql.DB,
	competitionRepo repositories.CompetitionRepository,
	roundRepo repositories.VotingRoundRepository,
	judgeRepo repositories.JudgeRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	hub Broadcaster,
	statusNotifier StatusNotifier,
	logger *slog.Logger,
) *CompetitionService {
	return &CompetitionService{
		db:              db,
		competitionRepo: competitionRepo,
		roundRepo:       roundRepo,
		judgeRepo:       judgeRepo,
		userRepo:        userRepo,
		uploader:        uploader,
		hub:             hub,
		statusNotifier:  statusNotifier,
		logger:          logger,
		now:             time.Now,
	}
}

// WithClock подменяет источник времени (для тестов).
func (s *CompetitionService) WithClock(now func() time.Time) *CompetitionService {
	s.now = now
	return s
}

func (s *CompetitionService) CreateCompetition(ctx context.Context, hostID int, input CreateCompetitionInput) (*models.Competition, error) {
	if input.Name == "" {
		return nil, ErrCompetitionNameRequired
	}
	if input.PrizePoolMinimum < pricing.MinimumPrizePool {
		return nil, ErrPrizePoolBelowMinimum
	}
	if input.PricePerVote <= 0 {
		return nil, ErrInvalidPricePerVote
	}

	numberOfWinners := input.NumberOfWinners
	if numberOfWinners <= 0 {
		numberOfWinners = 3
	}

	competition := &models.Competition{
		Name:             input.Name,
		Description:      input.Description,
		HostID:           hostID,
		Status:           models.StatusDraft,
		NominationStart:  input.NominationStart,
		NominationEnd:    input.NominationEnd,
		VotingStart:      input.VotingStart,
		VotingEnd:        input.VotingEnd,
		FinaleDate:       input.FinaleDate,
		PrizePoolMinimum: input.PrizePoolMinimum,
		PricePerVote:     input.PricePerVote,
		UseVoteBundler:   input.UseVoteBundler,
		AllowManualVotes: input.AllowManualVotes,
		NumberOfWinners:  numberOfWinners,
	}

	if err := s.competitionRepo.Create(ctx, competition); err != nil {
		return nil, mapCompetitionRepoError(err)
	}

	s.decorate(competition)
	return competition, nil
}

func (s *CompetitionService) GetCompetitionByID(ctx context.Context, id int) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}

	rounds, err := s.roundRepo.ListByCompetition(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load voting rounds for competition %d: %w", id, err)
	}
	competition.VotingRounds = rounds

	s.decorate(competition)
	return competition, nil
}

func (s *CompetitionService) ListCompetitions(ctx context.Context, filter repositories.ListCompetitionsFilter) ([]models.Competition, error) {
	competitions, err := s.competitionRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range competitions {
		s.decorate(&competitions[i])
	}
	return competitions, nil
}

// ListPublicCompetitions — выборка для маркетингового сайта: только видимые.
func (s *CompetitionService) ListPublicCompetitions(ctx context.Context, filter repositories.ListCompetitionsFilter) ([]models.Competition, error) {
	competitions, err := s.ListCompetitions(ctx, filter)
	if err != nil {
		return nil, err
	}
	visible := make([]models.Competition, 0, len(competitions))
	for _, c := range competitions {
		if c.Visible {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

func (s *CompetitionService) UpdateCompetition(ctx context.Context, id int, input UpdateCompetitionInput) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}

	// Сначала проверяем редактируемость всех затронутых полей, потом
	// валидируем, потом пишем. Никаких частичных изменений.
	if err := s.applyUpdate(competition, input); err != nil {
		return nil, err
	}

	if competition.PrizePoolMinimum < pricing.MinimumPrizePool {
		return nil, ErrPrizePoolBelowMinimum
	}
	if competition.PricePerVote <= 0 {
		return nil, ErrInvalidPricePerVote
	}

	if input.VotingRounds != nil {
		if err := ValidateVotingRounds(competition, input.VotingRounds); err != nil {
			return nil, err
		}
	}

	if input.VotingRounds == nil {
		if err := s.competitionRepo.Update(ctx, nil, competition); err != nil {
			return nil, mapCompetitionRepoError(err)
		}
	} else {
		// Раунды заменяются атомарно вместе со строкой конкурса.
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := s.competitionRepo.Update(ctx, tx, competition); err != nil {
			return nil, mapCompetitionRepoError(err)
		}
		if err := s.roundRepo.ReplaceAll(ctx, tx, id, input.VotingRounds); err != nil {
			return nil, fmt.Errorf("failed to replace voting rounds: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit competition update: %w", err)
		}
		competition.VotingRounds = input.VotingRounds
	}

	s.decorate(competition)
	return competition, nil
}

// applyUpdate накладывает input на конкурс, проверяя каждое изменяемое поле
// по таблице редактируемости текущего статуса.
func (s *CompetitionService) applyUpdate(c *models.Competition, input UpdateCompetitionInput) error {
	type fieldChange struct {
		name  string
		apply func()
	}

	var changes []fieldChange
	if input.Name != nil && *input.Name != c.Name {
		changes = append(changes, fieldChange{"name", func() { c.Name = *input.Name }})
	}
	if input.Description != nil {
		changes = append(changes, fieldChange{"description", func() { c.Description = input.Description }})
	}
	if input.NominationStart != nil {
		changes = append(changes, fieldChange{"nomination_start", func() { c.NominationStart = input.NominationStart }})
	}
	if input.NominationEnd != nil {
		changes = append(changes, fieldChange{"nomination_end", func() { c.NominationEnd = input.NominationEnd }})
	}
	if input.VotingStart != nil {
		changes = append(changes, fieldChange{"voting_start", func() { c.VotingStart = input.VotingStart }})
	}
	if input.VotingEnd != nil {
		changes = append(changes, fieldChange{"voting_end", func() { c.VotingEnd = input.VotingEnd }})
	}
	if input.FinaleDate != nil {
		changes = append(changes, fieldChange{"finale_date", func() { c.FinaleDate = input.FinaleDate }})
	}
	if input.PrizePoolMinimum != nil {
		changes = append(changes, fieldChange{"prize_pool_minimum", func() { c.PrizePoolMinimum = *input.PrizePoolMinimum }})
	}
	if input.PricePerVote != nil {
		changes = append(changes, fieldChange{"price_per_vote", func() { c.PricePerVote = *input.PricePerVote }})
	}
	if input.UseVoteBundler != nil {
		changes = append(changes, fieldChange{"use_vote_bundler", func() { c.UseVoteBundler = *input.UseVoteBundler }})
	}
	if input.AllowManualVotes != nil {
		changes = append(changes, fieldChange{"allow_manual_votes", func() { c.AllowManualVotes = *input.AllowManualVotes }})
	}
	if input.NumberOfWinners != nil {
		changes = append(changes, fieldChange{"number_of_winners", func() { c.NumberOfWinners = *input.NumberOfWinners }})
	}

	for _, change := range changes {
		switch lifecycle.FieldEditability(change.name, c.Status) {
		case lifecycle.Locked:
			return fmt.Errorf("%w: %s", ErrFieldLocked, change.name)
		case lifecycle.Warn:
			if !input.AcknowledgeWarnings {
				return fmt.Errorf("%w: %s", ErrWarnUnacknowledged, change.name)
			}
		}
	}

	for _, change := range changes {
		change.apply()
	}
	return nil
}

// Разрешённые ручные переходы: статус движется только вперёд, плюс явные
// админские отводы в archive и draft.
var allowedStatusTransitions = map[models.CompetitionStatus][]models.CompetitionStatus{
	models.StatusDraft:     {models.StatusAssigned, models.StatusPublished, models.StatusArchive},
	models.StatusAssigned:  {models.StatusPublished, models.StatusArchive, models.StatusDraft},
	models.StatusPublished: {models.StatusLive, models.StatusActive, models.StatusArchive, models.StatusDraft},
	models.StatusLive:      {models.StatusCompleted, models.StatusArchive},
	models.StatusActive:    {models.StatusCompleted, models.StatusArchive},
	models.StatusCompleted: {models.StatusArchive},
	models.StatusArchive:   {models.StatusDraft},
}

// ChangeStatus — ручная смена статуса администратором. Запись выполняется
// как compare-and-swap против статуса, по которому проверялся переход:
// фоновый автопереход не может молча перезатереть ручное решение.
func (s *CompetitionService) ChangeStatus(ctx context.Context, id int, next models.CompetitionStatus) (*models.Competition, error) {
	if !next.IsValid() {
		return nil, ErrInvalidCompetitionStatus
	}

	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}

	if !transitionAllowed(competition.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, competition.Status, next)
	}

	// assigned требует хотя бы одного назначенного судьи.
	if next == models.StatusAssigned {
		count, err := s.judgeRepo.CountByCompetition(ctx, id)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrJudgesRequired
		}
	}

	if err := s.competitionRepo.UpdateStatusIf(ctx, nil, id, competition.Status, next); err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: status changed concurrently, retry", ErrInvalidStatusTransition)
		}
		return nil, mapCompetitionRepoError(err)
	}

	competition.Status = next
	s.decorate(competition)
	s.broadcastPhase(competition)
	return competition, nil
}

func transitionAllowed(from, to models.CompetitionStatus) bool {
	for _, allowed := range allowedStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AutoUpdateCompetitionStatuses — периодический обход: published → live по
// открытию окна номинаций, live/active → completed по наступлению финала.
// Каждая запись — compare-and-swap; проигрыш гонки (ErrStatusConflict) —
// ожидаемый исход, обход молча пропускает такой конкурс.
func (s *CompetitionService) AutoUpdateCompetitionStatuses(ctx context.Context) error {
	now := s.now()

	candidates, err := s.competitionRepo.ListForAutoStatusUpdate(ctx, nil, now)
	if err != nil {
		return fmt.Errorf("failed to list competitions for auto status update: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(autoUpdateConcurrency)

	for _, competition := range candidates {
		competition := competition
		g.Go(func() error {
			return s.evaluateAndTransition(gctx, competition, now)
		})
	}

	return g.Wait()
}

func (s *CompetitionService) evaluateAndTransition(ctx context.Context, c *models.Competition, now time.Time) error {
	var next models.CompetitionStatus
	switch {
	case lifecycle.ShouldComplete(c, now):
		next = models.StatusCompleted
	case lifecycle.ShouldGoLive(c, now):
		next = models.StatusLive
	default:
		return nil
	}

	err := s.competitionRepo.UpdateStatusIf(ctx, nil, c.ID, c.Status, next)
	if err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			// Кто-то другой уже перевёл статус: нужный конечный результат
			// достигнут, ошибки нет.
			s.logger.Debug("auto transition skipped, status changed concurrently",
				slog.Int("competition_id", c.ID),
				slog.String("expected", string(c.Status)))
			return nil
		}
		return fmt.Errorf("auto transition for competition %d failed: %w", c.ID, err)
	}

	s.logger.Info("competition status auto-updated",
		slog.Int("competition_id", c.ID),
		slog.String("from", string(c.Status)),
		slog.String("to", string(next)))

	c.Status = next
	s.decorate(c)
	s.broadcastPhase(c)
	s.notifyHost(ctx, c)
	return nil
}

// notifyHost шлёт хосту письмо о новом статусе. Переход уже состоялся,
// ошибка доставки его не откатывает.
func (s *CompetitionService) notifyHost(ctx context.Context, c *models.Competition) {
	if s.statusNotifier == nil || s.userRepo == nil {
		return
	}

	host, err := s.userRepo.GetByID(ctx, c.HostID)
	if err != nil {
		s.logger.Warn("failed to load host for status notification",
			slog.Int("competition_id", c.ID),
			slog.Int("host_id", c.HostID),
			slog.Any("error", err))
		return
	}

	if err := s.statusNotifier.SendCompetitionStatusEmail(host.Email, c.Name, string(c.Status), c.ID); err != nil {
		s.logger.Warn("failed to send competition status email",
			slog.Int("competition_id", c.ID),
			slog.Any("error", err))
	}
}

// UploadCover загружает обложку конкурса в объектное хранилище и
// запоминает ключ.
func (s *CompetitionService) UploadCover(ctx context.Context, id int, contentType string, reader io.Reader) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}

	key := fmt.Sprintf("competitions/%d/cover", id)
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload competition cover: %w", err)
	}

	if err := s.competitionRepo.UpdateCoverKey(ctx, id, &result.Key); err != nil {
		return nil, mapCompetitionRepoError(err)
	}

	competition.CoverKey = &result.Key
	s.decorate(competition)
	return competition, nil
}

func (s *CompetitionService) DeleteCompetition(ctx context.Context, id int) error {
	return mapCompetitionRepoError(s.competitionRepo.Delete(ctx, id))
}

// decorate проставляет производные поля: фазу, видимость, доступность,
// публичный URL обложки.
func (s *CompetitionService) decorate(c *models.Competition) {
	c.Phase = lifecycle.ComputePhase(c.Status, lifecycle.TimelineOf(c), s.now())
	c.Visible = lifecycle.IsVisible(c.Status)
	c.Accessible = lifecycle.IsAccessible(c.Status)
	if c.CoverKey != nil && s.uploader != nil {
		if u := s.uploader.GetPublicURL(*c.CoverKey); u != "" {
			c.CoverURL = &u
		}
	}
}

func (s *CompetitionService) broadcastPhase(c *models.Competition) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToCompetition(c.ID, map[string]interface{}{
		"type":   "PHASE_CHANGED",
		"status": c.Status,
		"phase":  c.Phase,
	})
}

// ValidateVotingRounds проверяет инварианты раундов: возрастающий
// уникальный порядок, непересекающиеся смежные окна, последовательность
// внутри [конец номинаций, финал], advance ≥ 1.
func ValidateVotingRounds(c *models.Competition, rounds []models.VotingRound) error {
	if len(rounds) == 0 {
		return nil
	}

	for i, r := range rounds {
		if r.ContestantsAdvance < 1 {
			return fmt.Errorf("%w: round %d contestants_advance must be at least 1", ErrInvalidVotingRounds, r.RoundOrder)
		}
		if !r.EndDate.After(r.StartDate) {
			return fmt.Errorf("%w: round %d end date must be after start date", ErrInvalidVotingRounds, r.RoundOrder)
		}
		if i == 0 {
			continue
		}
		prev := rounds[i-1]
		if r.RoundOrder <= prev.RoundOrder {
			return fmt.Errorf("%w: round order must be strictly ascending", ErrInvalidVotingRounds)
		}
		if r.StartDate.Before(prev.EndDate) {
			return fmt.Errorf("%w: round %d overlaps round %d", ErrInvalidVotingRounds, r.RoundOrder, prev.RoundOrder)
		}
	}

	first := rounds[0]
	last := rounds[len(rounds)-1]
	if c.NominationEnd != nil && first.StartDate.Before(*c.NominationEnd) {
		return fmt.Errorf("%w: voting must not start before nomination end", ErrInvalidVotingRounds)
	}
	if c.FinaleDate != nil && last.EndDate.After(*c.FinaleDate) {
		return fmt.Errorf("%w: voting must not end after the finale date", ErrInvalidVotingRounds)
	}

	return nil
}

func mapCompetitionRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrCompetitionNotFound):
		return ErrCompetitionNotFound
	case errors.Is(err, repositories.ErrCompetitionNameConflict):
		return ErrNameConflict
	default:
		return err
	}
}
