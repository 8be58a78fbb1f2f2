package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crownstage/pageant-system/lifecycle"
	"github.com/crownstage/pageant-system/models"
	"github.com/crownstage/pageant-system/pricing"
	"github.com/crownstage/pageant-system/repositories"
)

type VotePurchaseResult struct {
	ContestantID int     `json:"contestant_id"`
	Votes        int     `json:"votes"`
	TotalVotes   int     `json:"total_votes"`
	UnitPrice    float64 `json:"unit_price"`
	Total        float64 `json:"total"`
}

// VoteService — покупка голосов и призовая сводка. Платёж как таковой вне
// зоны ответственности: сервис фиксирует выручку, но никого не списывает.
type VoteService struct {
	db              *sql.DB
	competitionRepo repositories.CompetitionRepository
	roundRepo       repositories.VotingRoundRepository
	contestantRepo  repositories.ContestantRepository
	tiers           []pricing.VotePriceTier
	hub             Broadcaster
	logger          *slog.Logger

	now func() time.Time
}

func NewVoteService(
	db *sql.DB,
	competitionRepo repositories.CompetitionRepository,
	roundRepo repositories.VotingRoundRepository,
	contestantRepo repositories.ContestantRepository,
	tiers []pricing.VotePriceTier,
	hub Broadcaster,
	logger *slog.Logger,
) (*VoteService, error) {
	// Дыры в тирах — внутренняя ошибка конфигурации: ловим при старте.
	if err := pricing.ValidateTiers(tiers); err != nil {
		return nil, err
	}
	return &VoteService{
		db:              db,
		competitionRepo: competitionRepo,
		roundRepo:       roundRepo,
		contestantRepo:  contestantRepo,
		tiers:           tiers,
		hub:             hub,
		logger:          logger,
		now:             time.Now,
	}, nil
}

// WithClock подменяет источник времени (для тестов).
func (s *VoteService) WithClock(now func() time.Time) *VoteService {
	s.now = now
	return s
}

// PurchaseVotes начисляет count голосов участнику по тарифу бандлера и
// прибавляет выручку конкурсу.
func (s *VoteService) PurchaseVotes(ctx context.Context, competitionID, contestantID, count int) (*VotePurchaseResult, error) {
	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}

	// Раунды имеют приоритет над voting_start/voting_end при вычислении
	// фазы, строка конкурса их не содержит.
	rounds, err := s.roundRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load voting rounds for competition %d: %w", competitionID, err)
	}
	competition.VotingRounds = rounds

	phase := lifecycle.ComputePhase(competition.Status, lifecycle.TimelineOf(competition), s.now())
	if phase != models.PhaseVoting {
		return nil, ErrCompetitionNotVotable
	}

	contestant, err := s.contestantRepo.GetByID(ctx, contestantID)
	if err != nil {
		if errors.Is(err, repositories.ErrContestantNotFound) {
			return nil, ErrContestantNotFound
		}
		return nil, err
	}
	if contestant.CompetitionID != competitionID {
		return nil, ErrContestantNotFound
	}

	unitPrice, err := pricing.PriceForVotes(count, competition.PricePerVote, s.tiers, competition.UseVoteBundler)
	if err != nil {
		return nil, err
	}
	total, err := pricing.BundleTotal(count, competition.PricePerVote, s.tiers, competition.UseVoteBundler)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin vote purchase transaction: %w", err)
	}
	defer tx.Rollback()

	totalVotes, err := s.contestantRepo.AddVotes(ctx, tx, contestantID, count)
	if err != nil {
		return nil, err
	}
	if err := s.competitionRepo.AddVoteRevenue(ctx, tx, competitionID, total); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit vote purchase: %w", err)
	}

	s.broadcastVotes(competitionID, contestantID, totalVotes)

	return &VotePurchaseResult{
		ContestantID: contestantID,
		Votes:        count,
		TotalVotes:   totalVotes,
		UnitPrice:    unitPrice,
		Total:        total,
	}, nil
}

// AddManualVotes — админское начисление без выручки. Разрешено только при
// allow_manual_votes.
func (s *VoteService) AddManualVotes(ctx context.Context, competitionID, contestantID, count int) (int, error) {
	if count < 1 {
		return 0, pricing.ErrInvalidVoteCount
	}

	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return 0, mapCompetitionRepoError(err)
	}
	if !competition.AllowManualVotes {
		return 0, ErrManualVotesDisabled
	}

	totalVotes, err := s.contestantRepo.AddVotes(ctx, nil, contestantID, count)
	if err != nil {
		if errors.Is(err, repositories.ErrContestantNotFound) {
			return 0, ErrContestantNotFound
		}
		return 0, err
	}

	s.broadcastVotes(competitionID, contestantID, totalVotes)
	return totalVotes, nil
}

// PrizeSummary пересчитывает разбивку фонда из минимума и накопленной
// выручки. Никогда не персистится.
func (s *VoteService) PrizeSummary(ctx context.Context, competitionID int) (*pricing.PrizeBreakdown, error) {
	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}

	breakdown, err := pricing.CalculatePrizePool(competition.PrizePoolMinimum, competition.VoteRevenue)
	if err != nil {
		return nil, ErrPrizePoolBelowMinimum
	}
	return &breakdown, nil
}

// QuoteVotes — прайс пакета без покупки (для витрины).
func (s *VoteService) QuoteVotes(ctx context.Context, competitionID, count int) (*VotePurchaseResult, error) {
	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}

	unitPrice, err := pricing.PriceForVotes(count, competition.PricePerVote, s.tiers, competition.UseVoteBundler)
	if err != nil {
		return nil, err
	}
	total, err := pricing.BundleTotal(count, competition.PricePerVote, s.tiers, competition.UseVoteBundler)
	if err != nil {
		return nil, err
	}

	return &VotePurchaseResult{
		Votes:     count,
		UnitPrice: unitPrice,
		Total:     total,
	}, nil
}

func (s *VoteService) broadcastVotes(competitionID, contestantID, totalVotes int) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToCompetition(competitionID, map[string]interface{}{
		"type":          "VOTES_UPDATED",
		"contestant_id": contestantID,
		"votes":         totalVotes,
	})
}
