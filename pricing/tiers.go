package pricing

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrInvalidTierConfig = errors.New("invalid vote price tier configuration")
	ErrInvalidVoteCount  = errors.New("vote count must be at least 1")
	ErrInvalidBasePrice  = errors.New("base price per vote must be positive")
)

// VotePriceTier — полоса объёмной скидки при пакетной покупке голосов.
// Границы включительные с обеих сторон: count, равный MaxVotes, остаётся
// в этом тире, а не в следующем. MaxVotes = 0 означает открытый верх
// последнего тира.
type VotePriceTier struct {
	MinVotes        int     `json:"min_votes"`
	MaxVotes        int     `json:"max_votes"`
	DiscountPercent float64 `json:"discount_percent"`
	Multiplier      float64 `json:"price_per_vote_multiplier"`
}

// DefaultTiers — статическая конфигурация по умолчанию.
var DefaultTiers = []VotePriceTier{
	{MinVotes: 1, MaxVotes: 9, DiscountPercent: 0, Multiplier: 1.0},
	{MinVotes: 10, MaxVotes: 24, DiscountPercent: 10, Multiplier: 0.9},
	{MinVotes: 25, MaxVotes: 49, DiscountPercent: 15, Multiplier: 0.85},
	{MinVotes: 50, MaxVotes: 99, DiscountPercent: 20, Multiplier: 0.8},
	{MinVotes: 100, MaxVotes: 0, DiscountPercent: 25, Multiplier: 0.75},
}

// ValidateTiers проверяет конфигурацию на этапе настройки: сортировка по
// MinVotes, непрерывность от 1, отсутствие пересечений и дыр, открытый
// последний тир. Дыра на этапе подбора тира — внутренняя ошибка
// конфигурации, а не ошибка пользователя.
func ValidateTiers(tiers []VotePriceTier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: empty tier list", ErrInvalidTierConfig)
	}

	sorted := sort.SliceIsSorted(tiers, func(i, j int) bool {
		return tiers[i].MinVotes < tiers[j].MinVotes
	})
	if !sorted {
		return fmt.Errorf("%w: tiers must be sorted ascending by min_votes", ErrInvalidTierConfig)
	}

	if tiers[0].MinVotes != 1 {
		return fmt.Errorf("%w: first tier must start at 1 vote", ErrInvalidTierConfig)
	}

	for i, t := range tiers {
		if t.Multiplier <= 0 || t.Multiplier > 1 {
			return fmt.Errorf("%w: tier %d multiplier out of (0, 1]", ErrInvalidTierConfig, i)
		}
		last := i == len(tiers)-1
		if last {
			if t.MaxVotes != 0 {
				return fmt.Errorf("%w: last tier must be open-ended", ErrInvalidTierConfig)
			}
			continue
		}
		if t.MaxVotes < t.MinVotes {
			return fmt.Errorf("%w: tier %d max below min", ErrInvalidTierConfig, i)
		}
		if tiers[i+1].MinVotes != t.MaxVotes+1 {
			return fmt.Errorf("%w: gap or overlap between tiers %d and %d", ErrInvalidTierConfig, i, i+1)
		}
	}

	return nil
}

// PriceForVotes возвращает цену за один голос при покупке count голосов.
// При выключенном бандлере всегда базовая цена.
func PriceForVotes(count int, basePrice float64, tiers []VotePriceTier, bundlerEnabled bool) (float64, error) {
	if count < 1 {
		return 0, ErrInvalidVoteCount
	}
	if basePrice <= 0 {
		return 0, ErrInvalidBasePrice
	}
	if !bundlerEnabled {
		return basePrice, nil
	}

	for _, t := range tiers {
		if count < t.MinVotes {
			continue
		}
		if t.MaxVotes == 0 || count <= t.MaxVotes {
			return roundCents(basePrice * t.Multiplier), nil
		}
	}

	// Валидация тиров гарантирует покрытие всех count ≥ 1; сюда можно
	// попасть только с непроверенной конфигурацией.
	return 0, fmt.Errorf("%w: no tier covers count %d", ErrInvalidTierConfig, count)
}

// BundleTotal — итоговая стоимость пакета голосов.
func BundleTotal(count int, basePrice float64, tiers []VotePriceTier, bundlerEnabled bool) (float64, error) {
	unit, err := PriceForVotes(count, basePrice, tiers, bundlerEnabled)
	if err != nil {
		return 0, err
	}
	return math.Round(unit*float64(count)*100) / 100, nil
}
