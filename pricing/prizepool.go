package pricing

import (
	"errors"
	"math"
)

// MinimumPrizePool — нижняя граница гарантированного призового фонда.
const MinimumPrizePool = 1000.0

// Доли каждого доллара выручки с голосов. Всегда в сумме 100%.
const (
	RevenueSharePrizePool = 0.50
	RevenueShareHost      = 0.30
	RevenueSharePlatform  = 0.20
)

// Доли распределения гарантированного минимума по местам.
const (
	firstPlaceShare  = 0.50
	secondPlaceShare = 0.30
)

var ErrPrizePoolBelowMinimum = errors.New("prize pool minimum is below the allowed floor")

// PrizeBreakdown — разбивка призового фонда. Value object, не персистится.
type PrizeBreakdown struct {
	FirstPrize     float64 `json:"first_prize"`
	SecondPrize    float64 `json:"second_prize"`
	ThirdPrize     float64 `json:"third_prize"`
	TotalPrizePool float64 `json:"total_prize_pool"`
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// CalculatePrizePool считает разбивку 50/30/20 против гарантированного
// минимума хоста. Выручка с голосов растит только видимый общий фонд
// (total = minimum + 0.5 × revenue), но не суммы по местам: хост не может
// обещать делёж денег, которые ещё не собраны.
//
// Третье место считается как остаток, чтобы split всегда сходился с
// минимумом копейка в копейку.
func CalculatePrizePool(minimumGuarantee, voteRevenue float64) (PrizeBreakdown, error) {
	if minimumGuarantee < MinimumPrizePool {
		return PrizeBreakdown{}, ErrPrizePoolBelowMinimum
	}

	first := roundCents(minimumGuarantee * firstPlaceShare)
	second := roundCents(minimumGuarantee * secondPlaceShare)
	third := roundCents(minimumGuarantee - first - second)

	return PrizeBreakdown{
		FirstPrize:     first,
		SecondPrize:    second,
		ThirdPrize:     third,
		TotalPrizePool: roundCents(minimumGuarantee + voteRevenue*RevenueSharePrizePool),
	}, nil
}
