package rewards

import (
	"errors"
	"math/rand/v2"
)

type PrizeType string

const (
	PrizeDiscount PrizeType = "discount"
	PrizePoints   PrizeType = "points"
	PrizeGift     PrizeType = "gift"
	PrizeNothing  PrizeType = "nothing"
)

// Prize is one wheel segment. Probability is a weight out of the sum of all
// weights; the defaults sum to 100.
type Prize struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        PrizeType `json:"type"`
	Value       int       `json:"value"`
	Probability int       `json:"probability"`
}

// DefaultPrizes is the storefront wheel: two discounts, two point packs, a
// free gift and a blank.
func DefaultPrizes() []Prize {
	return []Prize{
		{ID: "discount_10", Name: "10% Discount", Type: PrizeDiscount, Value: 10, Probability: 20},
		{ID: "discount_20", Name: "20% Discount", Type: PrizeDiscount, Value: 20, Probability: 15},
		{ID: "points_100", Name: "100 Points", Type: PrizePoints, Value: 100, Probability: 25},
		{ID: "points_200", Name: "200 Points", Type: PrizePoints, Value: 200, Probability: 15},
		{ID: "gift", Name: "Free Gift", Type: PrizeGift, Value: 1, Probability: 5},
		{ID: "nothing", Name: "Try Again", Type: PrizeNothing, Value: 0, Probability: 20},
	}
}

// Wheel picks prizes with probability proportional to their weight.
type Wheel struct {
	prizes []Prize
	total  int

	randIntN func(n int) int
}

func NewWheel(prizes []Prize) (*Wheel, error) {
	if len(prizes) == 0 {
		return nil, errors.New("wheel needs at least one prize")
	}
	total := 0
	for _, p := range prizes {
		if p.Probability <= 0 {
			return nil, errors.New("prize weights must be positive")
		}
		total += p.Probability
	}
	return &Wheel{prizes: prizes, total: total, randIntN: rand.IntN}, nil
}

func (w *Wheel) Spin() Prize {
	n := w.randIntN(w.total)
	for _, p := range w.prizes {
		n -= p.Probability
		if n < 0 {
			return p
		}
	}
	// Unreachable with positive weights, but keep the last prize as a floor.
	return w.prizes[len(w.prizes)-1]
}
