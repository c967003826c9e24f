package rewards

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrAlreadySpunToday is returned when a user spins twice on the same day.
var ErrAlreadySpunToday = errors.New("already spun today")

// Service is the daily spin: one weighted wheel spin per user per day, with
// won prizes persisted as rewards.
type Service struct {
	wheel  *Wheel
	repo   Repository
	logger *log.Logger

	now func() time.Time
}

func NewService(wheel *Wheel, repo Repository, logger *log.Logger) *Service {
	return &Service{wheel: wheel, repo: repo, logger: logger, now: time.Now}
}

// SpinDaily spins the wheel for the user. The reward is nil when the wheel
// lands on the blank segment.
func (s *Service) SpinDaily(ctx context.Context, userID string) (Prize, *Reward, error) {
	prize := s.wheel.Spin()

	day := s.now().UTC().Truncate(24 * time.Hour)
	reward, err := s.repo.RecordSpin(ctx, userID, day, prize)
	if err != nil {
		if errors.Is(err, ErrAlreadySpunToday) {
			return Prize{}, nil, err
		}
		return Prize{}, nil, fmt.Errorf("record spin: %w", err)
	}

	s.logger.Printf("user %s won %s on the daily spin", userID, prize.ID)
	return prize, reward, nil
}

// ListRewards returns the user's won rewards, newest first.
func (s *Service) ListRewards(ctx context.Context, userID string) ([]Reward, error) {
	return s.repo.ListByUser(ctx, userID)
}
