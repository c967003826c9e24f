package rewards

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRewardRepo struct {
	recordSpinFunc func(ctx context.Context, userID string, day time.Time, prize Prize) (*Reward, error)
	listByUserFunc func(ctx context.Context, userID string) ([]Reward, error)

	recordedDays []time.Time
}

func (f *fakeRewardRepo) RecordSpin(ctx context.Context, userID string, day time.Time, prize Prize) (*Reward, error) {
	f.recordedDays = append(f.recordedDays, day)
	if f.recordSpinFunc != nil {
		return f.recordSpinFunc(ctx, userID, day, prize)
	}
	return &Reward{UserID: userID, PrizeID: prize.ID, Type: prize.Type, Value: prize.Value}, nil
}

func (f *fakeRewardRepo) ListByUser(ctx context.Context, userID string) ([]Reward, error) {
	if f.listByUserFunc != nil {
		return f.listByUserFunc(ctx, userID)
	}
	return nil, nil
}

func fixedWheel(t *testing.T, roll int) *Wheel {
	t.Helper()
	w, err := NewWheel(DefaultPrizes())
	require.NoError(t, err)
	w.randIntN = func(n int) int { return roll }
	return w
}

func TestSpinDaily_RecordsPrize(t *testing.T) {
	repo := &fakeRewardRepo{}
	svc := NewService(fixedWheel(t, 0), repo, log.New(io.Discard, "", 0))

	prize, reward, err := svc.SpinDaily(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "discount_10", prize.ID)
	require.NotNil(t, reward)
	assert.Equal(t, "discount_10", reward.PrizeID)
}

func TestSpinDaily_UsesUTCDay(t *testing.T) {
	repo := &fakeRewardRepo{}
	svc := NewService(fixedWheel(t, 0), repo, log.New(io.Discard, "", 0))
	svc.now = func() time.Time {
		return time.Date(2025, 3, 14, 23, 30, 0, 0, time.FixedZone("WAT", 3600))
	}

	_, _, err := svc.SpinDaily(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, repo.recordedDays, 1)
	// 23:30 WAT is 22:30 UTC, still the 14th.
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), repo.recordedDays[0])
}

func TestSpinDaily_SecondSpinSameDay(t *testing.T) {
	repo := &fakeRewardRepo{
		recordSpinFunc: func(ctx context.Context, userID string, day time.Time, prize Prize) (*Reward, error) {
			return nil, ErrAlreadySpunToday
		},
	}
	svc := NewService(fixedWheel(t, 0), repo, log.New(io.Discard, "", 0))

	_, _, err := svc.SpinDaily(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrAlreadySpunToday)
}

func TestSpinDaily_NothingPrizeHasNoReward(t *testing.T) {
	repo := &fakeRewardRepo{
		recordSpinFunc: func(ctx context.Context, userID string, day time.Time, prize Prize) (*Reward, error) {
			return nil, nil // blank segment stores no reward
		},
	}
	svc := NewService(fixedWheel(t, 99), repo, log.New(io.Discard, "", 0))

	prize, reward, err := svc.SpinDaily(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, PrizeNothing, prize.Type)
	assert.Nil(t, reward)
}
