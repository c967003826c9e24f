package rewards

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Reward struct {
	ID      string    `json:"rewardId"`
	UserID  string    `json:"userId"`
	PrizeID string    `json:"prizeId"`
	Type    PrizeType `json:"type"`
	Value   int       `json:"value"`
	WonAt   time.Time `json:"wonAt"`
}

type Repository interface {
	// RecordSpin stores the daily spin and, when the prize is worth
	// something, the won reward, atomically. Returns ErrAlreadySpunToday
	// when the user has already spun on the given day.
	RecordSpin(ctx context.Context, userID string, day time.Time, prize Prize) (*Reward, error)
	ListByUser(ctx context.Context, userID string) ([]Reward, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) RecordSpin(ctx context.Context, userID string, day time.Time, prize Prize) (*Reward, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO daily_spins (user_id, spin_date, prize_id) VALUES ($1, $2, $3)`,
		userID, day.Format("2006-01-02"), prize.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrAlreadySpunToday
		}
		return nil, fmt.Errorf("insert daily spin: %w", err)
	}

	var reward *Reward
	if prize.Type != PrizeNothing {
		reward = &Reward{
			ID:      uuid.NewString(),
			UserID:  userID,
			PrizeID: prize.ID,
			Type:    prize.Type,
			Value:   prize.Value,
			WonAt:   time.Now().UTC(),
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO rewards (id, user_id, prize_id, prize_type, value, won_at)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			reward.ID, reward.UserID, reward.PrizeID, reward.Type, reward.Value, reward.WonAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert reward: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return reward, nil
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]Reward, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, prize_id, prize_type, value, won_at
         FROM rewards WHERE user_id = $1 ORDER BY won_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select rewards: %w", err)
	}
	defer rows.Close()

	var rewards []Reward
	for rows.Next() {
		var rw Reward
		if err := rows.Scan(&rw.ID, &rw.UserID, &rw.PrizeID, &rw.Type, &rw.Value, &rw.WonAt); err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return rewards, nil
}
