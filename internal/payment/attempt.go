package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AttemptStatus tracks what we know about a mobile money charge.
type AttemptStatus string

const (
	AttemptInitiated AttemptStatus = "initiated"
	AttemptSucceeded AttemptStatus = "succeeded"
	AttemptFailed    AttemptStatus = "failed"
	// AttemptUnknown means the provider call errored before reporting an
	// outcome; the reconciliation worker resolves these.
	AttemptUnknown AttemptStatus = "unknown"
	// AttemptOrphaned means the provider confirmed the charge but no order
	// exists for it. Flagged for support follow-up, never auto-resolved.
	AttemptOrphaned AttemptStatus = "orphaned"
)

type Attempt struct {
	ID             string
	UserID         string
	Method         Method
	Amount         int64
	Phone          string
	IdempotencyKey string
	Status         AttemptStatus
	Reference      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type AttemptRepository interface {
	Create(ctx context.Context, a *Attempt) error
	MarkOutcome(ctx context.Context, idempotencyKey string, status AttemptStatus, reference string) error
	FindUnknownBefore(ctx context.Context, before time.Time, limit int) ([]Attempt, error)
}

type attemptRepo struct {
	db *sql.DB
}

func NewAttemptRepository(db *sql.DB) AttemptRepository {
	return &attemptRepo{db: db}
}

func (r *attemptRepo) Create(ctx context.Context, a *Attempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_attempts (id, user_id, method, amount, phone, idempotency_key, status, reference, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.UserID, a.Method, a.Amount, a.Phone, a.IdempotencyKey, a.Status, a.Reference, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment attempt: %w", err)
	}
	return nil
}

func (r *attemptRepo) MarkOutcome(ctx context.Context, idempotencyKey string, status AttemptStatus, reference string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_attempts
         SET status = $2, reference = COALESCE(NULLIF($3, ''), reference), updated_at = NOW()
         WHERE idempotency_key = $1`,
		idempotencyKey, status, reference,
	)
	if err != nil {
		return fmt.Errorf("update payment attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return errors.New("payment attempt not found")
	}
	return nil
}

func (r *attemptRepo) FindUnknownBefore(ctx context.Context, before time.Time, limit int) ([]Attempt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, method, amount, phone, idempotency_key, status, reference, created_at, updated_at
         FROM payment_attempts
         WHERE status = $1 AND updated_at < $2
         ORDER BY updated_at
         LIMIT $3`,
		AttemptUnknown, before, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select payment attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.Method, &a.Amount, &a.Phone, &a.IdempotencyKey, &a.Status, &a.Reference, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan payment attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return attempts, nil
}

type ctxKey int

const ctxUserID ctxKey = iota

// WithUserID attaches the paying user's id to the context so attempts can be
// tied back to a user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserID, userID)
}

func userIDFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxUserID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
