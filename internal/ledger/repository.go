// AngelaMos | 2026
// repository.go

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/episode-ledger/internal/core"
)

// ErrInsufficientFunds is returned by Debit when the balance is below the
// requested amount. Nothing is written in that case.
var ErrInsufficientFunds = errors.New("insufficient points")

type Repository interface {
	GetAccount(ctx context.Context, userID string) (*Account, error)
	Debit(
		ctx context.Context,
		userID string,
		amount int64,
		orderID, reason string,
	) (int64, error)
	History(ctx context.Context, userID string, limit int) ([]Adjustment, error)
}

type repository struct {
	db core.DBTX
}

// NewRepository binds the ledger to db. Debit must be given a transaction
// so the balance change commits together with the caller's other writes.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetAccount(
	ctx context.Context,
	userID string,
) (*Account, error) {
	query := r.db.Rebind(`
		SELECT id, role, points, updated_at
		FROM users
		WHERE id = ?`)

	var account Account
	err := r.db.GetContext(ctx, &account, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	return &account, nil
}

// Debit subtracts amount from the user's balance and appends the matching
// adjustment row. The guard in the WHERE clause keeps the balance from going
// negative even when two transactions race on the same user.
func (r *repository) Debit(
	ctx context.Context,
	userID string,
	amount int64,
	orderID, reason string,
) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit %d: %w", amount, core.ErrInvalidInput)
	}

	if amount == 0 {
		account, err := r.GetAccount(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("debit: %w", err)
		}
		return account.Points, nil
	}

	now := time.Now().UTC()

	query := r.db.Rebind(`
		UPDATE users
		SET points = points - ?, updated_at = ?
		WHERE id = ? AND points >= ?
		RETURNING points`)

	var balance int64
	err := r.db.GetContext(ctx, &balance, query, amount, now, userID, amount)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetAccount(ctx, userID); getErr != nil {
			return 0, fmt.Errorf("debit: %w", getErr)
		}
		return 0, fmt.Errorf("debit: %w", ErrInsufficientFunds)
	}
	if err != nil {
		return 0, fmt.Errorf("debit: %w", err)
	}

	insert := r.db.Rebind(`
		INSERT INTO point_adjustments
			(id, user_id, delta, balance_after, reason, order_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)

	var order *string
	if orderID != "" {
		order = &orderID
	}

	if _, err := r.db.ExecContext(ctx, insert,
		core.NewID(core.PrefixAdjustment),
		userID,
		-amount,
		balance,
		reason,
		order,
		now,
	); err != nil {
		return 0, fmt.Errorf("record adjustment: %w", err)
	}

	return balance, nil
}

func (r *repository) History(
	ctx context.Context,
	userID string,
	limit int,
) ([]Adjustment, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	query := r.db.Rebind(`
		SELECT id, user_id, delta, balance_after, reason, order_id, created_at
		FROM point_adjustments
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`)

	adjustments := []Adjustment{}
	if err := r.db.SelectContext(ctx, &adjustments, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}

	return adjustments, nil
}
