// AngelaMos | 2026
// entity.go

package ledger

import (
	"time"
)

// Account is the ledger's view of a user row. Points is the materialized
// balance; point_adjustments holds the history that produced it.
type Account struct {
	ID        string    `db:"id"`
	Role      string    `db:"role"`
	Points    int64     `db:"points"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type Adjustment struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Delta        int64     `db:"delta"`
	BalanceAfter int64     `db:"balance_after"`
	Reason       string    `db:"reason"`
	OrderID      *string   `db:"order_id"`
	CreatedAt    time.Time `db:"created_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	ReasonPurchase = "purchase"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)
