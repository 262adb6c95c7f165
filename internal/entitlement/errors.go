// AngelaMos | 2026
// errors.go

package entitlement

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrTransactionTimeout = errors.New("purchase transaction timed out")
	ErrUnknownFamily      = errors.New("unknown content family")

	// errConflict marks a lost race on the entitlement unique index. The
	// whole transaction is rolled back and retried.
	errConflict = errors.New("entitlement already recorded by a concurrent purchase")
)

type InsufficientPointsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf(
		"insufficient points: need %d, have %d",
		e.Required,
		e.Available,
	)
}

func (e *InsufficientPointsError) Unwrap() error {
	return ErrInsufficientPoints
}

func (e *InsufficientPointsError) Shortfall() int64 {
	if e.Available >= e.Required {
		return 0
	}
	return e.Required - e.Available
}
