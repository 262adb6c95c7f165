// AngelaMos | 2026
// dto.go

package ledger

import (
	"time"
)

type PointsResponse struct {
	UserID      string               `json:"userId"`
	Balance     int64                `json:"balance"`
	Adjustments []AdjustmentResponse `json:"adjustments"`
}

type AdjustmentResponse struct {
	ID           string    `json:"id"`
	Delta        int64     `json:"delta"`
	BalanceAfter int64     `json:"balanceAfter"`
	Reason       string    `json:"reason"`
	OrderID      string    `json:"orderId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func ToAdjustmentResponse(a Adjustment) AdjustmentResponse {
	resp := AdjustmentResponse{
		ID:           a.ID,
		Delta:        a.Delta,
		BalanceAfter: a.BalanceAfter,
		Reason:       a.Reason,
		CreatedAt:    a.CreatedAt,
	}
	if a.OrderID != nil {
		resp.OrderID = *a.OrderID
	}
	return resp
}

func ToAdjustmentResponseList(adjustments []Adjustment) []AdjustmentResponse {
	result := make([]AdjustmentResponse, len(adjustments))
	for i, a := range adjustments {
		result[i] = ToAdjustmentResponse(a)
	}
	return result
}
