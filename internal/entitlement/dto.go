// AngelaMos | 2026
// dto.go

package entitlement

import (
	"fmt"
)

type OrderPath struct {
	ContentID string `validate:"required,max=64,printascii"`
	ChapterID string `validate:"required,max=64,printascii"`
}

type CheckResponse struct {
	HasPurchased   bool   `json:"hasPurchased"`
	IsFree         bool   `json:"isFree,omitempty"`
	NeedsFreeOrder bool   `json:"needsFreeOrder,omitempty"`
	Points         int64  `json:"points,omitempty"`
	Scope          Scope  `json:"scope,omitempty"`
	Reason         string `json:"reason,omitempty"`
	OrderID        string `json:"orderId,omitempty"`
	VideoURL       string `json:"videoUrl,omitempty"`
	Message        string `json:"message,omitempty"`
}

type PurchaseResponse struct {
	OrderID       string `json:"orderId"`
	Scope         Scope  `json:"scope"`
	VideoURL      string `json:"videoUrl"`
	PointsCharged int64  `json:"pointsCharged"`
	AlreadyOwned  bool   `json:"alreadyOwned"`
	Balance       int64  `json:"balance"`
}

func ToCheckResponse(r *CheckResult) CheckResponse {
	d := r.Decision
	resp := CheckResponse{
		IsFree: d.Free,
		Scope:  d.Scope,
		Reason: d.Reason,
	}

	switch d.Status {
	case StatusGranted:
		resp.HasPurchased = true
		resp.VideoURL = r.VideoURL
		if d.Entitlement != nil {
			resp.OrderID = d.Entitlement.ID
		}
	case StatusNeedsFreeGrant:
		resp.NeedsFreeOrder = true
		resp.Message = "free chapter, place a free order to start watching"
	case StatusRequired:
		resp.Points = d.Points
		resp.Message = requiredMessage(d)
	}

	return resp
}

func ToPurchaseResponse(r *PurchaseResult) PurchaseResponse {
	return PurchaseResponse{
		OrderID:       r.OrderID,
		Scope:         r.Scope,
		VideoURL:      r.VideoURL,
		PointsCharged: r.PointsCharged,
		AlreadyOwned:  r.AlreadyOwned,
		Balance:       r.Balance,
	}
}

func requiredMessage(d Decision) string {
	switch d.Scope {
	case ScopeParent:
		return fmt.Sprintf("this chapter is sold as part of a bundle for %d points", d.Points)
	case ScopeContent:
		return fmt.Sprintf("this title is sold as a whole for %d points", d.Points)
	default:
		return fmt.Sprintf("this chapter costs %d points", d.Points)
	}
}
