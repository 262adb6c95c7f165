// AngelaMos | 2026
// service.go

package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/episode-ledger/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	return account.Points, nil
}

// Summary returns the caller's balance with their most recent adjustments.
func (s *Service) Summary(
	ctx context.Context,
	userID string,
	limit int,
) (*PointsResponse, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.UnauthorizedError("unknown user")
		}
		return nil, err
	}

	history, err := s.repo.History(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("points summary: %w", err)
	}

	return &PointsResponse{
		UserID:      account.ID,
		Balance:     account.Points,
		Adjustments: ToAdjustmentResponseList(history),
	}, nil
}
