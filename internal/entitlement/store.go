// AngelaMos | 2026
// store.go

package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/episode-ledger/internal/core"
)

type Store interface {
	// ListForContent returns every entitlement the user holds on one item.
	ListForContent(
		ctx context.Context,
		family, userID, contentID string,
	) ([]Entitlement, error)
	// Insert reports false when an equal (family, user, content, chapter)
	// row already exists. Nothing is written in that case.
	Insert(ctx context.Context, e *Entitlement) (bool, error)
	Stats(ctx context.Context) ([]FamilyStats, error)
}

type store struct {
	db core.DBTX
}

func NewStore(db core.DBTX) Store {
	return &store{db: db}
}

func (s *store) ListForContent(
	ctx context.Context,
	family, userID, contentID string,
) ([]Entitlement, error) {
	query := s.db.Rebind(`
		SELECT id, family, user_id, content_id, chapter_id, points_charged, created_at
		FROM entitlements
		WHERE family = ? AND user_id = ? AND content_id = ?
		ORDER BY created_at, id`)

	entitlements := []Entitlement{}
	if err := s.db.SelectContext(ctx, &entitlements, query,
		family, userID, contentID,
	); err != nil {
		return nil, fmt.Errorf("list entitlements: %w", err)
	}

	return entitlements, nil
}

func (s *store) Insert(ctx context.Context, e *Entitlement) (bool, error) {
	if e.ID == "" {
		e.ID = core.NewID(core.PrefixOrder)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := s.db.Rebind(`
		INSERT INTO entitlements
			(id, family, user_id, content_id, chapter_id, points_charged, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`)

	result, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.Family,
		e.UserID,
		e.ContentID,
		e.ChapterID,
		e.PointsCharged,
		e.CreatedAt,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert entitlement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert entitlement: %w", err)
	}

	return rows == 1, nil
}

func (s *store) Stats(ctx context.Context) ([]FamilyStats, error) {
	query := `
		SELECT family,
		       COUNT(*) AS orders,
		       CAST(SUM(CASE WHEN points_charged = 0 THEN 1 ELSE 0 END) AS BIGINT) AS free_grants,
		       CAST(COALESCE(SUM(points_charged), 0) AS BIGINT) AS points_charged
		FROM entitlements
		GROUP BY family
		ORDER BY family`

	stats := []FamilyStats{}
	if err := s.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("entitlement stats: %w", err)
	}

	return stats, nil
}
