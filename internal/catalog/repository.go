// AngelaMos | 2026
// repository.go

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/episode-ledger/internal/core"
)

// Reader is the read side of the content hierarchy. Catalog writes belong to
// the CRUD surface; the entitlement engine only reads.
type Reader interface {
	GetContent(ctx context.Context, contentID string) (*Content, error)
	GetChapter(ctx context.Context, chapterID string) (*Chapter, error)
	// GetParent returns nil for a top-level chapter.
	GetParent(ctx context.Context, chapterID string) (*Chapter, error)
	IsContentFree(ctx context.Context, contentID string) (bool, error)
}

type Repository interface {
	Reader
	IncrementViews(ctx context.Context, contentID string) error
}

type repository struct {
	db     core.DBTX
	tables Tables
}

func NewRepository(db core.DBTX, tables Tables) Repository {
	return &repository{db: db, tables: tables}
}

func (r *repository) GetContent(
	ctx context.Context,
	contentID string,
) (*Content, error) {
	query := r.db.Rebind(`
		SELECT id, title, uploader_id, one_time_payment, one_time_point, view_count
		FROM ` + r.tables.Content + `
		WHERE id = ?`)

	var content Content
	err := r.db.GetContext(ctx, &content, query, contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get content: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}

	return &content, nil
}

func (r *repository) GetChapter(
	ctx context.Context,
	chapterID string,
) (*Chapter, error) {
	query := r.db.Rebind(`
		SELECT id, content_id, parent_id, title, sort_order, points,
		       select_total_points, total_points, video_key
		FROM ` + r.tables.Chapters + `
		WHERE id = ?`)

	var chapter Chapter
	err := r.db.GetContext(ctx, &chapter, query, chapterID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get chapter: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get chapter: %w", err)
	}

	return &chapter, nil
}

func (r *repository) GetParent(
	ctx context.Context,
	chapterID string,
) (*Chapter, error) {
	chapter, err := r.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	return parentOf(ctx, r, chapter)
}

// IsContentFree reports content with no price anywhere: not sold as a whole,
// no priced chapter and no active bundle.
func (r *repository) IsContentFree(
	ctx context.Context,
	contentID string,
) (bool, error) {
	content, err := r.GetContent(ctx, contentID)
	if err != nil {
		return false, err
	}
	if content.SoldAsWhole() {
		return false, nil
	}

	query := r.db.Rebind(`
		SELECT COUNT(*)
		FROM ` + r.tables.Chapters + `
		WHERE content_id = ?
		  AND (points > 0
		       OR (parent_id IS NULL AND select_total_points = ? AND total_points > 0))`)

	var priced int
	if err := r.db.GetContext(ctx, &priced, query, contentID, true); err != nil {
		return false, fmt.Errorf("count priced chapters: %w", err)
	}

	return priced == 0, nil
}

func (r *repository) IncrementViews(ctx context.Context, contentID string) error {
	query := r.db.Rebind(`
		UPDATE ` + r.tables.Content + `
		SET view_count = view_count + 1
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, contentID)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("increment views: %w", core.ErrNotFound)
	}

	return nil
}

func parentOf(ctx context.Context, r Reader, chapter *Chapter) (*Chapter, error) {
	if chapter.IsTopLevel() {
		return nil, nil
	}

	parent, err := r.GetChapter(ctx, *chapter.ParentID)
	if err != nil {
		return nil, fmt.Errorf("get parent: %w", err)
	}

	return parent, nil
}
