// AngelaMos | 2026
// entity.go

package entitlement

import (
	"time"
)

// Entitlement is permanent proof that a user may watch a scope of one
// content item. A nil ChapterID covers the whole item. Rows are never
// updated or deleted.
type Entitlement struct {
	ID            string    `db:"id"`
	Family        string    `db:"family"`
	UserID        string    `db:"user_id"`
	ContentID     string    `db:"content_id"`
	ChapterID     *string   `db:"chapter_id"`
	PointsCharged int64     `db:"points_charged"`
	CreatedAt     time.Time `db:"created_at"`
}

func (e *Entitlement) IsContentWide() bool {
	return e.ChapterID == nil
}

func (e *Entitlement) Covers(chapterID string) bool {
	return e.ChapterID != nil && *e.ChapterID == chapterID
}

type Scope string

const (
	ScopeFree    Scope = "free"
	ScopeContent Scope = "content"
	ScopeParent  Scope = "parent"
	ScopeLeaf    Scope = "leaf"
)

// FamilyStats summarizes recorded entitlements for one content family.
type FamilyStats struct {
	Family        string `db:"family"         json:"family"`
	Orders        int64  `db:"orders"         json:"orders"`
	FreeGrants    int64  `db:"free_grants"    json:"free_grants"`
	PointsCharged int64  `db:"points_charged" json:"points_charged"`
}
