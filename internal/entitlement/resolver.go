// AngelaMos | 2026
// resolver.go

package entitlement

import (
	"github.com/carterperez-dev/episode-ledger/internal/catalog"
)

type Status int

const (
	StatusGranted Status = iota + 1
	// StatusNeedsFreeGrant is a free chapter a signed-in user has not yet
	// recorded. Purchase records it at zero points.
	StatusNeedsFreeGrant
	StatusRequired
)

func (s Status) String() string {
	switch s {
	case StatusGranted:
		return "granted"
	case StatusNeedsFreeGrant:
		return "needs_free_grant"
	case StatusRequired:
		return "required"
	default:
		return "unknown"
	}
}

const (
	ReasonFree      = "free"
	ReasonOwner     = "owner"
	ReasonPurchased = "purchased"
)

// Snapshot is everything Resolve looks at. Parent is nil for a top-level
// chapter. Owned holds the caller's entitlements on Content and is empty
// for anonymous callers.
type Snapshot struct {
	UserID      string
	Content     *catalog.Content
	Chapter     *catalog.Chapter
	Parent      *catalog.Chapter
	ContentFree bool
	Owned       []Entitlement
}

type Decision struct {
	Status Status
	Scope  Scope
	// Points is the price of Scope when Status is StatusRequired.
	Points int64
	Free   bool
	Reason string
	// Entitlement is the record that grants access, when there is one.
	Entitlement *Entitlement
	// ScopeChapterID is the chapter an entitlement for Scope is recorded
	// against; nil means the whole content item.
	ScopeChapterID *string
}

func (d Decision) Granted() bool {
	return d.Status == StatusGranted
}

// Resolve applies the access rules in priority order. The first matching
// rule decides:
//
//  1. free chapter, unless a bundle or whole-content price covers it
//  2. whole-content entitlement, or one recorded for the chapter or its group
//  3. owner of the content
//  4. group sold as a bundle
//  5. content sold as a whole
//  6. single chapter
func Resolve(s Snapshot) Decision {
	chapterID := s.Chapter.ID
	bundle := bundleOf(s)

	if s.ContentFree || (bundle == nil && !s.Content.SoldAsWhole() && s.Chapter.Points == 0) {
		if s.UserID == "" {
			return Decision{Status: StatusGranted, Scope: ScopeFree, Free: true, Reason: ReasonFree}
		}
		if e := s.find(&chapterID); e != nil {
			return Decision{
				Status:         StatusGranted,
				Scope:          ScopeFree,
				Free:           true,
				Reason:         ReasonFree,
				Entitlement:    e,
				ScopeChapterID: &chapterID,
			}
		}
		return Decision{
			Status:         StatusNeedsFreeGrant,
			Scope:          ScopeFree,
			Free:           true,
			Reason:         ReasonFree,
			ScopeChapterID: &chapterID,
		}
	}

	if s.UserID == "" {
		return required(s, bundle)
	}

	if e := s.find(nil); e != nil {
		return Decision{
			Status:      StatusGranted,
			Scope:       ScopeContent,
			Reason:      ReasonPurchased,
			Entitlement: e,
		}
	}

	if e := s.find(&chapterID); e != nil {
		scope := ScopeLeaf
		if bundle == s.Chapter {
			scope = ScopeParent
		}
		return Decision{
			Status:         StatusGranted,
			Scope:          scope,
			Free:           e.PointsCharged == 0,
			Reason:         ReasonPurchased,
			Entitlement:    e,
			ScopeChapterID: &chapterID,
		}
	}

	if s.Parent != nil {
		if e := s.find(&s.Parent.ID); e != nil {
			return Decision{
				Status:         StatusGranted,
				Scope:          ScopeParent,
				Reason:         ReasonPurchased,
				Entitlement:    e,
				ScopeChapterID: &s.Parent.ID,
			}
		}
	}

	if s.UserID == s.Content.UploaderID {
		return Decision{
			Status:         StatusGranted,
			Scope:          ScopeLeaf,
			Free:           true,
			Reason:         ReasonOwner,
			ScopeChapterID: &chapterID,
		}
	}

	return required(s, bundle)
}

// required covers rules 4 to 6 once no entitlement matched.
func required(s Snapshot, bundle *catalog.Chapter) Decision {
	if bundle != nil {
		return Decision{
			Status:         StatusRequired,
			Scope:          ScopeParent,
			Points:         bundle.TotalPoints,
			ScopeChapterID: &bundle.ID,
		}
	}

	if s.Content.SoldAsWhole() {
		return Decision{
			Status: StatusRequired,
			Scope:  ScopeContent,
			Points: s.Content.OneTimePoint,
		}
	}

	chapterID := s.Chapter.ID
	return Decision{
		Status:         StatusRequired,
		Scope:          ScopeLeaf,
		Points:         s.Chapter.Points,
		ScopeChapterID: &chapterID,
	}
}

// bundleOf returns the group chapter whose bundle price governs the target,
// which is the target itself when a bundled group is requested directly.
func bundleOf(s Snapshot) *catalog.Chapter {
	if s.Parent != nil {
		if s.Parent.SoldAsBundle() {
			return s.Parent
		}
		return nil
	}
	if s.Chapter.SoldAsBundle() {
		return s.Chapter
	}
	return nil
}

// find returns the entitlement recorded for chapterID, or the whole-content
// entitlement when chapterID is nil.
func (s Snapshot) find(chapterID *string) *Entitlement {
	for i := range s.Owned {
		e := &s.Owned[i]
		if chapterID == nil {
			if e.IsContentWide() {
				return e
			}
			continue
		}
		if e.Covers(*chapterID) {
			return e
		}
	}
	return nil
}
