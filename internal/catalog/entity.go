// AngelaMos | 2026
// entity.go

package catalog

// Content is a course or a short. OneTimePayment with a positive
// OneTimePoint sells the whole item as a single entitlement.
type Content struct {
	ID             string `db:"id"               json:"id"`
	Title          string `db:"title"            json:"title"`
	UploaderID     string `db:"uploader_id"      json:"uploaderId"`
	OneTimePayment bool   `db:"one_time_payment" json:"oneTimePayment"`
	OneTimePoint   int64  `db:"one_time_point"   json:"oneTimePoint"`
	ViewCount      int64  `db:"view_count"       json:"viewCount"`
}

func (c *Content) SoldAsWhole() bool {
	return c.OneTimePayment && c.OneTimePoint > 0
}

// Chapter is either top-level or a leaf under a top-level group. Only a
// top-level chapter's SelectTotalPoints and TotalPoints are meaningful.
type Chapter struct {
	ID                string  `db:"id"                  json:"id"`
	ContentID         string  `db:"content_id"          json:"contentId"`
	ParentID          *string `db:"parent_id"           json:"parentId,omitempty"`
	Title             string  `db:"title"               json:"title"`
	SortOrder         int     `db:"sort_order"          json:"sortOrder"`
	Points            int64   `db:"points"              json:"points"`
	SelectTotalPoints bool    `db:"select_total_points" json:"selectTotalPoints"`
	TotalPoints       int64   `db:"total_points"        json:"totalPoints"`
	VideoKey          string  `db:"video_key"           json:"videoKey"`
}

func (c *Chapter) IsTopLevel() bool {
	return c.ParentID == nil
}

// SoldAsBundle reports a top-level group whose children are sold together
// for TotalPoints.
func (c *Chapter) SoldAsBundle() bool {
	return c.IsTopLevel() && c.SelectTotalPoints && c.TotalPoints > 0
}

// Tables names the content and chapter tables of one content family.
type Tables struct {
	Content  string
	Chapters string
}

var (
	CourseTables = Tables{Content: "courses", Chapters: "course_chapters"}
	ShortTables  = Tables{Content: "shorts", Chapters: "short_chapters"}
)
