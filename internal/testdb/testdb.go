// AngelaMos | 2026
// testdb.go

// Package testdb opens throwaway SQLite databases with the full schema
// applied, plus seed helpers for the catalog and user tables.
package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/episode-ledger/internal/core"
	"github.com/carterperez-dev/episode-ledger/internal/schema"
)

func SQLite(t testing.TB) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := sqlx.Open(core.DriverSQLite, core.SQLiteDSN(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = schema.Apply(context.Background(), db)
	require.NoError(t, err)

	return db
}

func SeedUser(t testing.TB, db *sqlx.DB, id, role string, points int64) {
	t.Helper()
	exec(t, db,
		`INSERT INTO users (id, name, role, points) VALUES (?, ?, ?, ?)`,
		id, id, role, points,
	)
}

type Content struct {
	ID             string
	UploaderID     string
	OneTimePayment bool
	OneTimePoint   int64
}

// SeedContent inserts into table, which is "courses" or "shorts".
func SeedContent(t testing.TB, db *sqlx.DB, table string, c Content) {
	t.Helper()
	exec(t, db,
		`INSERT INTO `+table+` (id, title, uploader_id, one_time_payment, one_time_point)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ID, c.UploaderID, c.OneTimePayment, c.OneTimePoint,
	)
}

type Chapter struct {
	ID                string
	ContentID         string
	ParentID          string
	Points            int64
	SelectTotalPoints bool
	TotalPoints       int64
	SortOrder         int
}

// SeedChapter inserts into table, which is "course_chapters" or
// "short_chapters". The video key is derived from the chapter ID.
func SeedChapter(t testing.TB, db *sqlx.DB, table string, c Chapter) {
	t.Helper()

	var parent *string
	if c.ParentID != "" {
		parent = &c.ParentID
	}

	exec(t, db,
		`INSERT INTO `+table+`
		 (id, content_id, parent_id, title, sort_order, points,
		  select_total_points, total_points, video_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ContentID, parent, c.ID, c.SortOrder, c.Points,
		c.SelectTotalPoints, c.TotalPoints, "videos/"+c.ID+".m3u8",
	)
}

func Points(t testing.TB, db *sqlx.DB, userID string) int64 {
	t.Helper()
	var points int64
	require.NoError(t, db.Get(&points, db.Rebind(`SELECT points FROM users WHERE id = ?`), userID))
	return points
}

func Count(t testing.TB, db *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, db.Rebind(query), args...))
	return n
}

func exec(t testing.TB, db *sqlx.DB, query string, args ...any) {
	t.Helper()
	_, err := db.Exec(db.Rebind(query), args...)
	require.NoError(t, err)
}
