// AngelaMos | 2026
// schema_test.go

package schema

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApplyRunsOnce(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	applied, err := Apply(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql"}, applied)

	applied, err = Apply(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, applied)

	pending, err := Pending(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEntitlementUniqueness(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	_, err := Apply(ctx, db)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO users (id, points) VALUES ('u1', 0)`)
	require.NoError(t, err)

	insert := `INSERT INTO entitlements (id, family, user_id, content_id, chapter_id)
		VALUES (?, 'course', 'u1', 'c1', ?) ON CONFLICT DO NOTHING`

	res, err := db.Exec(insert, "ord_1", nil)
	require.NoError(t, err)
	n, _ := res.RowsAffected()
	assert.EqualValues(t, 1, n)

	res, err = db.Exec(insert, "ord_2", nil)
	require.NoError(t, err)
	n, _ = res.RowsAffected()
	assert.EqualValues(t, 0, n, "second content-wide row must be rejected")

	res, err = db.Exec(insert, "ord_3", "ch1")
	require.NoError(t, err)
	n, _ = res.RowsAffected()
	assert.EqualValues(t, 1, n)

	res, err = db.Exec(insert, "ord_4", "ch1")
	require.NoError(t, err)
	n, _ = res.RowsAffected()
	assert.EqualValues(t, 0, n)
}

func TestNegativeBalanceRejected(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	_, err := Apply(ctx, db)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO users (id, points) VALUES ('u1', -1)`)
	assert.Error(t, err)
}

func TestDirUnknownDriver(t *testing.T) {
	_, err := Dir("mysql")
	assert.Error(t, err)
}
