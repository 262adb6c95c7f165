// AngelaMos | 2026
// cache_test.go

package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/episode-ledger/internal/catalog"
	"github.com/carterperez-dev/episode-ledger/internal/core"
	"github.com/carterperez-dev/episode-ledger/internal/testdb"
)

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestCachedReaderFailsOpen(t *testing.T) {
	ctx := context.Background()
	db := testdb.SQLite(t)
	tables := catalog.CourseTables

	testdb.SeedContent(t, db, tables.Content, testdb.Content{ID: "c1", UploaderID: "o"})
	testdb.SeedChapter(t, db, tables.Chapters, testdb.Chapter{ID: "g1", ContentID: "c1"})
	testdb.SeedChapter(t, db, tables.Chapters, testdb.Chapter{
		ID: "l1", ContentID: "c1", ParentID: "g1", Points: 5,
	})

	cached := catalog.NewCachedReader(
		catalog.NewRepository(db, tables),
		unreachableRedis(t),
		"course",
		time.Minute,
	)

	content, err := cached.GetContent(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "o", content.UploaderID)

	parent, err := cached.GetParent(ctx, "l1")
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, "g1", parent.ID)

	free, err := cached.IsContentFree(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, free)

	_, err = cached.GetChapter(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Error(t, cached.Invalidate(ctx, "c1", "l1"))
}
