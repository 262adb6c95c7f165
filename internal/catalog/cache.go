// AngelaMos | 2026
// cache.go

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedReader serves hierarchy reads from Redis and falls back to the
// wrapped reader on a miss or any Redis error. It is only used to answer
// access checks; purchases read inside their own transaction.
type CachedReader struct {
	next   Reader
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewCachedReader(
	next Reader,
	rdb *redis.Client,
	family string,
	ttl time.Duration,
) *CachedReader {
	return &CachedReader{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		prefix: "catalog:" + family + ":",
	}
}

func (c *CachedReader) GetContent(
	ctx context.Context,
	contentID string,
) (*Content, error) {
	var content Content
	err := c.load(ctx, "content:"+contentID, &content, func() (any, error) {
		return c.next.GetContent(ctx, contentID)
	})
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func (c *CachedReader) GetChapter(
	ctx context.Context,
	chapterID string,
) (*Chapter, error) {
	var chapter Chapter
	err := c.load(ctx, "chapter:"+chapterID, &chapter, func() (any, error) {
		return c.next.GetChapter(ctx, chapterID)
	})
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (c *CachedReader) GetParent(
	ctx context.Context,
	chapterID string,
) (*Chapter, error) {
	chapter, err := c.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	return parentOf(ctx, c, chapter)
}

func (c *CachedReader) IsContentFree(
	ctx context.Context,
	contentID string,
) (bool, error) {
	var free bool
	err := c.load(ctx, "free:"+contentID, &free, func() (any, error) {
		return c.next.IsContentFree(ctx, contentID)
	})
	return free, err
}

// Invalidate drops cached entries for a content item and the given chapters.
func (c *CachedReader) Invalidate(
	ctx context.Context,
	contentID string,
	chapterIDs ...string,
) error {
	keys := []string{
		c.prefix + "content:" + contentID,
		c.prefix + "free:" + contentID,
	}
	for _, id := range chapterIDs {
		keys = append(keys, c.prefix+"chapter:"+id)
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}

// load fills dest from key, or from fetch on a miss. Errors from fetch are
// returned as is and never cached.
func (c *CachedReader) load(
	ctx context.Context,
	key string,
	dest any,
	fetch func() (any, error),
) error {
	key = c.prefix + key

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			return nil
		}
		slog.Warn("discarding corrupt catalog cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		slog.Debug("catalog cache unavailable", "key", key, "error", err)
	}

	value, err := fetch()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if setErr := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
		slog.Debug("catalog cache write failed", "key", key, "error", setErr)
	}

	return json.Unmarshal(encoded, dest)
}
