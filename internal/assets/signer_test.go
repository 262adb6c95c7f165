// AngelaMos | 2026
// signer_test.go

package assets

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/episode-ledger/internal/catalog"
	"github.com/carterperez-dev/episode-ledger/internal/config"
	"github.com/carterperez-dev/episode-ledger/internal/core"
)

func newTestSigner(t *testing.T, key string) *Signer {
	t.Helper()
	s, err := NewSigner(config.AssetsConfig{
		BaseURL:    "https://cdn.example.com/media",
		SigningKey: key,
		URLTTL:     time.Hour,
	})
	require.NoError(t, err)
	s.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return s
}

func TestPlaybackURLSigned(t *testing.T) {
	s := newTestSigner(t, "secret")
	chapter := &catalog.Chapter{ID: "l1", VideoKey: "videos/l1.m3u8"}

	raw, err := s.PlaybackURL(context.Background(), "course", chapter)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "cdn.example.com", u.Host)
	assert.Equal(t, "/media/course/videos/l1.m3u8", u.Path)
	assert.Equal(t, "1700003600", u.Query().Get("exp"))
	assert.NotEmpty(t, u.Query().Get("sig"))

	require.NoError(t, s.Verify(raw))
}

func TestVerifyRejectsTampering(t *testing.T) {
	s := newTestSigner(t, "secret")
	raw, err := s.PlaybackURL(context.Background(), "short",
		&catalog.Chapter{VideoKey: "videos/a.m3u8"})
	require.NoError(t, err)

	u, _ := url.Parse(raw)
	u.Path = "/media/short/videos/b.m3u8"
	assert.ErrorIs(t, s.Verify(u.String()), core.ErrForbidden)

	s.now = func() time.Time { return time.Unix(1_800_000_000, 0) }
	assert.ErrorIs(t, s.Verify(raw), core.ErrTokenExpired)
}

func TestPlaybackURLUnsignedAndMissingVideo(t *testing.T) {
	s := newTestSigner(t, "")

	raw, err := s.PlaybackURL(context.Background(), "course",
		&catalog.Chapter{VideoKey: "videos/x.m3u8"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/media/course/videos/x.m3u8", raw)

	assert.ErrorIs(t, s.Verify(raw), ErrNoSigningKey)

	raw, err = s.PlaybackURL(context.Background(), "course", &catalog.Chapter{ID: "g1"})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, raw)
}

func TestVerifyWithoutKeyRejectsForgedURL(t *testing.T) {
	s := newTestSigner(t, "")
	forged := "https://cdn.example.com/media/course/videos/x.m3u8?exp=9999999999&sig=" +
		core.Sign(nil, "/media/course/videos/x.m3u8|9999999999")

	assert.ErrorIs(t, s.Verify(forged), ErrNoSigningKey)
}

func TestNewSignerRejectsRelativeBase(t *testing.T) {
	_, err := NewSigner(config.AssetsConfig{BaseURL: "/media"})
	assert.Error(t, err)
}
