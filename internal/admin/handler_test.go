// AngelaMos | 2026
// handler_test.go

package admin_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/episode-ledger/internal/admin"
	"github.com/carterperez-dev/episode-ledger/internal/entitlement"
	"github.com/carterperez-dev/episode-ledger/internal/middleware"
)

type fixedStats struct {
	stats []entitlement.FamilyStats
	err   error
}

func (f fixedStats) Stats(context.Context) ([]entitlement.FamilyStats, error) {
	return f.stats, f.err
}

func asAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{UserID: "a", Role: "admin"})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func router(h *admin.Handler, authenticator func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r, authenticator, middleware.RequireAdmin)
	return r
}

func TestOrderStats(t *testing.T) {
	h := admin.NewHandler(admin.HandlerConfig{
		Orders: fixedStats{stats: []entitlement.FamilyStats{
			{Family: "course", Orders: 3, FreeGrants: 1, PointsCharged: 60},
			{Family: "short", Orders: 2, FreeGrants: 0, PointsCharged: 40},
		}},
	})

	rec := httptest.NewRecorder()
	router(h, asAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats/orders", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data admin.OrderSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 5, body.Data.Orders)
	assert.EqualValues(t, 1, body.Data.FreeGrants)
	assert.EqualValues(t, 100, body.Data.PointsCharged)
	assert.Len(t, body.Data.Families, 2)
}

func TestSystemStatsIncludesOrders(t *testing.T) {
	h := admin.NewHandler(admin.HandlerConfig{
		DBPing: func(context.Context) error { return nil },
		Orders: fixedStats{stats: []entitlement.FamilyStats{{Family: "course", Orders: 1}}},
	})

	rec := httptest.NewRecorder()
	router(h, asAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data admin.SystemStatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Database.Healthy)
	require.NotNil(t, body.Data.Orders)
	assert.EqualValues(t, 1, body.Data.Orders.Orders)
	assert.NotEmpty(t, body.Data.Runtime.GoVersion)
}

func TestOrderStatsFailure(t *testing.T) {
	h := admin.NewHandler(admin.HandlerConfig{Orders: fixedStats{err: errors.New("db down")}})

	rec := httptest.NewRecorder()
	router(h, asAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats/orders", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdminOnly(t *testing.T) {
	asUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{UserID: "u", Role: "user"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	rec := httptest.NewRecorder()
	router(admin.NewHandler(admin.HandlerConfig{}), asUser).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats/orders", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type recordingCache struct {
	contentID string
	chapters  []string
}

func (c *recordingCache) Invalidate(_ context.Context, contentID string, chapterIDs ...string) error {
	c.contentID = contentID
	c.chapters = chapterIDs
	return nil
}

func TestInvalidateCatalog(t *testing.T) {
	course := &recordingCache{}
	h := admin.NewHandler(admin.HandlerConfig{
		Caches: map[string]admin.CatalogCache{"course": course},
	})
	r := router(h, asAdmin)

	req := httptest.NewRequest(http.MethodPost, "/admin/catalog/course/c1/invalidate",
		strings.NewReader(`{"chapterIds":["l1","l2"]}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "c1", course.contentID)
	assert.Equal(t, []string{"l1", "l2"}, course.chapters)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/catalog/course/c2/invalidate", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "c2", course.contentID)
	assert.Empty(t, course.chapters)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/catalog/movie/c1/invalidate", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/catalog/course/c1/invalidate",
		strings.NewReader(`{"chapterIds":[""]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
