// AngelaMos | 2026
// handler_test.go

package ledger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/episode-ledger/internal/ledger"
	"github.com/carterperez-dev/episode-ledger/internal/middleware"
	"github.com/carterperez-dev/episode-ledger/internal/testdb"
)

func signedInAs(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{UserID: userID, Role: "user"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func TestGetPoints(t *testing.T) {
	ctx := context.Background()
	db := testdb.SQLite(t)
	testdb.SeedUser(t, db, "u1", ledger.RoleUser, 100)

	repo := ledger.NewRepository(db)
	_, err := repo.Debit(ctx, "u1", 25, "", ledger.ReasonPurchase)
	require.NoError(t, err)

	svc := ledger.NewService(repo)
	balance, err := svc.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 75, balance)

	serve := func(user, query string) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		ledger.NewHandler(svc).RegisterRoutes(r, signedInAs(user))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me/points"+query, nil))
		return rec
	}

	rec := serve("u1", "?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                  `json:"success"`
		Data    ledger.PointsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.EqualValues(t, 75, body.Data.Balance)
	require.Len(t, body.Data.Adjustments, 1)
	assert.EqualValues(t, -25, body.Data.Adjustments[0].Delta)
	assert.Equal(t, ledger.ReasonPurchase, body.Data.Adjustments[0].Reason)

	assert.Equal(t, http.StatusBadRequest, serve("u1", "?limit=zero").Code)
	assert.Equal(t, http.StatusUnauthorized, serve("ghost", "").Code)
}
