// AngelaMos | 2026
// handler.go

package ledger

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/episode-ledger/internal/core"
	"github.com/carterperez-dev/episode-ledger/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/me", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/points", h.GetPoints)
	})
}

func (h *Handler) GetPoints(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			core.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	summary, err := h.service.Summary(r.Context(), userID, limit)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, summary)
}
