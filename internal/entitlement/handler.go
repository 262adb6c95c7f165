// AngelaMos | 2026
// handler.go

package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/episode-ledger/internal/core"
	"github.com/carterperez-dev/episode-ledger/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the order endpoints once per registered family, so
// both families share one implementation under their own prefix.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	optionalAuth, authenticator, purchaseLimit func(http.Handler) http.Handler,
) {
	for _, family := range h.service.families.Names() {
		r.Route("/"+family+"/{contentID}/chapters/{chapterID}/order", func(r chi.Router) {
			r.With(optionalAuth).Get("/", h.Check(family))
			r.With(authenticator, purchaseLimit).Post("/", h.Purchase(family))
		})
	}
}

func (h *Handler) Check(family string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, ok := h.orderPath(w, r)
		if !ok {
			return
		}

		result, err := h.service.Check(
			r.Context(),
			family,
			middleware.GetUserID(r.Context()),
			path.ContentID,
			path.ChapterID,
		)
		if err != nil {
			writeError(w, err)
			return
		}

		core.OK(w, ToCheckResponse(result))
	}
}

func (h *Handler) Purchase(family string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, ok := h.orderPath(w, r)
		if !ok {
			return
		}

		result, err := h.service.Purchase(
			r.Context(),
			family,
			middleware.GetUserID(r.Context()),
			path.ContentID,
			path.ChapterID,
		)
		if err != nil {
			writeError(w, err)
			return
		}

		if result.AlreadyOwned {
			core.OK(w, ToPurchaseResponse(result))
			return
		}
		core.Created(w, ToPurchaseResponse(result))
	}
}

func (h *Handler) orderPath(w http.ResponseWriter, r *http.Request) (OrderPath, bool) {
	path := OrderPath{
		ContentID: chi.URLParam(r, "contentID"),
		ChapterID: chi.URLParam(r, "chapterID"),
	}

	if err := h.validator.Struct(path); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return path, false
	}

	return path, true
}

func writeError(w http.ResponseWriter, err error) {
	var insufficient *InsufficientPointsError

	switch {
	case errors.Is(err, context.Canceled):
		slog.Debug("client went away before the order finished", "error", err)
	case errors.As(err, &insufficient):
		core.JSONError(w, core.NewAppError(
			err,
			fmt.Sprintf(
				"not enough points: this needs %d, you have %d (short by %d)",
				insufficient.Required,
				insufficient.Available,
				insufficient.Shortfall(),
			),
			http.StatusPaymentRequired,
			"INSUFFICIENT_POINTS",
		).WithDetails(map[string]any{
			"required":  insufficient.Required,
			"available": insufficient.Available,
			"shortfall": insufficient.Shortfall(),
		}))
	case errors.Is(err, ErrTransactionTimeout):
		w.Header().Set("Retry-After", "1")
		core.JSONError(w, core.ServiceTimeoutError(
			"the purchase could not be completed in time, please retry",
		))
	case errors.Is(err, core.ErrUnauthorized):
		core.JSONError(w, core.UnauthorizedError(""))
	case errors.Is(err, core.ErrNotFound), errors.Is(err, ErrUnknownFamily):
		core.NotFound(w, "content or chapter")
	default:
		core.JSONError(w, err)
	}
}
