// Package user serves the caller-scoped admission views.
package user

import (
	"context"
	"log/slog"
	"net/http"

	"admissions_service/internal/http_server/handlers/apierr"
	resp "admissions_service/internal/lib/api/response"
	"admissions_service/internal/middleware/guard"
	"admissions_service/internal/models"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Admissions interface {
	ListOwn(ctx context.Context, principal guard.Principal) ([]models.Admission, error)
	GetOwn(ctx context.Context, principal guard.Principal, id string) (models.Admission, error)
	UserStats(ctx context.Context, principal guard.Principal) (models.StatusCounts, error)
}

func ListAdmissions(log *slog.Logger, svc Admissions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.ListAdmissions"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		principal, ok := guard.PrincipalFrom(r.Context())
		if !ok {
			apierr.Unauthorized(w, r)
			return
		}

		list, err := svc.ListOwn(r.Context(), principal)
		if err != nil {
			apierr.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, resp.OK(list))
	}
}

func GetAdmission(log *slog.Logger, svc Admissions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.GetAdmission"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		principal, ok := guard.PrincipalFrom(r.Context())
		if !ok {
			apierr.Unauthorized(w, r)
			return
		}

		a, err := svc.GetOwn(r.Context(), principal, chi.URLParam(r, "id"))
		if err != nil {
			apierr.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, resp.OK(a))
	}
}

func Stats(log *slog.Logger, svc Admissions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.Stats"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		principal, ok := guard.PrincipalFrom(r.Context())
		if !ok {
			apierr.Unauthorized(w, r)
			return
		}

		counts, err := svc.UserStats(r.Context(), principal)
		if err != nil {
			apierr.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, resp.OK(counts))
	}
}
