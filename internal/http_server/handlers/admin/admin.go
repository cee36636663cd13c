// Package admin serves the admission management endpoints.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"admissions_service/internal/admissions"
	"admissions_service/internal/http_server/handlers/apierr"
	resp "admissions_service/internal/lib/api/response"
	sl "admissions_service/internal/lib/logger/sl"
	"admissions_service/internal/middleware/guard"
	"admissions_service/internal/models"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Admissions interface {
	ListAll(ctx context.Context, status string, page, limit int) (admissions.Page, error)
	Get(ctx context.Context, id string) (models.Admission, error)
	Review(ctx context.Context, admin guard.Principal, id string, in admissions.ReviewInput) (models.Admission, error)
	Remove(ctx context.Context, id string) error
	AdminStats(ctx context.Context) (models.AdminStats, error)
}

// ListAdmissions reads status, page and limit from the query string.
// Unparsable numbers fall back to the defaults.
func ListAdmissions(log *slog.Logger, svc Admissions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.ListAdmissions"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		q := r.URL.Query()

		page, err := svc.ListAll(r.Context(), q.Get("status"), atoi(q.Get("page")), atoi(q.Get("limit")))
		if err != nil {
			apierr.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, resp.Paginated(page.Items, page.Total, page.Page, page.Limit))
	}
}

func GetAdmission(log *slog.Logger, svc Admissions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.GetAdmission"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		a, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			apierr.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, resp.OK(a))
	}
}

func ReviewAdmission(log *slog.Logger, svc Admissions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.ReviewAdmission"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		principal, ok := guard.PrincipalFrom(r.Context())
		if !ok {
			apierr.Unauthorized(w, r)
			return
		}

		var req admissions.ReviewInput

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		a, err := svc.Review(r.Context(), principal, chi.URLParam(r, "id"), req)
		if err != nil {
			apierr.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, resp.OK(a).WithMessage(fmt.Sprintf("Admission %s successfully", a.Status)))
	}
}

func DeleteAdmission(log *slog.Logger, svc Admissions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.DeleteAdmission"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if err := svc.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
			apierr.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, resp.Message("Admission deleted successfully"))
	}
}

func Stats(log *slog.Logger, svc Admissions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.Stats"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		stats, err := svc.AdminStats(r.Context())
		if err != nil {
			apierr.Render(w, r, log, err)
			return
		}

		render.JSON(w, r, resp.OK(stats))
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
