// Package apierr renders admissions workflow errors.
package apierr

import (
	"errors"
	"log/slog"
	"net/http"

	"admissions_service/internal/admissions"
	resp "admissions_service/internal/lib/api/response"
	sl "admissions_service/internal/lib/logger/sl"

	"github.com/go-chi/render"
)

func Render(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var vErr *admissions.ValidationError

	switch {
	case errors.As(err, &vErr):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.ValidationError(vErr.Errs))
	case errors.Is(err, admissions.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error("Admission not found"))
	case errors.Is(err, admissions.ErrSubmitterMissing):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error("Account no longer exists"))
	default:
		log.Error("admissions request failed", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Internal(r, err))
	}
}

// Unauthorized is written when a protected handler runs without a principal.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, resp.Error("Access denied. No token provided."))
}
