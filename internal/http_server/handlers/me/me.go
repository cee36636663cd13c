package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"admissions_service/internal/auth"
	resp "admissions_service/internal/lib/api/response"
	sl "admissions_service/internal/lib/logger/sl"
	"admissions_service/internal/middleware/guard"
	"admissions_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ProfileProvider interface {
	Me(ctx context.Context, accountID string) (models.Profile, error)
}

// New returns the stored account, so role and verification state are
// current even when the token is older.
func New(log *slog.Logger, provider ProfileProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		principal, ok := guard.PrincipalFrom(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Access denied. No token provided."))

			return
		}

		profile, err := provider.Me(r.Context(), principal.ID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User not found"))

				return
			}

			log.Error("failed to load account", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Internal(r, err))

			return
		}

		render.JSON(w, r, resp.OK(profile))
	}
}
