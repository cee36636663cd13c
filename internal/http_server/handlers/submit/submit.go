package submit

import (
	"context"
	"log/slog"
	"net/http"

	"admissions_service/internal/admissions"
	"admissions_service/internal/http_server/handlers/apierr"
	resp "admissions_service/internal/lib/api/response"
	sl "admissions_service/internal/lib/logger/sl"
	"admissions_service/internal/middleware/guard"
	"admissions_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Submitter interface {
	Submit(ctx context.Context, principal *guard.Principal, in admissions.Application) (models.Admission, error)
}

// New accepts an application. Behind the guard it is owned by the caller;
// on the public route it is anonymous. Status and owner in the body are
// ignored.
func New(log *slog.Logger, submitter Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.submit.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req admissions.Application

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		var principal *guard.Principal
		if p, ok := guard.PrincipalFrom(r.Context()); ok {
			principal = &p
		}

		a, err := submitter.Submit(r.Context(), principal, req)
		if err != nil {
			apierr.Render(w, r, log, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, resp.OK(a).
			WithMessage("Admission submitted successfully. You will be notified once reviewed."))
	}
}
