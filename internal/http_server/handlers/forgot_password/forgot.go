package forgotPassword

import (
	"context"
	"log/slog"
	"net/http"

	resp "admissions_service/internal/lib/api/response"
	sl "admissions_service/internal/lib/logger/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// ResetRequested is the reply whether or not the email is registered.
const ResetRequested = "If an account with that email exists, a password reset link has been sent."

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetRequester interface {
	ForgotPassword(ctx context.Context, email string) error
}

func New(log *slog.Logger, validate *validator.Validate, requester ResetRequester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.forgotPassword.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Info("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		if err := requester.ForgotPassword(r.Context(), req.Email); err != nil {
			log.Error("failed to issue password reset", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Internal(r, err))

			return
		}

		render.JSON(w, r, resp.Message(ResetRequested))
	}
}
