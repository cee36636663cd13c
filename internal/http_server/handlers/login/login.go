package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"admissions_service/internal/auth"
	resp "admissions_service/internal/lib/api/response"
	sl "admissions_service/internal/lib/logger/sl"
	"admissions_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Data struct {
	User  models.Profile `json:"user"`
	Token string         `json:"token"`
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (models.Profile, string, error)
}

func New(log *slog.Logger, validate *validator.Validate, authenticator Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

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

		user, token, err := authenticator.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Invalid email or password"))

				return
			}

			log.Error("failed to login user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Internal(r, err))

			return
		}

		log.Info("User logged in successfully", slog.String("id", user.ID))

		ResponseOK(w, r, user, token)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, user models.Profile, token string) {
	render.JSON(w, r, resp.OK(Data{User: user, Token: token}).WithMessage("Login successful"))
}
