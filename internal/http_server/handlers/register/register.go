package register

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
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
	Role     string `json:"role" validate:"omitempty,oneof=guest student parent admin"`
}

type Data struct {
	User  models.Profile `json:"user"`
	Token string         `json:"token"`
}

type Registerer interface {
	RegisterNewUser(ctx context.Context, username, email, pass, role string) (models.Profile, string, error)
}

func New(log *slog.Logger, validate *validator.Validate, registerer Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

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

		log.Debug("Request body decoded")

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Info("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		user, token, err := registerer.RegisterNewUser(r.Context(), req.Username, req.Email, req.Password, req.Role)
		if err != nil {
			if errors.Is(err, auth.ErrUserExists) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("User with this email already exists"))

				return
			}

			log.Error("failed to register user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Internal(r, err))

			return
		}

		log.Info("User registered", slog.String("id", user.ID))

		ResponseOK(w, r, user, token)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, user models.Profile, token string) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp.OK(Data{User: user, Token: token}).
		WithMessage("User registered successfully. Please check your email for verification."))
}
