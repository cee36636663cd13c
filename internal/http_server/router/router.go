package router

import (
	"log/slog"
	"net/http"

	"admissions_service/internal/admissions"
	"admissions_service/internal/auth"
	"admissions_service/internal/http_server/handlers/admin"
	forgotPassword "admissions_service/internal/http_server/handlers/forgot_password"
	"admissions_service/internal/http_server/handlers/login"
	"admissions_service/internal/http_server/handlers/me"
	"admissions_service/internal/http_server/handlers/register"
	resetPassword "admissions_service/internal/http_server/handlers/reset_password"
	"admissions_service/internal/http_server/handlers/submit"
	"admissions_service/internal/http_server/handlers/user"
	"admissions_service/internal/http_server/handlers/verify"
	resp "admissions_service/internal/lib/api/response"
	"admissions_service/internal/middleware/guard"
	"admissions_service/internal/middleware/ratelimit"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Auth       *auth.Auth
	Admissions *admissions.Service
	Tokens     guard.TokenVerifier
	Validate   *validator.Validate
	// VerboseErrors exposes internal error messages to clients.
	VerboseErrors bool
}

func New(log *slog.Logger, deps Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(resp.WithVerboseErrors(deps.VerboseErrors))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, resp.OK(map[string]string{"status": "ok"}))
	})
	r.Handle("/metrics", promhttp.Handler())

	authenticate := guard.Authenticate(log, deps.Tokens)

	r.Route("/auth", func(r chi.Router) {
		r.With(ratelimit.Register()).Post("/register", register.New(log, deps.Validate, deps.Auth))
		r.With(ratelimit.Login()).Post("/login", login.New(log, deps.Validate, deps.Auth))
		r.With(ratelimit.VerifyEmail()).Post("/verify-email", verify.New(log, deps.Validate, deps.Auth))
		r.With(ratelimit.ForgotPassword()).Post("/forgot-password", forgotPassword.New(log, deps.Validate, deps.Auth))
		r.With(ratelimit.ResetPassword()).Post("/reset-password", resetPassword.New(log, deps.Validate, deps.Auth))
		r.With(authenticate).Get("/me", me.New(log, deps.Auth))
	})

	r.With(ratelimit.SubmitAdmission()).Post("/admissions", submit.New(log, deps.Admissions))

	r.Route("/user", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/admissions", submit.New(log, deps.Admissions))
		r.Get("/admissions", user.ListAdmissions(log, deps.Admissions))
		r.Get("/admissions/{id}", user.GetAdmission(log, deps.Admissions))
		r.Get("/stats", user.Stats(log, deps.Admissions))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(guard.AdminOnly())

		r.Get("/admissions", admin.ListAdmissions(log, deps.Admissions))
		r.Get("/admissions/{id}", admin.GetAdmission(log, deps.Admissions))
		r.Put("/admissions/{id}", admin.ReviewAdmission(log, deps.Admissions))
		r.Delete("/admissions/{id}", admin.DeleteAdmission(log, deps.Admissions))
		r.Get("/stats", admin.Stats(log, deps.Admissions))
	})

	return r
}
