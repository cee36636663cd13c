package guard

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"admissions_service/internal/lib/jwt"
	resp "admissions_service/internal/lib/api/response"
	sl "admissions_service/internal/lib/logger/sl"
	"admissions_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Principal struct {
	ID   string
	Role models.Role
}

type TokenVerifier interface {
	Verify(token string) (jwt.Claims, error)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Authenticate rejects requests without a valid bearer token before any
// handler runs.
func Authenticate(log *slog.Logger, tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "guard.Authenticate"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			raw, ok := bearerToken(r)
			if !ok {
				log.Debug("no bearer token")

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Access denied. No token provided."))

				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				log.Info("invalid bearer token", sl.Err(err))

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Invalid token"))

				return
			}

			ctx := WithPrincipal(r.Context(), Principal{
				ID:   claims.Subject,
				Role: claims.Role,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require lets the request through only when the principal's role is one of
// roles. It must run after Authenticate.
func Require(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Access denied. No token provided."))

				return
			}

			if !Allowed(p, roles...) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("Access denied. Insufficient permissions."))

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func AdminOnly() func(http.Handler) http.Handler {
	return Require(models.RoleAdmin)
}

// StudentOrParent is not mounted; /user routes accept any authenticated role.
func StudentOrParent() func(http.Handler) http.Handler {
	return Require(models.RoleStudent, models.RoleParent)
}

func Allowed(p Principal, roles ...models.Role) bool {
	return slices.Contains(roles, p.Role)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}
