package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"admissions_service/internal/lib/jwt"
	sl "admissions_service/internal/lib/logger/sl"
	"admissions_service/internal/lib/verification"
	"admissions_service/internal/models"
	"admissions_service/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
)

type AccountSaver interface {
	CreateAccount(ctx context.Context, acc models.Account) (models.Account, error)
	SaveAccount(ctx context.Context, acc models.Account) error
}

type AccountProvider interface {
	AccountByEmail(ctx context.Context, email string) (models.Account, error)
	AccountByID(ctx context.Context, id string) (models.Account, error)
	AccountByVerificationToken(ctx context.Context, tokenHash string) (models.Account, error)
	AccountByResetToken(ctx context.Context, tokenHash string, now time.Time) (models.Account, error)
}

type TokenIssuer interface {
	Issue(accountID string, role models.Role) (string, error)
}

type Notifier interface {
	Send(msg models.Message)
}

type Auth struct {
	log           *slog.Logger
	accSaver      AccountSaver
	accProvider   AccountProvider
	tokens        TokenIssuer
	notifier      Notifier
	frontendURL   string
	resetTokenTTL time.Duration
	now           func() time.Time
}

func New(
	log *slog.Logger,
	accSaver AccountSaver,
	accProvider AccountProvider,
	tokens TokenIssuer,
	notifier Notifier,
	frontendURL string,
	resetTokenTTL time.Duration,
) *Auth {
	return &Auth{
		log:           log,
		accSaver:      accSaver,
		accProvider:   accProvider,
		tokens:        tokens,
		notifier:      notifier,
		frontendURL:   frontendURL,
		resetTokenTTL: resetTokenTTL,
		now:           time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (a *Auth) WithClock(now func() time.Time) *Auth {
	a.now = now
	return a
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterNewUser creates the account, queues the verification email and
// returns a session token carrying the persisted role.
func (a *Auth) RegisterNewUser(
	ctx context.Context,
	username string,
	email string,
	pass string,
	role string,
) (models.Profile, string, error) {
	const op = "auth.RegisterNewUser"

	log := a.log.With(
		slog.String("op", op),
	)

	log.Info("Registering new user")

	r, ok := models.ParseRole(role)
	if !ok {
		r = models.RoleGuest
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	rawToken, tokenHash, err := verification.NewToken()
	if err != nil {
		log.Error("failed to generate verification token", sl.Err(err))
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	acc, err := a.accSaver.CreateAccount(ctx, models.Account{
		ID:                    uuid.NewString(),
		Username:              strings.TrimSpace(username),
		Email:                 NormalizeEmail(email),
		PassHash:              passHash,
		Role:                  r,
		VerificationTokenHash: tokenHash,
		CreatedAt:             a.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAccountExists) {
			log.Warn("User already exists")

			return models.Profile{}, "", fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		log.Error("Failed to save user", sl.Err(err))

		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := a.tokens.Issue(acc.ID, acc.Role)
	if err != nil {
		log.Error("failed to issue session token", sl.Err(err))
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	a.notifier.Send(models.Message{
		Email:     acc.Email,
		Purpose:   models.PurposeEmailVerification,
		Recipient: acc.Username,
		Link:      verification.Link(a.frontendURL, "verify-email", rawToken),
	})

	log.Info("user registered", slog.String("uid", acc.ID))

	return acc.Profile(), token, nil
}

// Login checks credentials. Unknown email and wrong password are reported
// identically.
func (a *Auth) Login(ctx context.Context, email, password string) (models.Profile, string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	acc, err := a.accProvider.AccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Warn("user not found")
			return models.Profile{}, "", ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(acc.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return models.Profile{}, "", ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(acc.ID, acc.Role)
	if err != nil {
		log.Error("failed to issue session token", sl.Err(err))
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.String("uid", acc.ID))

	return acc.Profile(), token, nil
}

// VerifyEmail consumes a verification token; it cannot be replayed.
func (a *Auth) VerifyEmail(ctx context.Context, rawToken string) error {
	const op = "auth.VerifyEmail"

	log := a.log.With(slog.String("op", op))

	acc, err := a.accProvider.AccountByVerificationToken(ctx, verification.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Warn("unknown verification token")
			return ErrInvalidToken
		}

		log.Error("failed to look up verification token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	acc.IsVerified = true
	acc.VerificationTokenHash = ""

	if err := a.accSaver.SaveAccount(ctx, acc); err != nil {
		log.Error("failed to mark user as verified", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email verified", slog.String("uid", acc.ID))

	return nil
}

// ForgotPassword issues a reset token when the email is registered. It
// returns nil for unknown emails so callers cannot enumerate accounts.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	const op = "auth.ForgotPassword"

	log := a.log.With(slog.String("op", op))

	acc, err := a.accProvider.AccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Info("password reset requested for unknown email")
			return nil
		}

		log.Error("failed to get user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	rawToken, tokenHash, err := verification.NewToken()
	if err != nil {
		log.Error("failed to generate reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	expiry := a.now().Add(a.resetTokenTTL)
	acc.ResetTokenHash = tokenHash
	acc.ResetExpiry = &expiry

	if err := a.accSaver.SaveAccount(ctx, acc); err != nil {
		log.Error("failed to save reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	a.notifier.Send(models.Message{
		Email:     acc.Email,
		Purpose:   models.PurposePasswordReset,
		Recipient: acc.Username,
		Link:      verification.Link(a.frontendURL, "reset-password", rawToken),
	})

	log.Info("password reset issued", slog.String("uid", acc.ID))

	return nil
}

// ResetPassword consumes a reset token. Expired and unknown tokens fail
// with the same ErrInvalidToken.
func (a *Auth) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	const op = "auth.ResetPassword"

	log := a.log.With(slog.String("op", op))

	acc, err := a.accProvider.AccountByResetToken(ctx, verification.HashToken(rawToken), a.now())
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Warn("unknown or expired reset token")
			return ErrInvalidToken
		}

		log.Error("failed to look up reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	acc.PassHash = passHash
	acc.ResetTokenHash = ""
	acc.ResetExpiry = nil

	if err := a.accSaver.SaveAccount(ctx, acc); err != nil {
		log.Error("failed to save new password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset", slog.String("uid", acc.ID))

	return nil
}

// Me reloads the caller's account; the token's role may be stale.
func (a *Auth) Me(ctx context.Context, accountID string) (models.Profile, error) {
	const op = "auth.Me"

	acc, err := a.accProvider.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return models.Profile{}, ErrUserNotFound
		}

		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return acc.Profile(), nil
}

var _ TokenIssuer = (*jwt.TokenService)(nil)
