// Package admissions implements the application lifecycle: submission,
// owner-scoped reads, admin review and statistics.
package admissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	sl "admissions_service/internal/lib/logger/sl"
	"admissions_service/internal/metrics"
	"admissions_service/internal/middleware/guard"
	"admissions_service/internal/models"
	"admissions_service/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	recentLimit = 5
)

var (
	ErrNotFound         = errors.New("admission not found")
	ErrValidation       = errors.New("validation failed")
	ErrSubmitterMissing = errors.New("submitting account not found")
)

// ValidationError carries field level details. It matches ErrValidation.
type ValidationError struct {
	Errs validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.Errs.Error())
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

type Application struct {
	StudentName       string `json:"studentName" validate:"required,max=100"`
	Age               int    `json:"age" validate:"min=5,max=15"`
	ParentName        string `json:"parentName" validate:"required,max=100"`
	Phone             string `json:"phone" validate:"required,max=30"`
	Email             string `json:"email" validate:"omitempty,email"`
	Address           string `json:"address" validate:"required,max=500"`
	PreviousEducation string `json:"previousEducation" validate:"max=500"`
	Course            string `json:"course" validate:"required,oneof=quran arabic hadith fiqh islamic"`
}

func (in Application) normalize() Application {
	in.StudentName = strings.TrimSpace(in.StudentName)
	in.ParentName = strings.TrimSpace(in.ParentName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Address = strings.TrimSpace(in.Address)
	in.PreviousEducation = strings.TrimSpace(in.PreviousEducation)
	return in
}

type ReviewInput struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
	Notes  string `json:"notes" validate:"max=2000"`
}

type listQuery struct {
	Status string `validate:"omitempty,oneof=pending approved rejected"`
}

type Page struct {
	Items []models.Admission
	Total int
	Page  int
	Limit int
}

type Store interface {
	CreateAdmission(ctx context.Context, a models.Admission) (models.Admission, error)
	Admission(ctx context.Context, id string) (models.Admission, error)
	AdmissionByOwner(ctx context.Context, id, ownerID string) (models.Admission, error)
	AdmissionsByOwner(ctx context.Context, ownerID string) ([]models.Admission, error)
	ListAdmissions(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error)
	SaveReview(ctx context.Context, id string, review models.Review) (models.Admission, error)
	DeleteAdmission(ctx context.Context, id string) error
	CountAdmissions(ctx context.Context, ownerID *string) (models.StatusCounts, error)
	RecentAdmissions(ctx context.Context, limit int) ([]models.AdmissionSummary, error)
	ContentCounts(ctx context.Context) (models.ContentCounts, error)
}

type AccountProvider interface {
	AccountByID(ctx context.Context, id string) (models.Account, error)
}

type Notifier interface {
	ApplicationReviewed(evt models.ApplicationReviewed)
}

type Service struct {
	log      *slog.Logger
	store    Store
	accounts AccountProvider
	notifier Notifier
	validate *validator.Validate
	now      func() time.Time
}

func New(
	log *slog.Logger,
	store Store,
	accounts AccountProvider,
	notifier Notifier,
	validate *validator.Validate,
) *Service {
	return &Service{
		log:      log,
		store:    store,
		accounts: accounts,
		notifier: notifier,
		validate: validate,
		now:      time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit stores a new pending application. With a principal the application
// is owned by it; without one it is anonymous.
func (s *Service) Submit(ctx context.Context, principal *guard.Principal, in Application) (models.Admission, error) {
	const op = "admissions.Submit"

	log := s.log.With(slog.String("op", op))

	in = in.normalize()

	if err := s.check(in); err != nil {
		log.Info("invalid application", sl.Err(err))
		return models.Admission{}, err
	}

	now := s.now().UTC()

	a := models.Admission{
		ID:                uuid.NewString(),
		StudentName:       in.StudentName,
		Age:               in.Age,
		ParentName:        in.ParentName,
		Phone:             in.Phone,
		Email:             in.Email,
		Address:           in.Address,
		PreviousEducation: in.PreviousEducation,
		Course:            models.Course(in.Course),
		Status:            models.StatusPending,
		CreatedAt:         now,
	}

	if principal != nil {
		owner := principal.ID
		a.SubmittedBy = &owner
	}

	a, err := s.store.CreateAdmission(ctx, a)
	if err != nil {
		if principal != nil && errors.Is(err, storage.ErrAccountNotFound) {
			log.Warn("submitting account no longer exists", slog.String("account_id", principal.ID))
			return models.Admission{}, ErrSubmitterMissing
		}

		log.Error("failed to save admission", sl.Err(err))
		return models.Admission{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.AdmissionsSubmitted.Inc()

	log.Info("admission submitted", slog.String("id", a.ID), slog.Bool("anonymous", principal == nil))

	return a, nil
}

// ListOwn returns the principal's applications, newest first.
func (s *Service) ListOwn(ctx context.Context, principal guard.Principal) ([]models.Admission, error) {
	const op = "admissions.ListOwn"

	list, err := s.store.AdmissionsByOwner(ctx, principal.ID)
	if err != nil {
		s.log.Error("failed to list own admissions", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// GetOwn fails with ErrNotFound both for missing ids and for applications
// owned by someone else.
func (s *Service) GetOwn(ctx context.Context, principal guard.Principal, id string) (models.Admission, error) {
	const op = "admissions.GetOwn"

	if !validID(id) {
		return models.Admission{}, ErrNotFound
	}

	a, err := s.store.AdmissionByOwner(ctx, id, principal.ID)
	if err != nil {
		if errors.Is(err, storage.ErrAdmissionNotFound) {
			return models.Admission{}, ErrNotFound
		}

		s.log.Error("failed to get admission", slog.String("op", op), sl.Err(err))
		return models.Admission{}, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

// ListAll pages through every application. An empty status means no filter;
// page and limit below 1 fall back to defaults and limit is capped. A page
// past the end is empty but still reports the total.
func (s *Service) ListAll(ctx context.Context, status string, page, limit int) (Page, error) {
	const op = "admissions.ListAll"

	if err := s.check(listQuery{Status: status}); err != nil {
		return Page{}, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	offset := math.MaxInt - limit
	if page-1 <= offset/limit {
		offset = (page - 1) * limit
	}

	filter := models.AdmissionFilter{
		Limit:  limit,
		Offset: offset,
	}
	if st, ok := models.ParseStatus(status); ok {
		filter.Status = &st
	}

	items, total, err := s.store.ListAdmissions(ctx, filter)
	if err != nil {
		s.log.Error("failed to list admissions", slog.String("op", op), sl.Err(err))
		return Page{}, fmt.Errorf("%s: %w", op, err)
	}

	return Page{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Admission, error) {
	const op = "admissions.Get"

	if !validID(id) {
		return models.Admission{}, ErrNotFound
	}

	a, err := s.store.Admission(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrAdmissionNotFound) {
			return models.Admission{}, ErrNotFound
		}

		s.log.Error("failed to get admission", slog.String("op", op), sl.Err(err))
		return models.Admission{}, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

// Review records the admin's decision and then notifies the applicant. The
// notification never affects the result. Concurrent reviews of the same id
// are last write wins.
func (s *Service) Review(ctx context.Context, admin guard.Principal, id string, in ReviewInput) (models.Admission, error) {
	const op = "admissions.Review"

	log := s.log.With(
		slog.String("op", op),
		slog.String("id", id),
		slog.String("reviewer", admin.ID),
	)

	if err := s.check(in); err != nil {
		log.Info("invalid review", sl.Err(err))
		return models.Admission{}, err
	}

	status, ok := models.ParseStatus(in.Status)
	if !ok {
		return models.Admission{}, fmt.Errorf("%s: unknown status %q", op, in.Status)
	}

	if !validID(id) {
		return models.Admission{}, ErrNotFound
	}

	a, err := s.store.SaveReview(ctx, id, models.Review{
		Status:     status,
		Notes:      in.Notes,
		ReviewedBy: admin.ID,
		ReviewedAt: s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAdmissionNotFound) {
			log.Info("admission not found")
			return models.Admission{}, ErrNotFound
		}

		log.Error("failed to save review", sl.Err(err))
		return models.Admission{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.AdmissionsReviewed.WithLabelValues(string(a.Status)).Inc()

	log.Info("admission reviewed", slog.String("status", string(a.Status)))

	s.notifier.ApplicationReviewed(models.ApplicationReviewed{
		ID:          a.ID,
		Status:      a.Status,
		Notes:       a.Notes,
		StudentName: a.StudentName,
		ParentName:  a.ParentName,
		Contact:     s.contact(ctx, log, a),
	})

	return a, nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	const op = "admissions.Remove"

	if !validID(id) {
		return ErrNotFound
	}

	if err := s.store.DeleteAdmission(ctx, id); err != nil {
		if errors.Is(err, storage.ErrAdmissionNotFound) {
			return ErrNotFound
		}

		s.log.Error("failed to delete admission", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("admission deleted", slog.String("op", op), slog.String("id", id))

	return nil
}

func (s *Service) AdminStats(ctx context.Context) (models.AdminStats, error) {
	const op = "admissions.AdminStats"

	counts, err := s.store.CountAdmissions(ctx, nil)
	if err != nil {
		return models.AdminStats{}, fmt.Errorf("%s: %w", op, err)
	}

	content, err := s.store.ContentCounts(ctx)
	if err != nil {
		return models.AdminStats{}, fmt.Errorf("%s: %w", op, err)
	}

	recent, err := s.store.RecentAdmissions(ctx, recentLimit)
	if err != nil {
		return models.AdminStats{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.AdminStats{
		Admissions:       counts,
		Content:          content,
		RecentAdmissions: recent,
	}, nil
}

func (s *Service) UserStats(ctx context.Context, principal guard.Principal) (models.StatusCounts, error) {
	const op = "admissions.UserStats"

	counts, err := s.store.CountAdmissions(ctx, &principal.ID)
	if err != nil {
		return models.StatusCounts{}, fmt.Errorf("%s: %w", op, err)
	}

	return counts, nil
}

// contact prefers the email on the application and falls back to the
// submitting account.
func (s *Service) contact(ctx context.Context, log *slog.Logger, a models.Admission) string {
	if a.Email != "" {
		return a.Email
	}
	if a.SubmittedBy == nil {
		return ""
	}

	acc, err := s.accounts.AccountByID(ctx, *a.SubmittedBy)
	if err != nil {
		log.Warn("no contact for applicant", sl.Err(err))
		return ""
	}

	return acc.Email
}

func (s *Service) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return &ValidationError{Errs: vErrs}
	}

	return err
}

func validID(id string) bool {
	return uuid.Validate(id) == nil
}
