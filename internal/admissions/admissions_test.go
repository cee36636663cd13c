package admissions

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"admissions_service/internal/lib/validate"
	"admissions_service/internal/middleware/guard"
	"admissions_service/internal/models"
	"admissions_service/internal/storage/inmemory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []models.ApplicationReviewed
}

func (c *captureNotifier) ApplicationReviewed(evt models.ApplicationReviewed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

type fixture struct {
	svc      *Service
	repo     *inmemory.Repo
	notifier *captureNotifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:     inmemory.New(),
		notifier: &captureNotifier{},
		now:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = New(slog.New(slog.DiscardHandler), f.repo, f.repo, f.notifier, validate.New()).
		WithClock(func() time.Time {
			f.now = f.now.Add(time.Second)
			return f.now
		})

	return f
}

func (f *fixture) account(t *testing.T, role models.Role, email string) guard.Principal {
	t.Helper()

	acc, err := f.repo.CreateAccount(context.Background(), models.Account{
		ID:       uuid.NewString(),
		Username: "user_" + string(role),
		Email:    email,
		Role:     role,
	})
	require.NoError(t, err)

	return guard.Principal{ID: acc.ID, Role: acc.Role}
}

func sample() Application {
	return Application{
		StudentName: "Ali",
		Age:         10,
		ParentName:  "Sara",
		Phone:       "0701234567",
		Address:     "X",
		Course:      "quran",
	}
}

func TestSubmitAnonymous(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.Submit(context.Background(), nil, sample())
	require.NoError(t, err)

	assert.Nil(t, a.SubmittedBy)
	assert.Equal(t, models.StatusPending, a.Status)
	assert.NoError(t, uuid.Validate(a.ID))
}

func TestSubmitStampsPrincipal(t *testing.T) {
	f := newFixture(t)
	parent := f.account(t, models.RoleParent, "sara@example.com")

	a, err := f.svc.Submit(context.Background(), &parent, sample())
	require.NoError(t, err)

	require.NotNil(t, a.SubmittedBy)
	assert.Equal(t, parent.ID, *a.SubmittedBy)
	assert.Equal(t, models.StatusPending, a.Status)
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Application)
		field string
	}{
		{"age too low", func(a *Application) { a.Age = 4 }, "Age"},
		{"age too high", func(a *Application) { a.Age = 16 }, "Age"},
		{"unknown course", func(a *Application) { a.Course = "physics" }, "Course"},
		{"missing student", func(a *Application) { a.StudentName = "" }, "StudentName"},
		{"bad email", func(a *Application) { a.Email = "nope" }, "Email"},
		{"blank student", func(a *Application) { a.StudentName = "   " }, "StudentName"},
		{"blank parent", func(a *Application) { a.ParentName = "\t" }, "ParentName"},
		{"blank phone", func(a *Application) { a.Phone = " \n " }, "Phone"},
		{"blank address", func(a *Application) { a.Address = "  " }, "Address"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			in := sample()
			tc.mod(&in)

			_, err := f.svc.Submit(context.Background(), nil, in)
			require.ErrorIs(t, err, ErrValidation)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Len(t, vErr.Errs, 1)
			assert.Equal(t, tc.field, vErr.Errs[0].Field())

			counts, err := f.repo.CountAdmissions(context.Background(), nil)
			require.NoError(t, err)
			assert.Zero(t, counts.Total)
		})
	}
}

func TestSubmitTrimsFields(t *testing.T) {
	f := newFixture(t)

	in := sample()
	in.StudentName = "  Ali "
	in.Email = " Sara@Example.com "

	a, err := f.svc.Submit(context.Background(), nil, in)
	require.NoError(t, err)
	assert.Equal(t, "Ali", a.StudentName)
	assert.Equal(t, "sara@example.com", a.Email)
}

func TestSubmitByDeletedAccount(t *testing.T) {
	f := newFixture(t)

	ghost := guard.Principal{ID: uuid.NewString(), Role: models.RoleParent}

	_, err := f.svc.Submit(context.Background(), &ghost, sample())
	require.ErrorIs(t, err, ErrSubmitterMissing)

	counts, err := f.repo.CountAdmissions(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, counts.Total)
}

func TestAgeBounds(t *testing.T) {
	f := newFixture(t)

	for _, age := range []int{5, 15} {
		in := sample()
		in.Age = age
		_, err := f.svc.Submit(context.Background(), nil, in)
		assert.NoError(t, err, age)
	}
}

func TestListOwnIsScopedAndNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.account(t, models.RoleParent, "a@example.com")
	other := f.account(t, models.RoleParent, "b@example.com")

	first, err := f.svc.Submit(ctx, &owner, sample())
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, &other, sample())
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, &owner, sample())
	require.NoError(t, err)

	list, err := f.svc.ListOwn(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestGetOwnHidesForeignApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.account(t, models.RoleParent, "a@example.com")
	other := f.account(t, models.RoleStudent, "b@example.com")

	a, err := f.svc.Submit(ctx, &owner, sample())
	require.NoError(t, err)

	got, err := f.svc.GetOwn(ctx, owner, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, foreignErr := f.svc.GetOwn(ctx, other, a.ID)
	_, missingErr := f.svc.GetOwn(ctx, other, uuid.NewString())
	_, malformedErr := f.svc.GetOwn(ctx, other, "not-a-uuid")

	assert.ErrorIs(t, foreignErr, ErrNotFound)
	assert.Equal(t, missingErr, foreignErr)
	assert.Equal(t, missingErr, malformedErr)
}

func TestListAllFilterAndPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.account(t, models.RoleAdmin, "admin@example.com")

	var pending []string
	for i := range 5 {
		a, err := f.svc.Submit(ctx, nil, sample())
		require.NoError(t, err)

		if i%2 == 0 {
			_, err = f.svc.Review(ctx, admin, a.ID, ReviewInput{Status: "approved"})
			require.NoError(t, err)
			continue
		}
		pending = append(pending, a.ID)
	}

	page, err := f.svc.ListAll(ctx, "pending", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, pending[1], page.Items[0].ID, "newest first")
	assert.Equal(t, pending[0], page.Items[1].ID)
	for _, a := range page.Items {
		assert.Equal(t, models.StatusPending, a.Status)
	}

	page, err = f.svc.ListAll(ctx, "", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Page)

	page, err = f.svc.ListAll(ctx, "", 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxLimit, page.Limit)

	_, err = f.svc.ListAll(ctx, "bogus", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListAllPagePastEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for range 3 {
		_, err := f.svc.Submit(ctx, nil, sample())
		require.NoError(t, err)
	}

	for _, tc := range []struct{ page, limit int }{
		{4, 1},
		{922337203685477590, 10},
		{math.MaxInt, 1},
		{math.MaxInt, MaxLimit},
	} {
		page, err := f.svc.ListAll(ctx, "", tc.page, tc.limit)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, tc.page, page.Page)
	}
}

func TestReviewThenGetOwn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := f.account(t, models.RoleParent, "sara@example.com")
	admin := f.account(t, models.RoleAdmin, "admin@example.com")

	a, err := f.svc.Submit(ctx, &parent, sample())
	require.NoError(t, err)

	_, err = f.svc.Review(ctx, admin, a.ID, ReviewInput{Status: "approved", Notes: "ok"})
	require.NoError(t, err)

	got, err := f.svc.GetOwn(ctx, parent, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, "ok", got.Notes)
	require.NotNil(t, got.ReviewedBy)
	assert.Equal(t, admin.ID, *got.ReviewedBy)
	require.NotNil(t, got.ReviewedAt)

	require.Len(t, f.notifier.events, 1)
	evt := f.notifier.events[0]
	assert.Equal(t, a.ID, evt.ID)
	assert.Equal(t, models.StatusApproved, evt.Status)
	assert.Equal(t, "sara@example.com", evt.Contact, "falls back to the submitter's email")
}

func TestReviewPrefersApplicationEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := f.account(t, models.RoleParent, "account@example.com")
	admin := f.account(t, models.RoleAdmin, "admin@example.com")

	in := sample()
	in.Email = "Form@Example.com"
	a, err := f.svc.Submit(ctx, &parent, in)
	require.NoError(t, err)

	_, err = f.svc.Review(ctx, admin, a.ID, ReviewInput{Status: "rejected"})
	require.NoError(t, err)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, "form@example.com", f.notifier.events[0].Contact)
}

func TestReviewCanResetToPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.account(t, models.RoleAdmin, "admin@example.com")

	a, err := f.svc.Submit(ctx, nil, sample())
	require.NoError(t, err)

	_, err = f.svc.Review(ctx, admin, a.ID, ReviewInput{Status: "rejected"})
	require.NoError(t, err)

	got, err := f.svc.Review(ctx, admin, a.ID, ReviewInput{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestReviewInvalidStatusLeavesRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.account(t, models.RoleAdmin, "admin@example.com")

	a, err := f.svc.Submit(ctx, nil, sample())
	require.NoError(t, err)

	_, err = f.svc.Review(ctx, admin, a.ID, ReviewInput{Status: "bogus", Notes: "x"})
	require.ErrorIs(t, err, ErrValidation)

	got, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)
	assert.Empty(t, f.notifier.events)
}

func TestReviewMissing(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, models.RoleAdmin, "admin@example.com")

	_, err := f.svc.Review(context.Background(), admin, uuid.NewString(), ReviewInput{Status: "approved"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Review(context.Background(), admin, "42", ReviewInput{Status: "approved"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.notifier.events)
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Submit(ctx, nil, sample())
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, a.ID))
	assert.ErrorIs(t, f.svc.Remove(ctx, a.ID), ErrNotFound)

	_, err = f.svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.SetContentCounts(models.ContentCounts{News: 3, Faculty: 7})

	parent := f.account(t, models.RoleParent, "a@example.com")
	admin := f.account(t, models.RoleAdmin, "admin@example.com")

	mine, err := f.svc.Submit(ctx, &parent, sample())
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, &parent, sample())
	require.NoError(t, err)
	for range 5 {
		_, err = f.svc.Submit(ctx, nil, sample())
		require.NoError(t, err)
	}

	_, err = f.svc.Review(ctx, admin, mine.ID, ReviewInput{Status: "approved"})
	require.NoError(t, err)

	own, err := f.svc.UserStats(ctx, parent)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCounts{Total: 2, Pending: 1, Approved: 1}, own)

	global, err := f.svc.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCounts{Total: 7, Pending: 6, Approved: 1}, global.Admissions)
	assert.Equal(t, models.ContentCounts{News: 3, Faculty: 7}, global.Content)
	assert.Len(t, global.RecentAdmissions, 5)
}
