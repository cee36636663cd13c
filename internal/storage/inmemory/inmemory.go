// Package inmemory is a process-local storage driver with the same
// semantics as the postgres one. It backs local runs and tests.
package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"admissions_service/internal/models"
	"admissions_service/internal/storage"
)

type admissionRecord struct {
	seq int64
	a   models.Admission
}

type Repo struct {
	mu         sync.RWMutex
	accounts   map[string]models.Account
	emails     map[string]string
	admissions map[string]admissionRecord
	seq        int64
	content    models.ContentCounts
}

func New() *Repo {
	return &Repo{
		accounts:   make(map[string]models.Account),
		emails:     make(map[string]string),
		admissions: make(map[string]admissionRecord),
	}
}

// SetContentCounts sets what ContentCounts reports.
func (r *Repo) SetContentCounts(c models.ContentCounts) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.content = c
}

func (r *Repo) CreateAccount(_ context.Context, acc models.Account) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc.Email = strings.ToLower(acc.Email)
	if _, ok := r.emails[acc.Email]; ok {
		return models.Account{}, storage.ErrAccountExists
	}

	acc.UpdatedAt = acc.CreatedAt
	r.accounts[acc.ID] = cloneAccount(acc)
	r.emails[acc.Email] = acc.ID

	return cloneAccount(acc), nil
}

func (r *Repo) AccountByEmail(_ context.Context, email string) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[strings.ToLower(email)]
	if !ok {
		return models.Account{}, storage.ErrAccountNotFound
	}

	return cloneAccount(r.accounts[id]), nil
}

func (r *Repo) AccountByID(_ context.Context, id string) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[id]
	if !ok {
		return models.Account{}, storage.ErrAccountNotFound
	}

	return cloneAccount(acc), nil
}

func (r *Repo) AccountByVerificationToken(_ context.Context, tokenHash string) (models.Account, error) {
	return r.findAccount(func(a models.Account) bool {
		return tokenHash != "" && a.VerificationTokenHash == tokenHash
	})
}

func (r *Repo) AccountByResetToken(_ context.Context, tokenHash string, now time.Time) (models.Account, error) {
	return r.findAccount(func(a models.Account) bool {
		return tokenHash != "" &&
			a.ResetTokenHash == tokenHash &&
			a.ResetExpiry != nil &&
			now.Before(*a.ResetExpiry)
	})
}

func (r *Repo) SaveAccount(_ context.Context, acc models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.accounts[acc.ID]
	if !ok {
		return storage.ErrAccountNotFound
	}

	acc.Email = strings.ToLower(acc.Email)
	if owner, taken := r.emails[acc.Email]; taken && owner != acc.ID {
		return storage.ErrAccountExists
	}

	delete(r.emails, old.Email)
	r.emails[acc.Email] = acc.ID

	acc.CreatedAt = old.CreatedAt
	acc.UpdatedAt = time.Now()
	r.accounts[acc.ID] = cloneAccount(acc)

	return nil
}

func (r *Repo) findAccount(match func(models.Account) bool) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, acc := range r.accounts {
		if match(acc) {
			return cloneAccount(acc), nil
		}
	}

	return models.Account{}, storage.ErrAccountNotFound
}

func (r *Repo) CreateAdmission(_ context.Context, a models.Admission) (models.Admission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.SubmittedBy != nil {
		if _, ok := r.accounts[*a.SubmittedBy]; !ok {
			return models.Admission{}, storage.ErrAccountNotFound
		}
	}

	r.seq++
	a.UpdatedAt = a.CreatedAt
	r.admissions[a.ID] = admissionRecord{seq: r.seq, a: cloneAdmission(a)}

	return cloneAdmission(a), nil
}

func (r *Repo) Admission(_ context.Context, id string) (models.Admission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.admissions[id]
	if !ok {
		return models.Admission{}, storage.ErrAdmissionNotFound
	}

	return cloneAdmission(rec.a), nil
}

func (r *Repo) AdmissionByOwner(_ context.Context, id, ownerID string) (models.Admission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.admissions[id]
	if !ok || rec.a.SubmittedBy == nil || *rec.a.SubmittedBy != ownerID {
		return models.Admission{}, storage.ErrAdmissionNotFound
	}

	return cloneAdmission(rec.a), nil
}

func (r *Repo) AdmissionsByOwner(_ context.Context, ownerID string) ([]models.Admission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(a models.Admission) bool {
		return a.SubmittedBy != nil && *a.SubmittedBy == ownerID
	}), nil
}

func (r *Repo) ListAdmissions(_ context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sorted(func(a models.Admission) bool {
		return filter.Status == nil || a.Status == *filter.Status
	})
	total := len(all)

	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = start + min(filter.Limit, total-start)
	}

	return all[start:end], total, nil
}

func (r *Repo) SaveReview(_ context.Context, id string, review models.Review) (models.Admission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.admissions[id]
	if !ok {
		return models.Admission{}, storage.ErrAdmissionNotFound
	}

	reviewer := review.ReviewedBy
	reviewedAt := review.ReviewedAt

	rec.a.Status = review.Status
	rec.a.Notes = review.Notes
	rec.a.ReviewedBy = &reviewer
	rec.a.ReviewedAt = &reviewedAt
	rec.a.UpdatedAt = reviewedAt
	r.admissions[id] = rec

	return cloneAdmission(rec.a), nil
}

func (r *Repo) DeleteAdmission(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.admissions[id]; !ok {
		return storage.ErrAdmissionNotFound
	}

	delete(r.admissions, id)

	return nil
}

func (r *Repo) CountAdmissions(_ context.Context, ownerID *string) (models.StatusCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var counts models.StatusCounts

	for _, rec := range r.admissions {
		if ownerID != nil && (rec.a.SubmittedBy == nil || *rec.a.SubmittedBy != *ownerID) {
			continue
		}

		counts.Total++

		switch rec.a.Status {
		case models.StatusPending:
			counts.Pending++
		case models.StatusApproved:
			counts.Approved++
		case models.StatusRejected:
			counts.Rejected++
		}
	}

	return counts, nil
}

func (r *Repo) RecentAdmissions(_ context.Context, limit int) ([]models.AdmissionSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sorted(func(models.Admission) bool { return true })
	if len(all) > limit {
		all = all[:limit]
	}

	list := make([]models.AdmissionSummary, 0, len(all))
	for _, a := range all {
		list = append(list, models.AdmissionSummary{
			ID:          a.ID,
			StudentName: a.StudentName,
			Course:      a.Course,
			Status:      a.Status,
			CreatedAt:   a.CreatedAt,
		})
	}

	return list, nil
}

func (r *Repo) ContentCounts(_ context.Context) (models.ContentCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.content, nil
}

// sorted returns matching admissions newest first. Callers hold the lock.
func (r *Repo) sorted(match func(models.Admission) bool) []models.Admission {
	recs := make([]admissionRecord, 0, len(r.admissions))
	for _, rec := range r.admissions {
		if match(rec.a) {
			recs = append(recs, rec)
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].a.CreatedAt.Equal(recs[j].a.CreatedAt) {
			return recs[i].a.CreatedAt.After(recs[j].a.CreatedAt)
		}
		return recs[i].seq > recs[j].seq
	})

	list := make([]models.Admission, 0, len(recs))
	for _, rec := range recs {
		list = append(list, cloneAdmission(rec.a))
	}

	return list
}

func cloneAccount(a models.Account) models.Account {
	a.PassHash = append([]byte(nil), a.PassHash...)
	if a.ResetExpiry != nil {
		t := *a.ResetExpiry
		a.ResetExpiry = &t
	}
	return a
}

func cloneAdmission(a models.Admission) models.Admission {
	if a.SubmittedBy != nil {
		s := *a.SubmittedBy
		a.SubmittedBy = &s
	}
	if a.ReviewedBy != nil {
		s := *a.ReviewedBy
		a.ReviewedBy = &s
	}
	if a.ReviewedAt != nil {
		t := *a.ReviewedAt
		a.ReviewedAt = &t
	}
	return a
}
