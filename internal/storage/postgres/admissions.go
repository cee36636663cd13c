package postgres

import (
	"context"
	"errors"
	"fmt"

	"admissions_service/internal/models"
	"admissions_service/internal/storage"

	"github.com/jackc/pgx/v5"
)

const admissionColumns = `
	id::text, student_name, age, parent_name, phone, email, address,
	previous_education, course, status, submitted_by::text, reviewed_by::text,
	reviewed_at, notes, created_at, updated_at`

func (r *PostgresRepo) CreateAdmission(ctx context.Context, a models.Admission) (models.Admission, error) {
	const op = "storage.postgres.CreateAdmission"

	query := `
		INSERT INTO admissions (id, student_name, age, parent_name, phone, email, address,
			previous_education, course, status, submitted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING ` + admissionColumns

	row := r.pool.QueryRow(ctx, query,
		a.ID,
		a.StudentName,
		a.Age,
		a.ParentName,
		a.Phone,
		a.Email,
		a.Address,
		a.PreviousEducation,
		string(a.Course),
		string(a.Status),
		a.SubmittedBy,
		a.CreatedAt,
	)

	created, err := scanAdmission(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Admission{}, fmt.Errorf("%s: %w", op, storage.ErrAccountNotFound)
		}

		return models.Admission{}, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (r *PostgresRepo) Admission(ctx context.Context, id string) (models.Admission, error) {
	query := `SELECT ` + admissionColumns + ` FROM admissions WHERE id = $1`

	return r.queryAdmission(ctx, "storage.postgres.Admission", query, id)
}

// AdmissionByOwner folds the ownership check into the lookup so that a
// foreign id and a missing id are indistinguishable.
func (r *PostgresRepo) AdmissionByOwner(ctx context.Context, id, ownerID string) (models.Admission, error) {
	query := `SELECT ` + admissionColumns + ` FROM admissions WHERE id = $1 AND submitted_by = $2`

	return r.queryAdmission(ctx, "storage.postgres.AdmissionByOwner", query, id, ownerID)
}

func (r *PostgresRepo) AdmissionsByOwner(ctx context.Context, ownerID string) ([]models.Admission, error) {
	const op = "storage.postgres.AdmissionsByOwner"

	query := `SELECT ` + admissionColumns + `
		FROM admissions
		WHERE submitted_by = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	list, err := collectAdmissions(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

func (r *PostgresRepo) ListAdmissions(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error) {
	const op = "storage.postgres.ListAdmissions"

	var status any
	if filter.Status != nil {
		status = string(*filter.Status)
	}

	var total int

	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM admissions WHERE ($1::text IS NULL OR status = $1::text)`,
		status,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count: %w", op, err)
	}

	query := `SELECT ` + admissionColumns + `
		FROM admissions
		WHERE ($1::text IS NULL OR status = $1::text)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	list, err := collectAdmissions(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return list, total, nil
}

// SaveReview writes status, notes, reviewer and timestamp in one statement.
func (r *PostgresRepo) SaveReview(ctx context.Context, id string, review models.Review) (models.Admission, error) {
	query := `
		UPDATE admissions
		SET status = $2,
			notes = $3,
			reviewed_by = $4,
			reviewed_at = $5,
			updated_at = $5
		WHERE id = $1
		RETURNING ` + admissionColumns

	return r.queryAdmission(ctx, "storage.postgres.SaveReview", query,
		id,
		string(review.Status),
		review.Notes,
		review.ReviewedBy,
		review.ReviewedAt,
	)
}

func (r *PostgresRepo) DeleteAdmission(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteAdmission"

	tag, err := r.pool.Exec(ctx, `DELETE FROM admissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrAdmissionNotFound
	}

	return nil
}

// CountAdmissions counts by status, optionally only for one owner.
func (r *PostgresRepo) CountAdmissions(ctx context.Context, ownerID *string) (models.StatusCounts, error) {
	const op = "storage.postgres.CountAdmissions"

	var owner any
	if ownerID != nil {
		owner = *ownerID
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*)
		FROM admissions
		WHERE ($1::uuid IS NULL OR submitted_by = $1::uuid)
		GROUP BY status`,
		owner,
	)
	if err != nil {
		return models.StatusCounts{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var counts models.StatusCounts

	for rows.Next() {
		var (
			status string
			n      int
		)

		if err := rows.Scan(&status, &n); err != nil {
			return models.StatusCounts{}, fmt.Errorf("%s: %w", op, err)
		}

		counts.Total += n

		switch models.Status(status) {
		case models.StatusPending:
			counts.Pending = n
		case models.StatusApproved:
			counts.Approved = n
		case models.StatusRejected:
			counts.Rejected = n
		}
	}

	if err := rows.Err(); err != nil {
		return models.StatusCounts{}, fmt.Errorf("%s: %w", op, err)
	}

	return counts, nil
}

func (r *PostgresRepo) RecentAdmissions(ctx context.Context, limit int) ([]models.AdmissionSummary, error) {
	const op = "storage.postgres.RecentAdmissions"

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, student_name, course, status, created_at
		FROM admissions
		ORDER BY created_at DESC, id DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	list := make([]models.AdmissionSummary, 0, limit)

	for rows.Next() {
		var (
			s      models.AdmissionSummary
			course string
			status string
		)

		if err := rows.Scan(&s.ID, &s.StudentName, &course, &status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		s.Course = models.Course(course)
		s.Status = models.Status(status)
		list = append(list, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

func (r *PostgresRepo) ContentCounts(ctx context.Context) (models.ContentCounts, error) {
	const op = "storage.postgres.ContentCounts"

	var c models.ContentCounts

	err := r.pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM news), (SELECT count(*) FROM faculty)`,
	).Scan(&c.News, &c.Faculty)
	if err != nil {
		return models.ContentCounts{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (r *PostgresRepo) queryAdmission(ctx context.Context, op, query string, args ...any) (models.Admission, error) {
	a, err := scanAdmission(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Admission{}, storage.ErrAdmissionNotFound
		}

		return models.Admission{}, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

func collectAdmissions(rows pgx.Rows) ([]models.Admission, error) {
	defer rows.Close()

	list := make([]models.Admission, 0)

	for rows.Next() {
		a, err := scanAdmission(rows)
		if err != nil {
			return nil, err
		}

		list = append(list, a)
	}

	return list, rows.Err()
}

func scanAdmission(row pgx.Row) (models.Admission, error) {
	var (
		a      models.Admission
		course string
		status string
	)

	err := row.Scan(
		&a.ID,
		&a.StudentName,
		&a.Age,
		&a.ParentName,
		&a.Phone,
		&a.Email,
		&a.Address,
		&a.PreviousEducation,
		&course,
		&status,
		&a.SubmittedBy,
		&a.ReviewedBy,
		&a.ReviewedAt,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return models.Admission{}, err
	}

	a.Course = models.Course(course)
	a.Status = models.Status(status)

	return a, nil
}
