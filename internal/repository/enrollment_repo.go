package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Enrollment failures surfaced from the roster transaction.
var (
	ErrCourseNotFound    = errors.New("course_not_found")
	ErrCourseUnpublished = errors.New("course_unpublished")
	ErrCourseFull        = errors.New("course_full")
	ErrAlreadyEnrolled   = errors.New("already_enrolled")
	ErrOwnerEnrollment   = errors.New("owner_enrollment")
	ErrNotEnrolled       = errors.New("not_enrolled")
)

// RosterState reports a course's capacity situation after a failed enroll,
// so callers can tell clients how many seats remain.
type RosterState struct {
	Enrolled    int
	MaxStudents *int
}

// EnrollmentRepository owns the course roster. All mutations run inside a
// serializable transaction that locks the course row, so capacity and
// duplicate checks hold under concurrent callers.
type EnrollmentRepository interface {
	// Enroll appends the student to the roster with progress 0. On
	// ErrCourseFull the returned state carries the current seat count.
	Enroll(ctx context.Context, courseID, studentID string) (*model.Enrollment, *RosterState, error)
	// Unenroll removes the student's enrollment record.
	Unenroll(ctx context.Context, courseID, studentID string) error
	// ListByCourse returns the roster in enrollment order.
	ListByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error)
	// CountByCourse returns the roster size.
	CountByCourse(ctx context.Context, courseID string) (int, error)
	// CountByCourses returns roster sizes for the given courses. Courses
	// with empty rosters are absent from the map.
	CountByCourses(ctx context.Context, courseIDs []string) (map[string]int, error)
	// IsEnrolled reports whether the student appears in the roster.
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
}

type enrollmentRepo struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepo creates a new EnrollmentRepository.
func NewEnrollmentRepo(pool *pgxpool.Pool) EnrollmentRepository {
	return &enrollmentRepo{pool: pool}
}

const serializationFailure = "40001"

// isSerializationFailure reports whether err is a serializable-transaction
// conflict worth retrying.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == serializationFailure
}

const enrollRetries = 3

func (r *enrollmentRepo) Enroll(ctx context.Context, courseID, studentID string) (*model.Enrollment, *RosterState, error) {
	var enrollment *model.Enrollment
	var state *RosterState
	var err error
	for attempt := 0; attempt < enrollRetries; attempt++ {
		enrollment, state, err = r.enrollOnce(ctx, courseID, studentID)
		if err == nil || !isSerializationFailure(err) {
			return enrollment, state, err
		}
	}
	return nil, nil, fmt.Errorf("enrolling after %d attempts: %w", enrollRetries, err)
}

// enrollOnce runs the enrollment checks and insert in one serializable
// transaction. The course row lock serializes concurrent enrolls on the
// same course, so the capacity check observed here still holds at commit.
func (r *enrollmentRepo) enrollOnce(ctx context.Context, courseID, studentID string) (*model.Enrollment, *RosterState, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, nil, fmt.Errorf("starting enroll transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var instructorID string
	var isPublished bool
	var maxStudents *int
	const courseQ = `
		SELECT instructor_id, is_published, max_students
		FROM courses
		WHERE id = $1
		FOR UPDATE
	`
	if err := tx.QueryRow(ctx, courseQ, courseID).Scan(&instructorID, &isPublished, &maxStudents); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrCourseNotFound
		}
		return nil, nil, fmt.Errorf("locking course %s: %w", courseID, err)
	}
	if !isPublished {
		return nil, nil, ErrCourseUnpublished
	}
	if instructorID == studentID {
		return nil, nil, ErrOwnerEnrollment
	}

	var enrolled int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments WHERE course_id = $1`, courseID).Scan(&enrolled); err != nil {
		return nil, nil, fmt.Errorf("counting roster for course %s: %w", courseID, err)
	}

	var exists bool
	const dupQ = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id = $1 AND student_id = $2)`
	if err := tx.QueryRow(ctx, dupQ, courseID, studentID).Scan(&exists); err != nil {
		return nil, nil, fmt.Errorf("checking enrollment for student %s: %w", studentID, err)
	}
	if exists {
		return nil, nil, ErrAlreadyEnrolled
	}

	if maxStudents != nil && enrolled >= *maxStudents {
		return nil, &RosterState{Enrolled: enrolled, MaxStudents: maxStudents}, ErrCourseFull
	}

	var e model.Enrollment
	const insertQ = `
		INSERT INTO enrollments (course_id, student_id, progress)
		VALUES ($1, $2, 0)
		RETURNING course_id, student_id, enrolled_at, progress
	`
	if err := tx.QueryRow(ctx, insertQ, courseID, studentID).Scan(&e.CourseID, &e.StudentID, &e.EnrolledAt, &e.Progress); err != nil {
		return nil, nil, fmt.Errorf("inserting enrollment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing enrollment: %w", err)
	}
	return &e, nil, nil
}

func (r *enrollmentRepo) Unenroll(ctx context.Context, courseID, studentID string) error {
	var err error
	for attempt := 0; attempt < enrollRetries; attempt++ {
		err = r.unenrollOnce(ctx, courseID, studentID)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("unenrolling after %d attempts: %w", enrollRetries, err)
}

func (r *enrollmentRepo) unenrollOnce(ctx context.Context, courseID, studentID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("starting unenroll transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists); err != nil {
		return fmt.Errorf("checking course %s: %w", courseID, err)
	}
	if !exists {
		return ErrCourseNotFound
	}

	tag, err := tx.Exec(ctx, `DELETE FROM enrollments WHERE course_id = $1 AND student_id = $2`, courseID, studentID)
	if err != nil {
		return fmt.Errorf("deleting enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotEnrolled
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing unenrollment: %w", err)
	}
	return nil
}

// ListByCourse returns the roster in enrollment order.
func (r *enrollmentRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error) {
	const q = `
		SELECT course_id, student_id, enrolled_at, progress
		FROM enrollments
		WHERE course_id = $1
		ORDER BY id ASC
	`
	rows, err := r.pool.Query(ctx, q, courseID)
	if err != nil {
		return nil, fmt.Errorf("querying roster: %w", err)
	}
	defer rows.Close()

	enrollments := []model.Enrollment{}
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.CourseID, &e.StudentID, &e.EnrolledAt, &e.Progress); err != nil {
			return nil, fmt.Errorf("scanning enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return enrollments, nil
}

// CountByCourse returns the roster size.
func (r *enrollmentRepo) CountByCourse(ctx context.Context, courseID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments WHERE course_id = $1`, courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting roster: %w", err)
	}
	return count, nil
}

// CountByCourses returns roster sizes for the given courses.
func (r *enrollmentRepo) CountByCourses(ctx context.Context, courseIDs []string) (map[string]int, error) {
	const q = `SELECT course_id, COUNT(*) FROM enrollments WHERE course_id = ANY($1) GROUP BY course_id`
	rows, err := r.pool.Query(ctx, q, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("counting rosters: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int, len(courseIDs))
	for rows.Next() {
		var courseID string
		var count int
		if err := rows.Scan(&courseID, &count); err != nil {
			return nil, fmt.Errorf("scanning roster count: %w", err)
		}
		counts[courseID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return counts, nil
}

// IsEnrolled reports whether the student appears in the roster.
func (r *enrollmentRepo) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id = $1 AND student_id = $2)`
	if err := r.pool.QueryRow(ctx, q, courseID, studentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking enrollment: %w", err)
	}
	return exists, nil
}
