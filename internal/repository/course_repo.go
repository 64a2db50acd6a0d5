package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// CourseRepository defines the interface for interacting with course data
type CourseRepository interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	// GetCourseByID retrieves a course by its ID; returns nil when not found
	GetCourseByID(ctx context.Context, courseID string) (*model.Course, error)
	// UpdateCourse updates an existing course
	UpdateCourse(ctx context.Context, c *model.Course) error
	// DeleteCourse deletes a course and its roster
	DeleteCourse(ctx context.Context, courseID string) error
	// FindPublished lists published courses matching the filter, newest first
	FindPublished(ctx context.Context, filter model.CourseFilter) ([]model.Course, int, error)
	// GetCoursesByInstructor lists an instructor's own courses, newest first
	GetCoursesByInstructor(ctx context.Context, instructorID string) ([]model.Course, error)
	// GetCoursesByStudent lists courses a student is enrolled in, most recent enrollment first
	GetCoursesByStudent(ctx context.Context, studentID string) ([]model.Course, []model.Enrollment, error)
	// ListPublishedSample returns up to limit published courses with minimal fields
	ListPublishedSample(ctx context.Context, limit int) ([]model.CourseSummary, error)
}

type courseRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCourseRepo creates a new CourseRepository
func NewCourseRepo(pool *pgxpool.Pool, logger zerolog.Logger) CourseRepository {
	return &courseRepo{pool: pool, logger: logger}
}

const courseColumns = `id, instructor_id, title, description, content, category, level, duration, price, max_students, is_published, created_at, updated_at`

func scanCourse(row pgx.Row, c *model.Course) error {
	return row.Scan(
		&c.CourseID,
		&c.InstructorID,
		&c.Title,
		&c.Description,
		&c.Content,
		&c.Category,
		&c.Level,
		&c.Duration,
		&c.Price,
		&c.MaxStudents,
		&c.IsPublished,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

// CreateCourse inserts a new course and returns the created record
func (r *courseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	query := `
		INSERT INTO courses (instructor_id, title, description, content, category, level, duration, price, max_students, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + courseColumns
	row := r.pool.QueryRow(ctx, query,
		c.InstructorID, c.Title, c.Description, c.Content, c.Category,
		c.Level, c.Duration, c.Price, c.MaxStudents, c.IsPublished,
	)
	if err := scanCourse(row, c); err != nil {
		return fmt.Errorf("creating course: %w", err)
	}
	return nil
}

// GetCourseByID retrieves a course by its ID
func (r *courseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	var c model.Course
	if err := scanCourse(r.pool.QueryRow(ctx, query, courseID), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting course %s: %w", courseID, err)
	}
	return &c, nil
}

// UpdateCourse updates an existing course record and returns updated timestamps
func (r *courseRepo) UpdateCourse(ctx context.Context, c *model.Course) error {
	query := `
		UPDATE courses
		SET title = $1, description = $2, content = $3, category = $4, level = $5,
		    duration = $6, price = $7, max_students = $8, is_published = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING ` + courseColumns
	row := r.pool.QueryRow(ctx, query,
		c.Title, c.Description, c.Content, c.Category, c.Level,
		c.Duration, c.Price, c.MaxStudents, c.IsPublished, c.CourseID,
	)
	if err := scanCourse(row, c); err != nil {
		return fmt.Errorf("updating course %s: %w", c.CourseID, err)
	}
	return nil
}

// DeleteCourse deletes a course; enrollments cascade at the schema level
func (r *courseRepo) DeleteCourse(ctx context.Context, courseID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, courseID); err != nil {
		return fmt.Errorf("deleting course %s: %w", courseID, err)
	}
	return nil
}

// FindPublished lists published courses matching the filter, newest first.
// Search is a case-insensitive substring match on title and description.
func (r *courseRepo) FindPublished(ctx context.Context, filter model.CourseFilter) ([]model.Course, int, error) {
	where := `WHERE is_published = TRUE`
	args := []any{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Level != "" {
		args = append(args, filter.Level)
		where += fmt.Sprintf(" AND level = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM courses `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting courses: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 10
	}
	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`SELECT `+courseColumns+` FROM courses %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying courses: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := scanCourse(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("scanning course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}
	return courses, total, nil
}

// GetCoursesByInstructor lists an instructor's own courses, newest first
func (r *courseRepo) GetCoursesByInstructor(ctx context.Context, instructorID string) ([]model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE instructor_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, instructorID)
	if err != nil {
		return nil, fmt.Errorf("querying instructor courses: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := scanCourse(rows, &c); err != nil {
			return nil, fmt.Errorf("scanning course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return courses, nil
}

// GetCoursesByStudent lists courses a student is enrolled in together with
// the student's enrollment record, most recent enrollment first.
func (r *courseRepo) GetCoursesByStudent(ctx context.Context, studentID string) ([]model.Course, []model.Enrollment, error) {
	// Course columns are c.-qualified here: both joined tables carry an id
	// column, and an unqualified id is ambiguous to Postgres.
	query := `
		SELECT c.id, c.instructor_id, c.title, c.description, c.content, c.category,
			c.level, c.duration, c.price, c.max_students, c.is_published, c.created_at, c.updated_at,
			e.course_id, e.student_id, e.enrolled_at, e.progress
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		WHERE e.student_id = $1
		ORDER BY e.enrolled_at DESC
	`
	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, nil, fmt.Errorf("querying enrolled courses: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	enrollments := []model.Enrollment{}
	for rows.Next() {
		var c model.Course
		var e model.Enrollment
		if err := rows.Scan(
			&c.CourseID, &c.InstructorID, &c.Title, &c.Description, &c.Content,
			&c.Category, &c.Level, &c.Duration, &c.Price, &c.MaxStudents,
			&c.IsPublished, &c.CreatedAt, &c.UpdatedAt,
			&e.CourseID, &e.StudentID, &e.EnrolledAt, &e.Progress,
		); err != nil {
			return nil, nil, fmt.Errorf("scanning enrolled course: %w", err)
		}
		courses = append(courses, c)
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows error: %w", err)
	}
	return courses, enrollments, nil
}

// ListPublishedSample returns up to limit published courses with only the
// fields needed to build the recommendation prompt.
func (r *courseRepo) ListPublishedSample(ctx context.Context, limit int) ([]model.CourseSummary, error) {
	query := `SELECT id, title, category, level FROM courses WHERE is_published = TRUE ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying published sample: %w", err)
	}
	defer rows.Close()

	summaries := []model.CourseSummary{}
	for rows.Next() {
		var s model.CourseSummary
		if err := rows.Scan(&s.CourseID, &s.Title, &s.Category, &s.Level); err != nil {
			return nil, fmt.Errorf("scanning course summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return summaries, nil
}
