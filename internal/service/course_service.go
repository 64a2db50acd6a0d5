package service

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/repository"
)

// ErrNotCourseOwner is returned when a caller mutates a course they do not own.
var ErrNotCourseOwner = errors.New("not course owner")

// CourseView is a course filtered through the visibility policy for one
// viewer. Built fresh on every request; access is never cached.
type CourseView struct {
	Course          model.Course
	ContentLocked   bool
	EnrollmentCount int
	// Roster is only populated when the viewer may see it (the owner).
	Roster         []model.Enrollment
	ContactVisible bool
	ViewerEnrolled bool
}

// CourseService defines the interface for course catalog operations
type CourseService interface {
	CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error)
	// UpdateCourse updates a course owned by instructorID
	UpdateCourse(ctx context.Context, instructorID string, c *model.Course) (*model.Course, error)
	// DeleteCourse deletes a course owned by instructorID
	DeleteCourse(ctx context.Context, instructorID, courseID string) error
	// GetCourseView returns the course filtered through the visibility
	// policy for viewerID (empty string for anonymous viewers).
	GetCourseView(ctx context.Context, courseID, viewerID string) (*CourseView, error)
	// ListPublished lists published courses matching the filter, together
	// with per-course roster counts and the unpaginated total.
	ListPublished(ctx context.Context, filter model.CourseFilter) ([]model.Course, map[string]int, int, error)
	// GetInstructorCourses lists an instructor's courses with their rosters.
	GetInstructorCourses(ctx context.Context, instructorID string) ([]model.Course, map[string][]model.Enrollment, error)
	// GetEnrolledCourses lists a student's enrolled courses with the
	// student's own enrollment record and per-course roster counts.
	GetEnrolledCourses(ctx context.Context, studentID string) ([]model.Course, []model.Enrollment, map[string]int, error)
}

// courseService is the implementation of CourseService
type courseService struct {
	courseRepo repository.CourseRepository
	enrollRepo repository.EnrollmentRepository
}

// NewCourseService creates a new CourseService
func NewCourseService(courseRepo repository.CourseRepository, enrollRepo repository.EnrollmentRepository) CourseService {
	return &courseService{courseRepo: courseRepo, enrollRepo: enrollRepo}
}

// CreateCourse creates a new course record
func (s *courseService) CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error) {
	if err := s.courseRepo.CreateCourse(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCourse updates an existing course owned by instructorID
func (s *courseService) UpdateCourse(ctx context.Context, instructorID string, c *model.Course) (*model.Course, error) {
	existing, err := s.courseRepo.GetCourseByID(ctx, c.CourseID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, repository.ErrCourseNotFound
	}
	if existing.InstructorID != instructorID {
		return nil, ErrNotCourseOwner
	}
	if err := s.courseRepo.UpdateCourse(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCourse deletes a course owned by instructorID
func (s *courseService) DeleteCourse(ctx context.Context, instructorID, courseID string) error {
	existing, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if existing == nil {
		return repository.ErrCourseNotFound
	}
	if existing.InstructorID != instructorID {
		return ErrNotCourseOwner
	}
	return s.courseRepo.DeleteCourse(ctx, courseID)
}

// GetCourseView returns the course filtered through the visibility policy.
func (s *courseService) GetCourseView(ctx context.Context, courseID, viewerID string) (*CourseView, error) {
	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, repository.ErrCourseNotFound
	}

	enrolled := false
	if viewerID != "" {
		enrolled, err = s.enrollRepo.IsEnrolled(ctx, courseID, viewerID)
		if err != nil {
			return nil, err
		}
	}
	count, err := s.enrollRepo.CountByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	view := &CourseView{
		Course:          *course,
		EnrollmentCount: count,
		ContactVisible:  CanSeeInstructorContactInfo(course, viewerID, enrolled),
		ViewerEnrolled:  enrolled,
	}
	if !CanSeeFullContent(course, viewerID, enrolled) {
		view.Course.Content, view.ContentLocked = lockContent(course.Content)
	}
	if CanSeeRoster(course, viewerID) {
		roster, err := s.enrollRepo.ListByCourse(ctx, courseID)
		if err != nil {
			return nil, fmt.Errorf("loading roster: %w", err)
		}
		view.Roster = roster
	}
	return view, nil
}

// lockContent truncates content for a viewer without full access. The
// locked flag is set even when the content fit the preview, so clients
// always know the view is restricted.
func lockContent(content string) (string, bool) {
	preview, _ := PreviewContent(content)
	return preview, true
}

// ListPublished lists published courses matching the filter. Roster counts
// accompany the page so clients can show seat availability; the roster
// lists themselves stay owner-only.
func (s *courseService) ListPublished(ctx context.Context, filter model.CourseFilter) ([]model.Course, map[string]int, int, error) {
	courses, total, err := s.courseRepo.FindPublished(ctx, filter)
	if err != nil {
		return nil, nil, 0, err
	}
	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.CourseID
	}
	counts := map[string]int{}
	if len(ids) > 0 {
		counts, err = s.enrollRepo.CountByCourses(ctx, ids)
		if err != nil {
			return nil, nil, 0, err
		}
	}
	return courses, counts, total, nil
}

// GetInstructorCourses lists an instructor's courses with their rosters.
// The instructor owns these courses, so the visibility policy grants the
// roster on each.
func (s *courseService) GetInstructorCourses(ctx context.Context, instructorID string) ([]model.Course, map[string][]model.Enrollment, error) {
	courses, err := s.courseRepo.GetCoursesByInstructor(ctx, instructorID)
	if err != nil {
		return nil, nil, err
	}
	rosters := make(map[string][]model.Enrollment, len(courses))
	for _, c := range courses {
		roster, err := s.enrollRepo.ListByCourse(ctx, c.CourseID)
		if err != nil {
			return nil, nil, fmt.Errorf("loading roster for course %s: %w", c.CourseID, err)
		}
		rosters[c.CourseID] = roster
	}
	return courses, rosters, nil
}

// GetEnrolledCourses lists a student's enrolled courses.
func (s *courseService) GetEnrolledCourses(ctx context.Context, studentID string) ([]model.Course, []model.Enrollment, map[string]int, error) {
	courses, enrollments, err := s.courseRepo.GetCoursesByStudent(ctx, studentID)
	if err != nil {
		return nil, nil, nil, err
	}
	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.CourseID
	}
	counts := map[string]int{}
	if len(ids) > 0 {
		counts, err = s.enrollRepo.CountByCourses(ctx, ids)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return courses, enrollments, counts, nil
}
