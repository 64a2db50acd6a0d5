package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"app/internal/model"
	"app/internal/pubsub"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ErrForbidden is returned when the visibility policy denies the requester.
var ErrForbidden = errors.New("forbidden")

// CourseFullError is returned when a course has no free seats. It carries
// the current roster state so clients see how many seats exist.
type CourseFullError struct {
	Enrolled    int
	MaxStudents int
}

func (e *CourseFullError) Error() string {
	return fmt.Sprintf("course is full (%d/%d students)", e.Enrolled, e.MaxStudents)
}

func (e *CourseFullError) Unwrap() error {
	return repository.ErrCourseFull
}

// EnrollmentService mutates course rosters under the capacity, duplicate
// and ownership rules.
type EnrollmentService interface {
	// Enroll adds the student to the course roster and returns the new
	// enrollment together with the course it belongs to.
	Enroll(ctx context.Context, courseID, studentID string) (*model.Enrollment, *model.Course, error)
	// Unenroll removes the student from the roster. Retrying after
	// ErrNotEnrolled is safe; retrying after success fails.
	Unenroll(ctx context.Context, courseID, studentID string) error
	// ListEnrollments returns the roster in enrollment order. Only the
	// course owner may see it; everyone else gets ErrForbidden.
	ListEnrollments(ctx context.Context, courseID, requesterID string) ([]model.Enrollment, error)
}

type enrollmentService struct {
	enrollRepo repository.EnrollmentRepository
	courseRepo repository.CourseRepository
	publisher  pubsub.Publisher
	logger     zerolog.Logger
}

// NewEnrollmentService creates an EnrollmentService.
func NewEnrollmentService(
	enrollRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	publisher pubsub.Publisher,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		enrollRepo: enrollRepo,
		courseRepo: courseRepo,
		publisher:  publisher,
		logger:     logger.With().Str("service", "EnrollmentService").Logger(),
	}
}

// rosterEvent is the payload published on roster changes for downstream
// consumers (analytics, notification workers).
type rosterEvent struct {
	Event     string    `json:"event"` // "enrolled" or "unenrolled"
	CourseID  string    `json:"course_id"`
	StudentID string    `json:"student_id"`
	Timestamp time.Time `json:"timestamp"`
}

// publishRosterEvent publishes best-effort: the roster change is already
// committed, so a publish failure is logged and never surfaced.
func (s *enrollmentService) publishRosterEvent(ctx context.Context, event, courseID, studentID string) {
	payload, err := json.Marshal(rosterEvent{
		Event:     event,
		CourseID:  courseID,
		StudentID: studentID,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("Failed to marshal roster event")
		return
	}
	if _, err := s.publisher.Publish(ctx, payload); err != nil {
		s.logger.Error().Err(err).Str("event", event).Str("course_id", courseID).Msg("Failed to publish roster event")
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, courseID, studentID string) (*model.Enrollment, *model.Course, error) {
	enrollment, state, err := s.enrollRepo.Enroll(ctx, courseID, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseFull) && state != nil && state.MaxStudents != nil {
			return nil, nil, &CourseFullError{Enrolled: state.Enrolled, MaxStudents: *state.MaxStudents}
		}
		return nil, nil, err
	}

	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading course after enrollment: %w", err)
	}
	if course == nil {
		// The course was deleted between the committed enroll and this read;
		// its enrollments went with it (ON DELETE CASCADE).
		return nil, nil, repository.ErrCourseNotFound
	}
	s.logger.Info().Str("course_id", courseID).Str("student_id", studentID).Msg("Student enrolled")
	s.publishRosterEvent(ctx, "enrolled", courseID, studentID)
	return enrollment, course, nil
}

func (s *enrollmentService) Unenroll(ctx context.Context, courseID, studentID string) error {
	if err := s.enrollRepo.Unenroll(ctx, courseID, studentID); err != nil {
		return err
	}
	s.logger.Info().Str("course_id", courseID).Str("student_id", studentID).Msg("Student unenrolled")
	s.publishRosterEvent(ctx, "unenrolled", courseID, studentID)
	return nil
}

func (s *enrollmentService) ListEnrollments(ctx context.Context, courseID, requesterID string) ([]model.Enrollment, error) {
	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, repository.ErrCourseNotFound
	}
	if !CanSeeRoster(course, requesterID) {
		return nil, ErrForbidden
	}
	return s.enrollRepo.ListByCourse(ctx, courseID)
}
