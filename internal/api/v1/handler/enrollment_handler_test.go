package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"app/internal/model"
	"app/internal/repository"
	"app/internal/service"
	"app/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type stubCourseService struct{}

func (stubCourseService) CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error) {
	return c, nil
}
func (stubCourseService) UpdateCourse(ctx context.Context, instructorID string, c *model.Course) (*model.Course, error) {
	return c, nil
}
func (stubCourseService) DeleteCourse(ctx context.Context, instructorID, courseID string) error {
	return nil
}
func (stubCourseService) GetCourseView(ctx context.Context, courseID, viewerID string) (*service.CourseView, error) {
	return nil, repository.ErrCourseNotFound
}
func (stubCourseService) ListPublished(ctx context.Context, filter model.CourseFilter) ([]model.Course, map[string]int, int, error) {
	return nil, nil, 0, nil
}
func (stubCourseService) GetInstructorCourses(ctx context.Context, instructorID string) ([]model.Course, map[string][]model.Enrollment, error) {
	return nil, nil, nil
}
func (stubCourseService) GetEnrolledCourses(ctx context.Context, studentID string) ([]model.Course, []model.Enrollment, map[string]int, error) {
	return nil, nil, nil, nil
}

type stubEnrollmentService struct {
	enrollErr   error
	unenrollErr error
	rosterErr   error
	roster      []model.Enrollment
}

func (s *stubEnrollmentService) Enroll(ctx context.Context, courseID, studentID string) (*model.Enrollment, *model.Course, error) {
	if s.enrollErr != nil {
		return nil, nil, s.enrollErr
	}
	return &model.Enrollment{CourseID: courseID, StudentID: studentID, EnrolledAt: time.Now().UTC()},
		&model.Course{CourseID: courseID, Title: "Go Fundamentals"}, nil
}

func (s *stubEnrollmentService) Unenroll(ctx context.Context, courseID, studentID string) error {
	return s.unenrollErr
}

func (s *stubEnrollmentService) ListEnrollments(ctx context.Context, courseID, requesterID string) ([]model.Enrollment, error) {
	if s.rosterErr != nil {
		return nil, s.rosterErr
	}
	return s.roster, nil
}

func courseMux(enrollSvc service.EnrollmentService, userID, role string) *http.ServeMux {
	enrollHandler := NewEnrollmentHandler(enrollSvc, zerolog.Nop())
	courseHandler := NewCourseHandler(stubCourseService{}, enrollHandler, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	mux := http.NewServeMux()
	courseHandler.RegisterRoutes(mux, identityMw(userID, role))
	return mux
}

func doRequest(mux *http.ServeMux, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestEnrollStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"course not found", repository.ErrCourseNotFound, http.StatusNotFound},
		{"unpublished", repository.ErrCourseUnpublished, http.StatusConflict},
		{"full", &service.CourseFullError{Enrolled: 5, MaxStudents: 5}, http.StatusConflict},
		{"already enrolled", repository.ErrAlreadyEnrolled, http.StatusConflict},
		{"owner enrollment", repository.ErrOwnerEnrollment, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := courseMux(&stubEnrollmentService{enrollErr: tc.err}, "s1", util.RoleStudent)
			rec := doRequest(mux, http.MethodPost, "/courses/c1/enroll")
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestEnrollFullPayloadCarriesSeatState(t *testing.T) {
	fullErr := &service.CourseFullError{Enrolled: 5, MaxStudents: 5}
	mux := courseMux(&stubEnrollmentService{enrollErr: fullErr}, "s1", util.RoleStudent)

	rec := doRequest(mux, http.MethodPost, "/courses/c1/enroll")
	body := rec.Body.String()
	for _, want := range []string{`"enrolled":5`, `"max_students":5`, `"available_slots":0`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %s: %s", want, body)
		}
	}
}

func TestEnrollSuccess(t *testing.T) {
	mux := courseMux(&stubEnrollmentService{}, "s1", util.RoleStudent)
	rec := doRequest(mux, http.MethodPost, "/courses/c1/enroll")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"course_title":"Go Fundamentals"`) {
		t.Fatalf("body missing course title: %s", rec.Body.String())
	}
}

func TestEnrollRequiresStudent(t *testing.T) {
	mux := courseMux(&stubEnrollmentService{}, "inst-1", util.RoleInstructor)
	if rec := doRequest(mux, http.MethodPost, "/courses/c1/enroll"); rec.Code != http.StatusForbidden {
		t.Fatalf("instructor enroll status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	mux = courseMux(&stubEnrollmentService{}, "", "")
	if rec := doRequest(mux, http.MethodPost, "/courses/c1/enroll"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous enroll status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUnenrollStatusMapping(t *testing.T) {
	mux := courseMux(&stubEnrollmentService{unenrollErr: repository.ErrNotEnrolled}, "s1", util.RoleStudent)
	if rec := doRequest(mux, http.MethodDelete, "/courses/c1/enroll"); rec.Code != http.StatusConflict {
		t.Fatalf("not-enrolled status = %d, want %d", rec.Code, http.StatusConflict)
	}

	mux = courseMux(&stubEnrollmentService{}, "s1", util.RoleStudent)
	if rec := doRequest(mux, http.MethodDelete, "/courses/c1/enroll"); rec.Code != http.StatusOK {
		t.Fatalf("unenroll status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRosterAccess(t *testing.T) {
	mux := courseMux(&stubEnrollmentService{rosterErr: service.ErrForbidden}, "s1", util.RoleStudent)
	if rec := doRequest(mux, http.MethodGet, "/courses/c1/enrollments"); rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner roster status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	roster := []model.Enrollment{{CourseID: "c1", StudentID: "s1", EnrolledAt: time.Now().UTC()}}
	mux = courseMux(&stubEnrollmentService{roster: roster}, "inst-1", util.RoleInstructor)
	rec := doRequest(mux, http.MethodGet, "/courses/c1/enrollments")
	if rec.Code != http.StatusOK {
		t.Fatalf("owner roster status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"student_id":"s1"`) {
		t.Fatalf("roster body missing student: %s", rec.Body.String())
	}
}
