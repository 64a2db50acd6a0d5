package handler

import (
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/repository"
	"app/internal/service"
	"app/internal/util"

	"github.com/rs/zerolog"
)

// EnrollmentHandler handles roster endpoints. Its routes live under
// /courses/{id}/… and are dispatched through CourseHandler.
type EnrollmentHandler struct {
	enrollmentService service.EnrollmentService
	logger            zerolog.Logger
}

// NewEnrollmentHandler creates a new EnrollmentHandler
func NewEnrollmentHandler(enrollmentService service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
		logger:            logger,
	}
}

// enroll godoc
// @Summary Enroll in a course
// @Description Adds the authenticated student to the course roster.
// @Tags enrollments
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.EnrollResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Failure 409 {object} dto.CourseFullResponseDTO
// @Router /courses/{courseId}/enroll [post]
func (h *EnrollmentHandler) enroll(w http.ResponseWriter, r *http.Request, courseID string) {
	studentID, ok := requireRole(w, r, util.RoleStudent)
	if !ok {
		return
	}

	enrollment, course, err := h.enrollmentService.Enroll(r.Context(), courseID, studentID)
	if err != nil {
		var fullErr *service.CourseFullError
		switch {
		case errors.Is(err, repository.ErrCourseNotFound):
			writeError(w, http.StatusNotFound, "Course not found")
		case errors.Is(err, repository.ErrCourseUnpublished):
			writeError(w, http.StatusConflict, "Course is not available for enrollment")
		case errors.As(err, &fullErr):
			writeJSON(w, http.StatusConflict, dto.CourseFullResponseDTO{
				Success:        false,
				Message:        "Course is full. Cannot enroll more students",
				Enrolled:       fullErr.Enrolled,
				MaxStudents:    fullErr.MaxStudents,
				AvailableSlots: 0,
			})
		case errors.Is(err, repository.ErrAlreadyEnrolled):
			writeError(w, http.StatusConflict, "You are already enrolled in this course")
		case errors.Is(err, repository.ErrOwnerEnrollment):
			writeError(w, http.StatusConflict, "Instructors cannot enroll in their own courses")
		default:
			h.logger.Error().Err(err).Str("course_id", courseID).Msg("Enrollment failed")
			writeError(w, http.StatusInternalServerError, "Failed to enroll in course")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.EnrollResponseDTO{
		Success: true,
		Message: "Successfully enrolled in course",
		Enrollment: dto.EnrollmentDetailDTO{
			CourseID:    course.CourseID,
			CourseTitle: course.Title,
			EnrolledAt:  enrollment.EnrolledAt,
		},
	})
}

// unenroll godoc
// @Summary Unenroll from a course
// @Description Removes the authenticated student from the course roster.
// @Tags enrollments
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.MessageResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Failure 409 {object} dto.ErrorResponseDTO
// @Router /courses/{courseId}/enroll [delete]
func (h *EnrollmentHandler) unenroll(w http.ResponseWriter, r *http.Request, courseID string) {
	studentID, ok := requireRole(w, r, util.RoleStudent)
	if !ok {
		return
	}

	if err := h.enrollmentService.Unenroll(r.Context(), courseID, studentID); err != nil {
		switch {
		case errors.Is(err, repository.ErrCourseNotFound):
			writeError(w, http.StatusNotFound, "Course not found")
		case errors.Is(err, repository.ErrNotEnrolled):
			writeError(w, http.StatusConflict, "You are not enrolled in this course")
		default:
			h.logger.Error().Err(err).Str("course_id", courseID).Msg("Unenrollment failed")
			writeError(w, http.StatusInternalServerError, "Failed to unenroll from course")
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponseDTO{Success: true, Message: "Successfully unenrolled from course"})
}

// listRoster godoc
// @Summary List a course roster
// @Description Returns the roster in enrollment order. Owner only.
// @Tags enrollments
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.RosterResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /courses/{courseId}/enrollments [get]
func (h *EnrollmentHandler) listRoster(w http.ResponseWriter, r *http.Request, courseID string) {
	requesterID, ok := requireAuth(w, r)
	if !ok {
		return
	}

	enrollments, err := h.enrollmentService.ListEnrollments(r.Context(), courseID, requesterID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCourseNotFound):
			writeError(w, http.StatusNotFound, "Course not found")
		case errors.Is(err, service.ErrForbidden):
			writeError(w, http.StatusForbidden, "Only the course instructor may view the roster")
		default:
			h.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to list roster")
			writeError(w, http.StatusInternalServerError, "Failed to fetch roster")
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.RosterResponseDTO{
		Success:     true,
		CourseID:    courseID,
		Enrollments: enrollmentsToDTO(enrollments),
	})
}
