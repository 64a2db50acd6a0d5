package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/repository"
	"app/internal/service"
	"app/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CourseHandler handles course catalog endpoints and delegates roster
// routes to the enrollment handler.
type CourseHandler struct {
	courseService service.CourseService
	enrollment    *EnrollmentHandler
	validate      *validator.Validate
	logger        zerolog.Logger
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(courseService service.CourseService, enrollment *EnrollmentHandler, validate *validator.Validate, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		enrollment:    enrollment,
		validate:      validate,
		logger:        logger,
	}
}

// RegisterRoutes mounts course routes. The middleware resolves the caller
// identity when a token is present but leaves catalog reads public; role
// checks happen per route.
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux, optionalAuthMw func(http.Handler) http.Handler) {
	mux.Handle("/courses", optionalAuthMw(http.HandlerFunc(h.handleCourses)))
	mux.Handle("/courses/", optionalAuthMw(http.HandlerFunc(h.handleCourse)))
}

func (h *CourseHandler) handleCourses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listCourses(w, r)
	case http.MethodPost:
		h.createCourse(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *CourseHandler) handleCourse(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/courses/")

	switch {
	case path == "instructor/my-courses" && r.Method == http.MethodGet:
		h.instructorCourses(w, r)
		return
	case path == "enrolled/my-courses" && r.Method == http.MethodGet:
		h.enrolledCourses(w, r)
		return
	}

	parts := strings.Split(path, "/")
	courseID := parts[0]
	if courseID == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.getCourse(w, r, courseID)
	case len(parts) == 1 && r.Method == http.MethodPut:
		h.updateCourse(w, r, courseID)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.deleteCourse(w, r, courseID)
	case len(parts) == 2 && parts[1] == "enroll" && r.Method == http.MethodPost:
		h.enrollment.enroll(w, r, courseID)
	case len(parts) == 2 && parts[1] == "enroll" && r.Method == http.MethodDelete:
		h.enrollment.unenroll(w, r, courseID)
	case len(parts) == 2 && parts[1] == "enrollments" && r.Method == http.MethodGet:
		h.enrollment.listRoster(w, r, courseID)
	default:
		http.NotFound(w, r)
	}
}

func courseToDTO(c model.Course, enrollmentCount int) dto.CourseResponseDTO {
	return dto.CourseResponseDTO{
		CourseID:        c.CourseID,
		InstructorID:    c.InstructorID,
		Title:           c.Title,
		Description:     c.Description,
		Content:         c.Content,
		Category:        c.Category,
		Level:           c.Level,
		Duration:        c.Duration,
		Price:           c.Price,
		MaxStudents:     c.MaxStudents,
		IsPublished:     c.IsPublished,
		EnrollmentCount: enrollmentCount,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func enrollmentsToDTO(enrollments []model.Enrollment) []dto.EnrollmentDTO {
	out := make([]dto.EnrollmentDTO, len(enrollments))
	for i, e := range enrollments {
		out[i] = dto.EnrollmentDTO{StudentID: e.StudentID, EnrolledAt: e.EnrolledAt, Progress: e.Progress}
	}
	return out
}

// createCourse godoc
// @Summary Create a new course
// @Description Creates a new course owned by the authenticated instructor.
// @Tags courses
// @Accept json
// @Produce json
// @Param course body dto.CourseCreateDTO true "Course creation request"
// @Success 201 {object} dto.CourseResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Router /courses [post]
func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	instructorID, ok := requireRole(w, r, util.RoleInstructor)
	if !ok {
		return
	}
	var req dto.CourseCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	course := &model.Course{
		InstructorID: instructorID,
		Title:        req.Title,
		Description:  req.Description,
		Content:      req.Content,
		Category:     req.Category,
		Level:        "Beginner",
		Duration:     req.Duration,
		MaxStudents:  req.MaxStudents,
		IsPublished:  true,
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.IsPublished != nil {
		course.IsPublished = *req.IsPublished
	}

	created, err := h.courseService.CreateCourse(r.Context(), course)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create course")
		writeError(w, http.StatusInternalServerError, "Failed to create course")
		return
	}
	writeJSON(w, http.StatusCreated, courseToDTO(*created, 0))
}

// listCourses godoc
// @Summary List published courses
// @Description Lists published courses with optional category, level and search filters.
// @Tags courses
// @Produce json
// @Param category query string false "Category filter"
// @Param level query string false "Level filter"
// @Param search query string false "Case-insensitive title/description search"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} dto.CourseListResponseDTO
// @Router /courses [get]
func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	filter := model.CourseFilter{
		Category: r.URL.Query().Get("category"),
		Level:    r.URL.Query().Get("level"),
		Search:   r.URL.Query().Get("search"),
		Page:     1,
		PageSize: 10,
	}
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.PageSize = limit
		}
	}

	courses, counts, total, err := h.courseService.ListPublished(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list courses")
		writeError(w, http.StatusInternalServerError, "Failed to fetch courses")
		return
	}

	out := make([]dto.CourseResponseDTO, len(courses))
	for i, c := range courses {
		// Full content never ships in list view; the detail endpoint
		// applies the visibility policy per viewer.
		c.Content = ""
		out[i] = courseToDTO(c, counts[c.CourseID])
	}
	totalPages := (total + filter.PageSize - 1) / filter.PageSize
	writeJSON(w, http.StatusOK, dto.CourseListResponseDTO{
		Success: true,
		Courses: out,
		Pagination: dto.PaginationDTO{
			CurrentPage:  filter.Page,
			TotalPages:   totalPages,
			TotalCourses: total,
			HasNext:      filter.Page*filter.PageSize < total,
			HasPrev:      filter.Page > 1,
		},
	})
}

// getCourse godoc
// @Summary Get a course
// @Description Retrieves a course filtered through the visibility policy for the caller.
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.CourseResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /courses/{courseId} [get]
func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	viewerID := middleware.CallerID(r)
	view, err := h.courseService.GetCourseView(r.Context(), courseID, viewerID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			writeError(w, http.StatusNotFound, "Course not found")
			return
		}
		h.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to retrieve course")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve course")
		return
	}

	resp := courseToDTO(view.Course, view.EnrollmentCount)
	resp.ContentLocked = view.ContentLocked
	if view.Roster != nil {
		resp.Enrollments = enrollmentsToDTO(view.Roster)
	}
	writeJSON(w, http.StatusOK, resp)
}

// updateCourse godoc
// @Summary Update a course
// @Description Updates a course owned by the authenticated instructor.
// @Tags courses
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param course body dto.CourseUpdateDTO true "Course update request"
// @Success 200 {object} dto.CourseResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /courses/{courseId} [put]
func (h *CourseHandler) updateCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	instructorID, ok := requireRole(w, r, util.RoleInstructor)
	if !ok {
		return
	}
	var req dto.CourseUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	view, err := h.courseService.GetCourseView(r.Context(), courseID, instructorID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			writeError(w, http.StatusNotFound, "Course not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to retrieve course")
		return
	}
	course := view.Course
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Content != nil {
		course.Content = *req.Content
	}
	if req.Category != nil {
		course.Category = *req.Category
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Duration != nil {
		course.Duration = *req.Duration
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.MaxStudents != nil {
		course.MaxStudents = req.MaxStudents
	}
	if req.IsPublished != nil {
		course.IsPublished = *req.IsPublished
	}

	updated, err := h.courseService.UpdateCourse(r.Context(), instructorID, &course)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCourseNotFound):
			writeError(w, http.StatusNotFound, "Course not found")
		case errors.Is(err, service.ErrNotCourseOwner):
			writeError(w, http.StatusForbidden, "You can only update your own courses")
		default:
			h.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to update course")
			writeError(w, http.StatusInternalServerError, "Failed to update course")
		}
		return
	}
	writeJSON(w, http.StatusOK, courseToDTO(*updated, view.EnrollmentCount))
}

// deleteCourse godoc
// @Summary Delete a course
// @Description Deletes a course owned by the authenticated instructor.
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.MessageResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /courses/{courseId} [delete]
func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	instructorID, ok := requireRole(w, r, util.RoleInstructor)
	if !ok {
		return
	}
	if err := h.courseService.DeleteCourse(r.Context(), instructorID, courseID); err != nil {
		switch {
		case errors.Is(err, repository.ErrCourseNotFound):
			writeError(w, http.StatusNotFound, "Course not found")
		case errors.Is(err, service.ErrNotCourseOwner):
			writeError(w, http.StatusForbidden, "You can only delete your own courses")
		default:
			h.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to delete course")
			writeError(w, http.StatusInternalServerError, "Failed to delete course")
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponseDTO{Success: true, Message: "Course deleted successfully"})
}

// instructorCourses godoc
// @Summary List the instructor's own courses
// @Tags courses
// @Produce json
// @Success 200 {array} dto.CourseResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Router /courses/instructor/my-courses [get]
func (h *CourseHandler) instructorCourses(w http.ResponseWriter, r *http.Request) {
	instructorID, ok := requireRole(w, r, util.RoleInstructor)
	if !ok {
		return
	}
	courses, rosters, err := h.courseService.GetInstructorCourses(r.Context(), instructorID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list instructor courses")
		writeError(w, http.StatusInternalServerError, "Failed to fetch courses")
		return
	}
	out := make([]dto.CourseResponseDTO, len(courses))
	for i, c := range courses {
		roster := rosters[c.CourseID]
		d := courseToDTO(c, len(roster))
		d.Enrollments = enrollmentsToDTO(roster)
		out[i] = d
	}
	writeJSON(w, http.StatusOK, out)
}

// enrolledCourses godoc
// @Summary List the student's enrolled courses
// @Tags courses
// @Produce json
// @Success 200 {array} dto.EnrolledCourseResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Router /courses/enrolled/my-courses [get]
func (h *CourseHandler) enrolledCourses(w http.ResponseWriter, r *http.Request) {
	studentID, ok := requireRole(w, r, util.RoleStudent)
	if !ok {
		return
	}
	courses, enrollments, counts, err := h.courseService.GetEnrolledCourses(r.Context(), studentID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list enrolled courses")
		writeError(w, http.StatusInternalServerError, "Failed to fetch courses")
		return
	}
	out := make([]dto.EnrolledCourseResponseDTO, len(courses))
	for i, c := range courses {
		e := enrollments[i]
		out[i] = dto.EnrolledCourseResponseDTO{
			CourseResponseDTO: courseToDTO(c, counts[c.CourseID]),
			EnrollmentDetails: dto.EnrollmentDTO{StudentID: e.StudentID, EnrolledAt: e.EnrolledAt, Progress: e.Progress},
		}
	}
	writeJSON(w, http.StatusOK, out)
}
