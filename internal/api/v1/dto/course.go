package dto

import "time"

// CourseCreateDTO is used for incoming course creation requests
type CourseCreateDTO struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=1000"`
	Content     string   `json:"content" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Level       *string  `json:"level,omitempty" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Duration    string   `json:"duration" validate:"required"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,min=0"`
	MaxStudents *int     `json:"max_students,omitempty" validate:"omitempty,min=1"`
	IsPublished *bool    `json:"is_published,omitempty"`
}

// CourseUpdateDTO is used for incoming course update requests
type CourseUpdateDTO struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,max=100"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Content     *string  `json:"content,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Level       *string  `json:"level,omitempty" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Duration    *string  `json:"duration,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,min=0"`
	MaxStudents *int     `json:"max_students,omitempty" validate:"omitempty,min=1"`
	IsPublished *bool    `json:"is_published,omitempty"`
}

// CourseResponseDTO is returned in API responses for courses
type CourseResponseDTO struct {
	CourseID        string          `json:"course_id"`
	InstructorID    string          `json:"instructor_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Content         string          `json:"content,omitempty"`
	ContentLocked   bool            `json:"content_locked,omitempty"`
	Category        string          `json:"category"`
	Level           string          `json:"level"`
	Duration        string          `json:"duration"`
	Price           float64         `json:"price"`
	MaxStudents     *int            `json:"max_students,omitempty"`
	IsPublished     bool            `json:"is_published"`
	EnrollmentCount int             `json:"enrollment_count"`
	Enrollments     []EnrollmentDTO `json:"enrollments,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// EnrollmentDTO is one roster entry in API responses
type EnrollmentDTO struct {
	StudentID  string    `json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
	Progress   int       `json:"progress"`
}

// PaginationDTO describes the course list page
type PaginationDTO struct {
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	TotalCourses int  `json:"total_courses"`
	HasNext      bool `json:"has_next"`
	HasPrev      bool `json:"has_prev"`
}

// CourseListResponseDTO is the paginated catalog response
type CourseListResponseDTO struct {
	Success    bool                `json:"success"`
	Courses    []CourseResponseDTO `json:"courses"`
	Pagination PaginationDTO       `json:"pagination"`
}

// EnrolledCourseResponseDTO is a course plus the caller's own enrollment
type EnrolledCourseResponseDTO struct {
	CourseResponseDTO
	EnrollmentDetails EnrollmentDTO `json:"enrollment_details"`
}
