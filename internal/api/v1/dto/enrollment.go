package dto

import "time"

// EnrollResponseDTO is returned on a successful enrollment
type EnrollResponseDTO struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Enrollment EnrollmentDetailDTO `json:"enrollment"`
}

// EnrollmentDetailDTO identifies the enrollment that was just created
type EnrollmentDetailDTO struct {
	CourseID    string    `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

// CourseFullResponseDTO is returned when a course has no free seats. It
// carries the current seat counts so clients can react without polling.
type CourseFullResponseDTO struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	Enrolled       int    `json:"enrolled"`
	MaxStudents    int    `json:"max_students"`
	AvailableSlots int    `json:"available_slots"`
}

// RosterResponseDTO is the owner-only roster listing
type RosterResponseDTO struct {
	Success     bool            `json:"success"`
	CourseID    string          `json:"course_id"`
	Enrollments []EnrollmentDTO `json:"enrollments"`
}
