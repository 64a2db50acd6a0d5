package model

import "time"

// Course categories accepted by the catalog.
var CourseCategories = []string{
	"Programming",
	"Web Development",
	"Data Science",
	"Mobile Development",
	"DevOps",
	"Design",
	"Business",
	"Marketing",
	"Other",
}

// Course levels accepted by the catalog.
var CourseLevels = []string{"Beginner", "Intermediate", "Advanced"}

// Course represents a course in the marketplace
type Course struct {
	CourseID     string    `db:"id" json:"course_id"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Content      string    `db:"content" json:"content,omitempty"`
	Category     string    `db:"category" json:"category"`
	Level        string    `db:"level" json:"level"`
	Duration     string    `db:"duration" json:"duration"`
	Price        float64   `db:"price" json:"price"`
	MaxStudents  *int      `db:"max_students" json:"max_students,omitempty"` // nil means unlimited
	IsPublished  bool      `db:"is_published" json:"is_published"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsFull reports whether the course has reached its enrollment capacity.
func (c *Course) IsFull(enrolled int) bool {
	return c.MaxStudents != nil && enrolled >= *c.MaxStudents
}

// Enrollment represents a student's membership in a course roster.
// Enrollment records are owned by the course; they are created and removed
// only through the enrollment service.
type Enrollment struct {
	CourseID   string    `db:"course_id" json:"course_id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
	Progress   int       `db:"progress" json:"progress"` // 0-100
}

// CourseSummary carries the minimal fields sent to the recommendation
// provider and returned on recommendation cards.
type CourseSummary struct {
	CourseID string `db:"id" json:"course_id"`
	Title    string `db:"title" json:"title"`
	Category string `db:"category" json:"category"`
	Level    string `db:"level" json:"level"`
}

// CourseFilter holds the catalog list filters.
type CourseFilter struct {
	Category string
	Level    string
	Search   string // case-insensitive substring match on title/description
	Page     int
	PageSize int
}
