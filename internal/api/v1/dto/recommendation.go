package dto

import "time"

// RecommendationRequestDTO is the incoming recommendation prompt
type RecommendationRequestDTO struct {
	Prompt string `json:"prompt" validate:"required"`
}

// APIStatsDTO reports the quota state alongside each recommendation
type APIStatsDTO struct {
	RequestsUsed      int `json:"requests_used"`
	RequestsRemaining int `json:"requests_remaining"`
	MaxRequests       int `json:"max_requests"`
}

// RecommendedCourseDTO is a catalog course matched against the answer
type RecommendedCourseDTO struct {
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Level    string `json:"level"`
}

// RecommendationResponseDTO is the successful recommendation response
type RecommendationResponseDTO struct {
	Success            bool                   `json:"success"`
	Recommendation     string                 `json:"recommendation"`
	RecommendedCourses []RecommendedCourseDTO `json:"recommended_courses"`
	APIStats           APIStatsDTO            `json:"api_stats"`
}

// RequestRecordDTO is one audit log entry in usage responses
type RequestRecordDTO struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Prompt    string    `json:"prompt"`
	Success   bool      `json:"success"`
	Error     *string   `json:"error,omitempty"`
}

// QuotaExceededResponseDTO is returned once the ledger bound is reached
type QuotaExceededResponseDTO struct {
	Success           bool               `json:"success"`
	Message           string             `json:"message"`
	TotalRequestsUsed int                `json:"total_requests_used"`
	MaxRequests       int                `json:"max_requests"`
	RequestLog        []RequestRecordDTO `json:"request_log"`
}

// UsageResponseDTO is the monitoring view of the quota ledger
type UsageResponseDTO struct {
	Success              bool               `json:"success"`
	APIRequestsUsed      int                `json:"api_requests_used"`
	APIRequestsRemaining int                `json:"api_requests_remaining"`
	MaxRequests          int                `json:"max_requests"`
	StartDate            time.Time          `json:"start_date"`
	RecentRequests       []RequestRecordDTO `json:"recent_requests"`
	WarningLevel         string             `json:"warning_level"`
}
