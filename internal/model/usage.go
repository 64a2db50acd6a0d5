package model

import "time"

// RequestRecord is one entry in the recommendation request audit log.
type RequestRecord struct {
	ID        string    `db:"id" json:"id"`
	Timestamp time.Time `db:"created_at" json:"timestamp"`
	UserID    string    `db:"user_id" json:"user_id"`
	Prompt    string    `db:"prompt" json:"prompt"` // first 100 chars only
	Success   bool      `db:"success" json:"success"`
	Error     *string   `db:"error" json:"error,omitempty"`
}

// UsageSnapshot is a read-only view of the quota ledger.
type UsageSnapshot struct {
	Count       int             `json:"count"`
	MaxRequests int             `json:"max_requests"`
	StartDate   time.Time       `json:"start_date"`
	Recent      []RequestRecord `json:"recent"`
}

// Remaining returns the number of successful requests still available.
func (s UsageSnapshot) Remaining() int {
	if s.Count >= s.MaxRequests {
		return 0
	}
	return s.MaxRequests - s.Count
}

// WarningLevel classifies how close the ledger is to its bound.
func (s UsageSnapshot) WarningLevel() string {
	switch {
	case s.Count*5 > s.MaxRequests*4:
		return "HIGH"
	case s.Count*5 > s.MaxRequests*3:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
