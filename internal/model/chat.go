package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Chat holds a user's advisor conversation. One chat per user.
type Chat struct {
	UserID       string       `db:"user_id" json:"user_id"`
	Messages     ChatMessages `db:"messages" json:"messages"`
	LastActivity time.Time    `db:"last_activity" json:"last_activity"`
}

// ChatMessages is the ordered message sequence (JSONB).
type ChatMessages []ChatMessage

// ChatMessage is a single message in the advisor conversation.
type ChatMessage struct {
	ID        int             `json:"id"`
	Type      string          `json:"type"` // 'user' or 'bot'
	Content   string          `json:"content"`
	Courses   []CourseSummary `json:"courses,omitempty"`
	Error     bool            `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Value implements the driver.Valuer interface for JSONB
func (m ChatMessages) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal([]ChatMessage{})
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for JSONB
func (m *ChatMessages) Scan(value interface{}) error {
	if value == nil {
		*m = make(ChatMessages, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = make(ChatMessages, 0)
		return fmt.Errorf("cannot scan %T into ChatMessages", value)
	}

	if len(bytes) == 0 {
		*m = make(ChatMessages, 0)
		return nil
	}

	return json.Unmarshal(bytes, m)
}
