package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Conversation represents a single user/assistant exchange. It stores both
// sides of the exchange, the classified topic domain, and word counts used
// by the analytics layer.
type Conversation struct {
	ID        uint      `db:"id"         json:"id"`
	CreatedAt time.Time `db:"created_at" json:"timestamp"`

	UserMessage        string `db:"user_message"         json:"user"`
	AssistantReply     string `db:"assistant_reply"      json:"assistant"`
	Domain             string `db:"domain"               json:"domain"`
	UserWordCount      int    `db:"user_word_count"      json:"user_word_count"`
	AssistantWordCount int    `db:"assistant_word_count" json:"assistant_word_count"`
}

// StringList is a []string stored as a JSON-encoded TEXT column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to encode string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

// Profile represents the local user's personalization profile. The service
// keeps a single profile row; saving replaces it in place.
type Profile struct {
	ID        uint      `db:"id"         json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_date"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_date"`

	Name               string     `db:"name"                json:"name"`
	Role               string     `db:"role"                json:"role"`
	WorkArea           string     `db:"work_area"           json:"work_area"`
	FamilyInfo         string     `db:"family_info"         json:"family_info"`
	Interests          string     `db:"interests"           json:"interests"`
	CommunicationStyle string     `db:"communication_style" json:"communication_style"`
	HelpAreas          StringList `db:"help_areas"          json:"help_areas"`
	WorkHours          string     `db:"work_hours"          json:"work_hours"`
}
