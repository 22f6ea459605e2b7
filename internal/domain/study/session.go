package study

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ModeSummary    = "summary"
	ModeScientific = "scientific"
	ModeOral       = "oral"
)

// ValidMode reports whether m is one of the processing modes a session can run in.
func ValidMode(m string) bool {
	switch m {
	case ModeSummary, ModeScientific, ModeOral:
		return true
	default:
		return false
	}
}

type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Subject   *string   `gorm:"column:subject" json:"subject,omitempty"`
	Mode      string    `gorm:"not null;column:mode;index" json:"mode"`
	RawText   string    `gorm:"not null;column:raw_text" json:"raw_text"`
	Rating    *int      `gorm:"column:rating" json:"rating,omitempty"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Session) TableName() string { return "study_session" }

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
