package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoginEvent is one successful sign-in, kept as login history.
type LoginEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	IP        string    `gorm:"column:ip" json:"ip"`
	UserAgent string    `gorm:"column:user_agent" json:"user_agent"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (LoginEvent) TableName() string { return "user_login_event" }

func (e *LoginEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
