package quiz

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attempt score fields stay zero/null until the submission is graded.
type Attempt struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"quiz_id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Score       int        `gorm:"not null;default:0" json:"score"`
	MaxScore    int        `gorm:"not null;default:0" json:"max_score"`
	IsPassed    *bool      `gorm:"column:is_passed" json:"is_passed,omitempty"`
}

func (Attempt) TableName() string { return "quiz_attempt" }

func (a *Attempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type Answer struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID     uuid.UUID `gorm:"type:uuid;not null;index" json:"attempt_id"`
	QuestionID    uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	SelectedIndex *int      `gorm:"column:selected_index" json:"selected_index,omitempty"`
	AnswerText    string    `gorm:"column:answer_text" json:"answer_text"`
	IsCorrect     bool      `gorm:"not null" json:"is_correct"`
	AwardedScore  int       `gorm:"not null;default:0" json:"awarded_score"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (Answer) TableName() string { return "quiz_answer" }

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
