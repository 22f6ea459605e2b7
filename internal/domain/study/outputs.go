package study

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Summary levels mirror the mode that produced them.
const (
	SummaryLevelSummary = "summary"
	SummaryLevelOral    = "oral"
)

type Summary struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	Summary   string    `gorm:"not null;column:summary" json:"summary"`
	Level     string    `gorm:"not null;column:level" json:"level"`
	AudioURL  *string   `gorm:"column:audio_url" json:"audio_url,omitempty"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Summary) TableName() string { return "study_summary" }

func (s *Summary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Problem struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID     uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	DetectedType  string    `gorm:"not null;column:detected_type" json:"detected_type"`
	ProblemText   string    `gorm:"not null;column:problem_text" json:"problem_text"`
	SolutionSteps string    `gorm:"column:solution_steps" json:"solution_steps"`
	FinalAnswer   string    `gorm:"column:final_answer" json:"final_answer"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (Problem) TableName() string { return "study_problem" }

func (p *Problem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// OralEvaluation keeps a snapshot of the reference it was graded against.
type OralEvaluation struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID     *uuid.UUID `gorm:"type:uuid;index" json:"session_id,omitempty"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Reference     string     `gorm:"not null;column:reference" json:"reference"`
	AudioLocation string     `gorm:"column:audio_location" json:"audio_location"`
	Transcript    string     `gorm:"column:transcript" json:"transcript"`
	Feedback      string     `gorm:"column:feedback" json:"feedback"`
	Score         *int       `gorm:"column:score" json:"score,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;index" json:"created_at"`
}

func (OralEvaluation) TableName() string { return "study_oral_evaluation" }

func (e *OralEvaluation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TTSUsage counts audio syntheses per user per UTC day (YYYY-MM-DD).
type TTSUsage struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Day    string    `gorm:"primaryKey;size:10" json:"day"`
	Count  int       `gorm:"not null;default:0" json:"count"`
}

func (TTSUsage) TableName() string { return "user_tts_usage" }

// UsageDay is the quota bucket t falls into.
func UsageDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
