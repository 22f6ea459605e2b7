package quiz

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TypeMultipleChoice = "multiple-choice"
	TypeOpenEnded      = "open-ended"

	// ChoiceCount is the fixed number of options on a multiple-choice question.
	ChoiceCount = 4
)

// Question rows are ordered by Position, which follows the generated document order.
type Question struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID   uuid.UUID `gorm:"type:uuid;not null;index:idx_question_quiz_position,priority:1" json:"quiz_id"`
	Position int       `gorm:"not null;index:idx_question_quiz_position,priority:2" json:"position"`
	Text     string    `gorm:"not null;column:text" json:"text"`
	Type     string    `gorm:"not null;column:type" json:"type"`

	// Multiple-choice only.
	Choices      datatypes.JSON `gorm:"column:choices" json:"choices,omitempty"`
	CorrectIndex *int           `gorm:"column:correct_index" json:"correct_index,omitempty"`

	// Open-ended only.
	IdealAnswer string `gorm:"column:ideal_answer" json:"ideal_answer,omitempty"`

	Points    int       `gorm:"not null;default:1" json:"points"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Question) TableName() string { return "question" }

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// ChoiceList decodes Choices; malformed or missing data yields nil.
func (q *Question) ChoiceList() []string {
	if q == nil || len(q.Choices) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(q.Choices, &out); err != nil {
		return nil
	}
	return out
}

func (q *Question) SetChoices(choices []string) error {
	raw, err := json.Marshal(choices)
	if err != nil {
		return err
	}
	q.Choices = datatypes.JSON(raw)
	return nil
}

// Choice returns the text of choice i, or "" when i is out of range.
func (q *Question) Choice(i int) string {
	choices := q.ChoiceList()
	if i < 0 || i >= len(choices) {
		return ""
	}
	return choices[i]
}
