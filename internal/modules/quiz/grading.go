package quiz

import (
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/smartstudy-backend/internal/domain"
	quizdomain "github.com/yungbote/smartstudy-backend/internal/domain/quiz"
)

// Submission is one answer as sent by the quiz taker.
type Submission struct {
	QuestionID    uuid.UUID
	SelectedIndex *int
	AnswerText    string
}

type Detail struct {
	QuestionID    uuid.UUID `json:"questionID"`
	Correct       bool      `json:"correct"`
	UserAnswer    string    `json:"userAnswer"`
	CorrectAnswer string    `json:"correctAnswer"`
}

type Outcome struct {
	TotalScore int
	MaxScore   int
	IsPassed   bool
	Details    []Detail
	// Answers are ready to insert, one per graded submission.
	Answers []*types.Answer
}

// PassThreshold is ceil(maxScore * 0.6) in integer arithmetic.
func PassThreshold(maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return (maxScore*6 + 9) / 10
}

func Passed(total, maxScore int) bool {
	return maxScore > 0 && total >= PassThreshold(maxScore)
}

// Grade scores submissions against the quiz's questions. Submissions for unknown
// questions are skipped; each remaining one produces exactly one Answer and Detail.
func Grade(attemptID uuid.UUID, questions []*types.Question, subs []Submission, now time.Time) Outcome {
	byID := make(map[uuid.UUID]*types.Question, len(questions))
	for _, q := range questions {
		if q != nil {
			byID[q.ID] = q
		}
	}

	out := Outcome{
		Details: make([]Detail, 0, len(subs)),
		Answers: make([]*types.Answer, 0, len(subs)),
	}
	for _, sub := range subs {
		q, ok := byID[sub.QuestionID]
		if !ok {
			continue
		}
		out.MaxScore += q.Points

		correct, userAnswer, correctAnswer := evaluate(q, sub)
		awarded := 0
		if correct {
			awarded = q.Points
		}
		out.TotalScore += awarded

		out.Answers = append(out.Answers, &types.Answer{
			ID:            uuid.New(),
			AttemptID:     attemptID,
			QuestionID:    q.ID,
			SelectedIndex: sub.SelectedIndex,
			AnswerText:    userAnswer,
			IsCorrect:     correct,
			AwardedScore:  awarded,
			CreatedAt:     now,
		})
		out.Details = append(out.Details, Detail{
			QuestionID:    q.ID,
			Correct:       correct,
			UserAnswer:    userAnswer,
			CorrectAnswer: correctAnswer,
		})
	}
	out.IsPassed = Passed(out.TotalScore, out.MaxScore)
	return out
}

func evaluate(q *types.Question, sub Submission) (correct bool, userAnswer, correctAnswer string) {
	if q.Type == quizdomain.TypeOpenEnded {
		userAnswer = strings.TrimSpace(sub.AnswerText)
		correctAnswer = q.IdealAnswer
		correct = strings.EqualFold(userAnswer, strings.TrimSpace(q.IdealAnswer))
		return correct, userAnswer, correctAnswer
	}

	choices := q.ChoiceList()
	resolve := func(i int) string {
		if i < 0 || i >= len(choices) {
			return ""
		}
		return choices[i]
	}
	if q.CorrectIndex != nil {
		correctAnswer = resolve(*q.CorrectIndex)
	}
	if sub.SelectedIndex != nil {
		userAnswer = resolve(*sub.SelectedIndex)
		correct = q.CorrectIndex != nil && *sub.SelectedIndex == *q.CorrectIndex
	}
	return correct, userAnswer, correctAnswer
}
