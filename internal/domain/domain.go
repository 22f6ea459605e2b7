package domain

import (
	"github.com/yungbote/smartstudy-backend/internal/domain/quiz"
	"github.com/yungbote/smartstudy-backend/internal/domain/study"
	"github.com/yungbote/smartstudy-backend/internal/domain/user"
)

type (
	User       = user.User
	LoginEvent = user.LoginEvent

	Quiz     = quiz.Quiz
	Question = quiz.Question
	Attempt  = quiz.Attempt
	Answer   = quiz.Answer

	StudySession   = study.Session
	StudySummary   = study.Summary
	StudyProblem   = study.Problem
	OralEvaluation = study.OralEvaluation
	TTSUsage       = study.TTSUsage
)

// Models lists every table for AutoMigrate, parents before children.
func Models() []any {
	return []any{
		&User{},
		&LoginEvent{},
		&Quiz{},
		&Question{},
		&Attempt{},
		&Answer{},
		&StudySession{},
		&StudySummary{},
		&StudyProblem{},
		&OralEvaluation{},
		&TTSUsage{},
	}
}
