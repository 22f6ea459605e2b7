package app

import (
	"gorm.io/gorm"

	quizrepo "github.com/yungbote/smartstudy-backend/internal/data/repos/quiz"
	studyrepo "github.com/yungbote/smartstudy-backend/internal/data/repos/study"
	userrepo "github.com/yungbote/smartstudy-backend/internal/data/repos/user"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

type Repos struct {
	User       userrepo.UserRepo
	LoginEvent userrepo.LoginEventRepo

	Quiz     quizrepo.QuizRepo
	Question quizrepo.QuestionRepo
	Attempt  quizrepo.AttemptRepo
	Answer   quizrepo.AnswerRepo

	Session        studyrepo.SessionRepo
	Summary        studyrepo.SummaryRepo
	Problem        studyrepo.ProblemRepo
	OralEvaluation studyrepo.OralEvaluationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:       userrepo.NewUserRepo(db, log),
		LoginEvent: userrepo.NewLoginEventRepo(db, log),

		Quiz:     quizrepo.NewQuizRepo(db, log),
		Question: quizrepo.NewQuestionRepo(db, log),
		Attempt:  quizrepo.NewAttemptRepo(db, log),
		Answer:   quizrepo.NewAnswerRepo(db, log),

		Session:        studyrepo.NewSessionRepo(db, log),
		Summary:        studyrepo.NewSummaryRepo(db, log),
		Problem:        studyrepo.NewProblemRepo(db, log),
		OralEvaluation: studyrepo.NewOralEvaluationRepo(db, log),
	}
}
