package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	types "github.com/yungbote/smartstudy-backend/internal/domain"
	quizdomain "github.com/yungbote/smartstudy-backend/internal/domain/quiz"
	quizrepo "github.com/yungbote/smartstudy-backend/internal/data/repos/quiz"
	quizmod "github.com/yungbote/smartstudy-backend/internal/modules/quiz"
	"github.com/yungbote/smartstudy-backend/internal/observability"
	"github.com/yungbote/smartstudy-backend/internal/pkg/dbctx"
	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

var errQuizNotFound = apierr.NotFound("quiz_not_found", "quiz not found")

// QuestionView is a stored question as shown to the quiz taker. The canonical answer
// stays server side and only surfaces in grading details.
type QuestionView struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
	Text     string    `json:"text"`
	Type     string    `json:"type"`
	Choices  []string  `json:"choices,omitempty"`
	Points   int       `json:"points"`
}

type QuizWithQuestions struct {
	Quiz      *types.Quiz    `json:"quiz"`
	Questions []QuestionView `json:"questions"`
}

type QuizListItem struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"createdAt"`
	QuestionCount int       `json:"questionCount"`
}

// GeneratedQuiz is what the image-to-quiz flow hands back after persisting.
type GeneratedQuiz struct {
	QuizID      uuid.UUID          `json:"quizID"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Questions   []quizmod.Question `json:"questions"`
}

type GradeResult struct {
	AttemptID  uuid.UUID        `json:"attemptID"`
	TotalScore int              `json:"totalScore"`
	MaxScore   int              `json:"maxScore"`
	IsPassed   bool             `json:"isPassed"`
	Details    []quizmod.Detail `json:"details"`
}

type QuizService interface {
	CreateQuizWithQuestions(ctx context.Context, ownerID uuid.UUID, doc quizmod.Document) (uuid.UUID, error)
	CreateAttempt(ctx context.Context, quizID, userID uuid.UUID) (uuid.UUID, error)
	GetQuizWithQuestions(ctx context.Context, quizID, userID uuid.UUID) (*QuizWithQuestions, error)
	ListQuizzes(ctx context.Context, userID uuid.UUID) ([]QuizListItem, error)
	ListAttempts(ctx context.Context, quizID, userID uuid.UUID) ([]*types.Attempt, error)
	SaveAnswersAndScore(ctx context.Context, quizID, attemptID, userID uuid.UUID, subs []quizmod.Submission) (*GradeResult, error)
	// GenerateFromImages runs OCR, generation and persistence; the uploads are removed on every path.
	GenerateFromImages(ctx context.Context, userID uuid.UUID, files []UploadedFile) (*GeneratedQuiz, error)
}

type quizService struct {
	db        *gorm.DB
	log       *logger.Logger
	quizzes   quizrepo.QuizRepo
	questions quizrepo.QuestionRepo
	attempts  quizrepo.AttemptRepo
	answers   quizrepo.AnswerRepo
	extractor TextExtractor
	generator QuizGenerator
	metrics   *observability.Metrics
	now       func() time.Time
}

func NewQuizService(
	db *gorm.DB,
	baseLog *logger.Logger,
	quizzes quizrepo.QuizRepo,
	questions quizrepo.QuestionRepo,
	attempts quizrepo.AttemptRepo,
	answers quizrepo.AnswerRepo,
	extractor TextExtractor,
	generator QuizGenerator,
	metrics *observability.Metrics,
) QuizService {
	return &quizService{
		db:        db,
		log:       baseLog.With("service", "QuizService"),
		quizzes:   quizzes,
		questions: questions,
		attempts:  attempts,
		answers:   answers,
		extractor: extractor,
		generator: generator,
		metrics:   metrics,
		now:       time.Now,
	}
}

func (s *quizService) CreateQuizWithQuestions(ctx context.Context, ownerID uuid.UUID, doc quizmod.Document) (uuid.UUID, error) {
	if ownerID == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized("unauthenticated", "not authenticated")
	}
	now := s.now().UTC()
	quiz := &types.Quiz{
		ID:          uuid.New(),
		UserID:      ownerID,
		Title:       doc.Title,
		Description: doc.Description,
		CreatedAt:   now,
	}
	rows := make([]*types.Question, 0, len(doc.Questions))
	for i, q := range doc.Questions {
		row, err := questionRow(quiz.ID, i, q, now)
		if err != nil {
			return uuid.Nil, fmt.Errorf("build question %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.quizzes.Create(dbc, []*types.Quiz{quiz}); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		if _, err := s.questions.Create(dbc, rows); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("Quiz creation rolled back", "user_id", ownerID, "error", err)
		return uuid.Nil, apierr.Internal("quiz_create_failed", "could not save quiz", err)
	}
	s.log.Info("Quiz created", "quiz_id", quiz.ID, "questions", len(rows))
	return quiz.ID, nil
}

func questionRow(quizID uuid.UUID, position int, q quizmod.Question, now time.Time) (*types.Question, error) {
	row := &types.Question{
		ID:        uuid.New(),
		QuizID:    quizID,
		Position:  position,
		Text:      q.Text,
		Type:      q.Type,
		Points:    q.Points,
		CreatedAt: now,
	}
	if q.Type == quizdomain.TypeOpenEnded {
		row.IdealAnswer = q.IdealAnswer
		return row, nil
	}
	idx := 0
	if q.CorrectIndex != nil {
		idx = *q.CorrectIndex
	}
	row.CorrectIndex = &idx
	if err := row.SetChoices(q.Choices); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *quizService) CreateAttempt(ctx context.Context, quizID, userID uuid.UUID) (uuid.UUID, error) {
	dbc := dbctx.Context{Ctx: ctx}
	quiz, err := s.quizzes.GetOwned(dbc, quizID, userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil {
		return uuid.Nil, errQuizNotFound
	}
	attempt := &types.Attempt{
		ID:        uuid.New(),
		QuizID:    quizID,
		UserID:    userID,
		StartedAt: s.now().UTC(),
	}
	if _, err := s.attempts.Create(dbc, []*types.Attempt{attempt}); err != nil {
		return uuid.Nil, fmt.Errorf("insert attempt: %w", err)
	}
	return attempt.ID, nil
}

func (s *quizService) GetQuizWithQuestions(ctx context.Context, quizID, userID uuid.UUID) (*QuizWithQuestions, error) {
	dbc := dbctx.Context{Ctx: ctx}
	quiz, err := s.quizzes.GetOwned(dbc, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil {
		return nil, errQuizNotFound
	}
	questions, err := s.questions.GetByQuizID(dbc, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, QuestionView{
			ID:       q.ID,
			Position: q.Position,
			Text:     q.Text,
			Type:     q.Type,
			Choices:  q.ChoiceList(),
			Points:   q.Points,
		})
	}
	return &QuizWithQuestions{Quiz: quiz, Questions: views}, nil
}

func (s *quizService) ListQuizzes(ctx context.Context, userID uuid.UUID) ([]QuizListItem, error) {
	dbc := dbctx.Context{Ctx: ctx}
	quizzes, err := s.quizzes.ListByUserID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(quizzes))
	for _, q := range quizzes {
		ids = append(ids, q.ID)
	}
	counts, err := s.questions.CountByQuizIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	out := make([]QuizListItem, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, QuizListItem{
			ID:            q.ID,
			Title:         q.Title,
			Description:   q.Description,
			CreatedAt:     q.CreatedAt,
			QuestionCount: counts[q.ID],
		})
	}
	return out, nil
}

func (s *quizService) ListAttempts(ctx context.Context, quizID, userID uuid.UUID) ([]*types.Attempt, error) {
	dbc := dbctx.Context{Ctx: ctx}
	quiz, err := s.quizzes.GetOwned(dbc, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil {
		return nil, errQuizNotFound
	}
	attempts, err := s.attempts.ListByQuizAndUser(dbc, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

func (s *quizService) SaveAnswersAndScore(ctx context.Context, quizID, attemptID, userID uuid.UUID, subs []quizmod.Submission) (*GradeResult, error) {
	ctx, span := observability.StartSpan(ctx, "quiz.grade",
		attribute.String("quiz.id", quizID.String()),
		attribute.Int("quiz.submissions", len(subs)),
	)
	defer span.End()

	var outcome quizmod.Outcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		quiz, err := s.quizzes.GetOwned(dbc, quizID, userID)
		if err != nil {
			return fmt.Errorf("load quiz: %w", err)
		}
		if quiz == nil {
			return errQuizNotFound
		}
		attempt, err := s.attempts.GetOwned(dbc, attemptID, quizID, userID)
		if err != nil {
			return fmt.Errorf("load attempt: %w", err)
		}
		if attempt == nil {
			return apierr.NotFound("attempt_not_found", "attempt not found")
		}

		questions, err := s.questions.GetByQuizID(dbc, quizID)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		now := s.now().UTC()
		outcome = quizmod.Grade(attemptID, questions, subs, now)

		// Resubmission replaces the previous answer set.
		if err := s.answers.DeleteByAttemptID(dbc, attemptID); err != nil {
			return fmt.Errorf("clear answers: %w", err)
		}
		if _, err := s.answers.Create(dbc, outcome.Answers); err != nil {
			return fmt.Errorf("insert answers: %w", err)
		}
		n, err := s.attempts.Complete(dbc, attemptID, userID, quizrepo.AttemptResult{
			Score:       outcome.TotalScore,
			MaxScore:    outcome.MaxScore,
			IsPassed:    outcome.IsPassed,
			CompletedAt: now,
		})
		if err != nil {
			return fmt.Errorf("complete attempt: %w", err)
		}
		if n == 0 {
			return apierr.NotFound("attempt_not_found", "attempt not found")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if isClassified(err) {
			return nil, err
		}
		s.log.Error("Grading rolled back", "attempt_id", attemptID, "error", err)
		return nil, apierr.Internal("grading_failed", "could not grade attempt", err)
	}

	s.metrics.ObserveGrading(outcome.IsPassed)
	span.SetAttributes(
		attribute.Int("quiz.score", outcome.TotalScore),
		attribute.Int("quiz.max_score", outcome.MaxScore),
	)
	details := outcome.Details
	if details == nil {
		details = []quizmod.Detail{}
	}
	return &GradeResult{
		AttemptID:  attemptID,
		TotalScore: outcome.TotalScore,
		MaxScore:   outcome.MaxScore,
		IsPassed:   outcome.IsPassed,
		Details:    details,
	}, nil
}

func (s *quizService) GenerateFromImages(ctx context.Context, userID uuid.UUID, files []UploadedFile) (*GeneratedQuiz, error) {
	defer removeUploads(s.log, files...)

	if len(files) == 0 {
		return nil, apierr.BadRequest("no_images", "no images uploaded")
	}
	text := s.extractor.ExtractText(ctx, files)
	doc, err := s.generator.Generate(ctx, text)
	if err != nil {
		return nil, err
	}
	quizID, err := s.CreateQuizWithQuestions(ctx, userID, doc)
	if err != nil {
		return nil, err
	}
	return &GeneratedQuiz{
		QuizID:      quizID,
		Title:       doc.Title,
		Description: doc.Description,
		Questions:   doc.Questions,
	}, nil
}

// isClassified reports whether err already carries an HTTP status below 500.
func isClassified(err error) bool {
	var ae *apierr.Error
	return errors.As(err, &ae) && ae.Status > 0 && ae.Status < 500
}
