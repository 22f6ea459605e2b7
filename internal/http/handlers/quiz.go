package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/smartstudy-backend/internal/http/response"
	quizmod "github.com/yungbote/smartstudy-backend/internal/modules/quiz"
	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
	"github.com/yungbote/smartstudy-backend/internal/services"
)

type QuizHandler struct {
	log     *logger.Logger
	quiz    services.QuizService
	speech  services.SpeechService
	uploads *UploadStore
}

func NewQuizHandler(log *logger.Logger, quiz services.QuizService, speech services.SpeechService, uploads *UploadStore) *QuizHandler {
	return &QuizHandler{
		log:     log.With("handler", "QuizHandler"),
		quiz:    quiz,
		speech:  speech,
		uploads: uploads,
	}
}

func (h *QuizHandler) FromImages(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	files, err := h.uploads.SaveAll(c, "images", MaxImagesPerRequest)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	out, err := h.quiz.GenerateFromImages(c.Request.Context(), userID, files)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *QuizHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	quizzes, err := h.quiz.ListQuizzes(c.Request.Context(), userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, quizzes)
}

func (h *QuizHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quizID")
	if !ok {
		return
	}
	out, err := h.quiz.GetQuizWithQuestions(c.Request.Context(), quizID, userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *QuizHandler) CreateAttempt(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quizID")
	if !ok {
		return
	}
	attemptID, err := h.quiz.CreateAttempt(c.Request.Context(), quizID, userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"attemptID": attemptID})
}

func (h *QuizHandler) ListAttempts(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quizID")
	if !ok {
		return
	}
	attempts, err := h.quiz.ListAttempts(c.Request.Context(), quizID, userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, attempts)
}

type submittedAnswer struct {
	QuestionID    string `json:"questionID"`
	SelectedIndex *int   `json:"selectedIndex"`
	AnswerText    string `json:"answerText"`
}

func (h *QuizHandler) SubmitAnswers(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quizID")
	if !ok {
		return
	}
	attemptID, ok := pathID(c, "attemptID")
	if !ok {
		return
	}
	var req struct {
		Answers []submittedAnswer `json:"answers"`
	}
	// An empty body submits no answers and grades to 0/0.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, apierr.BadRequest("invalid_request", "invalid request body"))
		return
	}
	subs := make([]quizmod.Submission, 0, len(req.Answers))
	for _, a := range req.Answers {
		// An id that does not parse cannot match a question and is skipped like any unknown one.
		qid, err := uuid.Parse(a.QuestionID)
		if err != nil {
			continue
		}
		subs = append(subs, quizmod.Submission{QuestionID: qid, SelectedIndex: a.SelectedIndex, AnswerText: a.AnswerText})
	}
	res, err := h.quiz.SaveAnswersAndScore(c.Request.Context(), quizID, attemptID, userID, subs)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *QuizHandler) SpeechToText(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	file, err := h.uploads.SaveOne(c, "audio")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	text, err := h.speech.SpeechToText(c.Request.Context(), file)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"text": text})
}
