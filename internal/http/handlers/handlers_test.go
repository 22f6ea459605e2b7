package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/smartstudy-backend/internal/data/repos/testutil"
	types "github.com/yungbote/smartstudy-backend/internal/domain"
	quizmod "github.com/yungbote/smartstudy-backend/internal/modules/quiz"
	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
	"github.com/yungbote/smartstudy-backend/internal/platform/ctxutil"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
	"github.com/yungbote/smartstudy-backend/internal/services"
)

type stubQuiz struct {
	services.QuizService
	subs     []quizmod.Submission
	files    []services.UploadedFile
	attempts []*types.Attempt
	err      error
}

func (s *stubQuiz) SaveAnswersAndScore(_ context.Context, _, attemptID, _ uuid.UUID, subs []quizmod.Submission) (*services.GradeResult, error) {
	s.subs = subs
	if s.err != nil {
		return nil, s.err
	}
	return &services.GradeResult{AttemptID: attemptID, TotalScore: 1, MaxScore: 1, IsPassed: true, Details: []quizmod.Detail{}}, nil
}

func (s *stubQuiz) GenerateFromImages(_ context.Context, _ uuid.UUID, files []services.UploadedFile) (*services.GeneratedQuiz, error) {
	s.files = files
	return &services.GeneratedQuiz{QuizID: uuid.New(), Title: "Quiz"}, nil
}

func (s *stubQuiz) ListAttempts(context.Context, uuid.UUID, uuid.UUID) ([]*types.Attempt, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.attempts, nil
}

type stubStudy struct {
	services.StudyService
	rating int
	req    services.StudyRequest
}

func (s *stubStudy) SetRating(_ context.Context, _, _ uuid.UUID, rating int) error {
	if rating < 1 || rating > 5 {
		return apierr.BadRequest("invalid_rating", "rating must be between 1 and 5")
	}
	s.rating = rating
	return nil
}

func (s *stubStudy) ProcessImages(_ context.Context, _ uuid.UUID, req services.StudyRequest) (*services.StudyResult, error) {
	s.req = req
	return &services.StudyResult{SessionID: uuid.New(), Text: "text"}, nil
}

type stubOral struct {
	services.OralService
	req *services.OralRequest
}

func (s *stubOral) Evaluate(_ context.Context, _ uuid.UUID, req services.OralRequest) (*services.OralResult, error) {
	s.req = &req
	return &services.OralResult{Transcript: "t", Feedback: "f"}, nil
}

func newTestRouter(t *testing.T, userID uuid.UUID, register func(r gin.IRoutes)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if userID != uuid.Nil {
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), userID))
			c.Next()
		})
	}
	register(r)
	return r
}

func newUploads(t *testing.T) *UploadStore {
	t.Helper()
	u, err := NewUploadStore(t.TempDir())
	require.NoError(t, err)
	return u
}

func multipartBody(t *testing.T, field string, count int, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for i := 0; i < count; i++ {
		fw, err := mw.CreateFormFile(field, fmt.Sprintf("page%d.png", i))
		require.NoError(t, err)
		_, err = fw.Write([]byte("image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestProtectedHandlerWithoutUserIs401(t *testing.T) {
	h := NewQuizHandler(logger.Nop(), &stubQuiz{}, nil, newUploads(t))
	r := newTestRouter(t, uuid.Nil, func(r gin.IRoutes) { r.GET("/quiz/:quizID/attempts", h.ListAttempts) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quiz/"+uuid.NewString()+"/attempts", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthenticated", decodeBody(t, w)["code"])
}

func TestMalformedPathIDIs404(t *testing.T) {
	h := NewQuizHandler(logger.Nop(), &stubQuiz{}, nil, newUploads(t))
	r := newTestRouter(t, uuid.New(), func(r gin.IRoutes) { r.GET("/quiz/:quizID/attempts", h.ListAttempts) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quiz/not-a-uuid/attempts", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitAnswersSkipsUnparseableQuestionIDs(t *testing.T) {
	quiz := &stubQuiz{}
	h := NewQuizHandler(logger.Nop(), quiz, nil, newUploads(t))
	r := newTestRouter(t, uuid.New(), func(r gin.IRoutes) {
		r.POST("/quiz/:quizID/attempts/:attemptID/answers", h.SubmitAnswers)
	})

	qid := uuid.New()
	body := fmt.Sprintf(`{"answers":[{"questionID":%q,"selectedIndex":2},{"questionID":"bogus","answerText":"x"}]}`, qid)
	attemptID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/quiz/"+uuid.NewString()+"/attempts/"+attemptID.String()+"/answers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, quiz.subs, 1)
	assert.Equal(t, qid, quiz.subs[0].QuestionID)
	require.NotNil(t, quiz.subs[0].SelectedIndex)
	assert.Equal(t, 2, *quiz.subs[0].SelectedIndex)

	out := decodeBody(t, w)
	assert.Equal(t, attemptID.String(), out["attemptID"])
	assert.Equal(t, true, out["isPassed"])
}

func TestSubmitAnswersPassesServiceStatusThrough(t *testing.T) {
	quiz := &stubQuiz{err: apierr.NotFound("attempt_not_found", "attempt not found")}
	h := NewQuizHandler(logger.Nop(), quiz, nil, newUploads(t))
	r := newTestRouter(t, uuid.New(), func(r gin.IRoutes) {
		r.POST("/quiz/:quizID/attempts/:attemptID/answers", h.SubmitAnswers)
	})

	req := httptest.NewRequest(http.MethodPost, "/quiz/"+uuid.NewString()+"/attempts/"+uuid.NewString()+"/answers", strings.NewReader(`{"answers":[]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "attempt not found", decodeBody(t, w)["error"])
}

func TestSubmitAnswersEmptyBodySubmitsNothing(t *testing.T) {
	quiz := &stubQuiz{}
	h := NewQuizHandler(logger.Nop(), quiz, nil, newUploads(t))
	r := newTestRouter(t, uuid.New(), func(r gin.IRoutes) {
		r.POST("/quiz/:quizID/attempts/:attemptID/answers", h.SubmitAnswers)
	})

	req := httptest.NewRequest(http.MethodPost, "/quiz/"+uuid.NewString()+"/attempts/"+uuid.NewString()+"/answers", nil)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, quiz.subs)
	assert.Empty(t, quiz.subs)

	req = httptest.NewRequest(http.MethodPost, "/quiz/"+uuid.NewString()+"/attempts/"+uuid.NewString()+"/answers", strings.NewReader(`{"answers":`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuizFromImagesStoresUploads(t *testing.T) {
	quiz := &stubQuiz{}
	h := NewQuizHandler(logger.Nop(), quiz, nil, newUploads(t))
	r := newTestRouter(t, uuid.New(), func(r gin.IRoutes) { r.POST("/quiz/from-images", h.FromImages) })

	body, ct := multipartBody(t, "images", 2, nil)
	req := httptest.NewRequest(http.MethodPost, "/quiz/from-images", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, quiz.files, 2)
	assert.Equal(t, "page0.png", quiz.files[0].Name)
	raw, err := os.ReadFile(quiz.files[1].Path)
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(raw))
}

func TestQuizFromImagesRejectsTooManyFiles(t *testing.T) {
	quiz := &stubQuiz{}
	h := NewQuizHandler(logger.Nop(), quiz, nil, newUploads(t))
	r := newTestRouter(t, uuid.New(), func(r gin.IRoutes) { r.POST("/quiz/from-images", h.FromImages) })

	body, ct := multipartBody(t, "images", MaxImagesPerRequest+1, nil)
	req := httptest.NewRequest(http.MethodPost, "/quiz/from-images", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "too_many_files", decodeBody(t, w)["code"])
	assert.Nil(t, quiz.files)
}

func TestStudyFromImagesRejectsUnknownModeFirst(t *testing.T) {
	study := &stubStudy{}
	h := NewStudyHandler(logger.Nop(), study, &stubOral{}, newUploads(t))
	r := newTestRouter(t, uuid.New(), func(r gin.IRoutes) { r.POST("/study/from-images", h.FromImages) })

	body, ct := multipartBody(t, "images", 1, map[string]string{"mode": "poetry"})
	req := httptest.NewRequest(http.MethodPost, "/study/from-images", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_mode", decodeBody(t, w)["code"])
	assert.Empty(t, study.req.Files)
}

func TestStudyFromImagesForwardsFormFields(t *testing.T) {
	study := &stubStudy{}
	h := NewStudyHandler(logger.Nop(), study, &stubOral{}, newUploads(t))
	r := newTestRouter(t, uuid.New(), func(r gin.IRoutes) { r.POST("/study/from-images", h.FromImages) })

	body, ct := multipartBody(t, "images", 1, map[string]string{"mode": "Scientific", "subject": "physics"})
	req := httptest.NewRequest(http.MethodPost, "/study/from-images", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Scientific", study.req.Mode)
	assert.Equal(t, "physics", study.req.Subject)
	assert.Len(t, study.req.Files, 1)
}

func TestSetRating(t *testing.T) {
	study := &stubStudy{}
	h := NewStudyHandler(logger.Nop(), study, &stubOral{}, newUploads(t))
	r := newTestRouter(t, uuid.New(), func(r gin.IRoutes) { r.POST("/study/session/:sessionID/rating", h.SetRating) })

	rate := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/study/session/"+uuid.NewString()+"/rating", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := rate(`{"rating":4}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["success"])
	assert.Equal(t, 4, study.rating)

	assert.Equal(t, http.StatusBadRequest, rate(`{"rating":9}`).Code)
	assert.Equal(t, http.StatusBadRequest, rate(`not json`).Code)
}

func TestEvaluateOralParsesSessionID(t *testing.T) {
	oral := &stubOral{}
	h := NewStudyHandler(logger.Nop(), &stubStudy{}, oral, newUploads(t))
	r := newTestRouter(t, uuid.New(), func(r gin.IRoutes) { r.POST("/study/evaluate-oral", h.EvaluateOral) })

	sessionID := uuid.New()
	body, ct := multipartBody(t, "audio", 1, map[string]string{"sessionID": sessionID.String(), "summary": "ref"})
	req := httptest.NewRequest(http.MethodPost, "/study/evaluate-oral", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, oral.req)
	require.NotNil(t, oral.req.SessionID)
	assert.Equal(t, sessionID, *oral.req.SessionID)
	assert.Equal(t, "ref", oral.req.Reference)
	assert.NotEmpty(t, oral.req.Audio.Path)

	body, ct = multipartBody(t, "audio", 1, map[string]string{"sessionID": "nope"})
	req = httptest.NewRequest(http.MethodPost, "/study/evaluate-oral", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEvaluateOralRequiresAudio(t *testing.T) {
	h := NewStudyHandler(logger.Nop(), &stubStudy{}, &stubOral{}, newUploads(t))
	r := newTestRouter(t, uuid.New(), func(r gin.IRoutes) { r.POST("/study/evaluate-oral", h.EvaluateOral) })

	body, ct := multipartBody(t, "audio", 0, map[string]string{"summary": "ref"})
	req := httptest.NewRequest(http.MethodPost, "/study/evaluate-oral", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_file", decodeBody(t, w)["code"])
}

func TestHealthCheck(t *testing.T) {
	db := testutil.DB(t)
	r := newTestRouter(t, uuid.Nil, func(r gin.IRoutes) { r.GET("/healthcheck", NewHealthHandler(db).HealthCheck) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["database"])

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
