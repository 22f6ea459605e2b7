package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	quizrepo "github.com/yungbote/smartstudy-backend/internal/data/repos/quiz"
	studyrepo "github.com/yungbote/smartstudy-backend/internal/data/repos/study"
	"github.com/yungbote/smartstudy-backend/internal/data/repos/testutil"
	userrepo "github.com/yungbote/smartstudy-backend/internal/data/repos/user"
	"github.com/yungbote/smartstudy-backend/internal/observability"
	"github.com/yungbote/smartstudy-backend/internal/prompts"
)

// fakeOCR answers by file content: the bytes of each upload are its "recognized" text.
type fakeOCR struct {
	mu    sync.Mutex
	calls int
	fail  int
}

func (f *fakeOCR) Recognize(ctx context.Context, img []byte, mimeType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail > 0 {
		f.fail--
		return "", errors.New("engine unavailable")
	}
	return string(img), nil
}

type fakeLLM struct {
	mu       sync.Mutex
	jsonOut  string
	textOut  string
	err      error
	lastUser string
	calls    int
}

func (f *fakeLLM) GenerateJSONObject(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastUser = user
	return f.jsonOut, f.err
}

func (f *fakeLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastUser = user
	return f.textOut, f.err
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	return f.text, f.err
}

type fakeSynth struct {
	calls int
	err   error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("ID3" + text), nil
}

// writeUpload drops content into a temp file the way the HTTP layer stores uploads.
func writeUpload(t *testing.T, name, content string) UploadedFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return UploadedFile{Path: path, Name: name, MimeType: "image/png"}
}

func requireRemoved(t *testing.T, files ...UploadedFile) {
	t.Helper()
	for _, f := range files {
		_, err := os.Stat(f.Path)
		require.True(t, os.IsNotExist(err), "upload %s should be removed", f.Name)
	}
}

type quizFixture struct {
	db        *gorm.DB
	svc       QuizService
	quizzes   quizrepo.QuizRepo
	questions quizrepo.QuestionRepo
	attempts  quizrepo.AttemptRepo
	answers   quizrepo.AnswerRepo
	ocr       *fakeOCR
	llm       *fakeLLM
}

func newQuizFixture(t *testing.T, wrap func(quizrepo.QuestionRepo) quizrepo.QuestionRepo) *quizFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	f := &quizFixture{
		db:        db,
		quizzes:   quizrepo.NewQuizRepo(db, log),
		questions: quizrepo.NewQuestionRepo(db, log),
		attempts:  quizrepo.NewAttemptRepo(db, log),
		answers:   quizrepo.NewAnswerRepo(db, log),
		ocr:       &fakeOCR{},
		llm:       &fakeLLM{},
	}
	questions := f.questions
	if wrap != nil {
		questions = wrap(questions)
	}
	metrics := observability.New()
	extractor := NewTextExtractor(log, f.ocr, metrics, TextExtractorConfig{})
	generator := NewQuizGenerator(log, f.llm, prompts.MustLoad(), metrics, 0)
	f.svc = NewQuizService(db, log, f.quizzes, questions, f.attempts, f.answers, extractor, generator, metrics)
	return f
}

type studyFixture struct {
	db        *gorm.DB
	svc       StudyService
	oral      OralService
	sessions  studyrepo.SessionRepo
	summaries studyrepo.SummaryRepo
	usage     studyrepo.TTSUsageRepo
	ocr       *fakeOCR
	llm       *fakeLLM
	synth     *fakeSynth
	stt       *fakeTranscriber
	audioDir  string
	userID    uuid.UUID
}

func newStudyFixture(t *testing.T, dailyLimit int) *studyFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	metrics := observability.New()
	f := &studyFixture{
		db:        db,
		sessions:  studyrepo.NewSessionRepo(db, log),
		summaries: studyrepo.NewSummaryRepo(db, log),
		usage:     studyrepo.NewTTSUsageRepo(db, log),
		ocr:       &fakeOCR{},
		llm:       &fakeLLM{},
		synth:     &fakeSynth{},
		stt:       &fakeTranscriber{},
		audioDir:  t.TempDir(),
	}
	store, err := NewLocalAudioStore(log, f.audioDir)
	require.NoError(t, err)
	narrator := NewNarrator(log, f.synth, store, f.usage, metrics, NarratorConfig{Enabled: true, DailyLimit: dailyLimit})
	ai := NewStudyAI(log, f.llm, prompts.MustLoad(), metrics, 0)
	extractor := NewTextExtractor(log, f.ocr, metrics, TextExtractorConfig{})
	f.svc = NewStudyService(db, log, f.sessions, f.summaries, studyrepo.NewProblemRepo(db, log), extractor, ai, narrator)
	f.oral = NewOralService(db, log, f.sessions, f.summaries, studyrepo.NewOralEvaluationRepo(db, log), f.stt, ai, metrics)
	f.userID = testutil.SeedUser(t, context.Background(), db, "student").ID
	return f
}

func newAuthService(t *testing.T) (AuthService, userrepo.LoginEventRepo) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	logins := userrepo.NewLoginEventRepo(db, log)
	return NewAuthService(db, log, userrepo.NewUserRepo(db, log), logins, "test-secret", 0), logins
}

func timeNow() time.Time { return time.Now() }
