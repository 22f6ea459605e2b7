package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	studyrepo "github.com/yungbote/smartstudy-backend/internal/data/repos/study"
	types "github.com/yungbote/smartstudy-backend/internal/domain"
	"github.com/yungbote/smartstudy-backend/internal/domain/study"
	"github.com/yungbote/smartstudy-backend/internal/observability"
	"github.com/yungbote/smartstudy-backend/internal/pkg/dbctx"
	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

// minStudyTextRunes is the shortest cleaned OCR text a session is started from.
const minStudyTextRunes = 15

var errSessionNotFound = apierr.NotFound("session_not_found", "session not found")

type StudyRequest struct {
	Mode    string
	Subject string
	Files   []UploadedFile
}

type StudyResult struct {
	SessionID     uuid.UUID `json:"sessionID"`
	Text          string    `json:"text"`
	Summary       *string   `json:"summary,omitempty"`
	SolutionSteps *string   `json:"solutionSteps,omitempty"`
	FinalAnswer   *string   `json:"finalAnswer,omitempty"`
	AudioURL      *string   `json:"audioUrl,omitempty"`
}

type SessionListItem struct {
	SessionID uuid.UUID `json:"sessionID"`
	Subject   *string   `json:"subject"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"createdAt"`
	Rating    *int      `json:"rating"`
	Summary   *string   `json:"summary"`
	AudioURL  *string   `json:"audioUrl"`
	OralScore *int      `json:"oralScore"`
}

type SessionDetail struct {
	SessionID     uuid.UUID `json:"sessionID"`
	Subject       *string   `json:"subject"`
	Mode          string    `json:"mode"`
	CreatedAt     time.Time `json:"createdAt"`
	Rating        *int      `json:"rating"`
	Summary       *string   `json:"summary"`
	AudioURL      *string   `json:"audioUrl"`
	SolutionSteps *string   `json:"solutionSteps,omitempty"`
	FinalAnswer   *string   `json:"finalAnswer,omitempty"`
}

type StudyStats struct {
	TotalSessions  int64            `json:"totalSessions"`
	AverageRating  *float64         `json:"averageRating"`
	Modes          map[string]int64 `json:"modes"`
	RatingProgress []int            `json:"ratingProgress"`
}

type GlobalStudyStats struct {
	TotalSessions        int64    `json:"totalSessionsAll"`
	TotalOralEvaluations int64    `json:"totalOralEvaluationsAll"`
	AverageOralScore     *float64 `json:"avgOralScoreAll"`
}

type StudyService interface {
	// ProcessImages runs OCR, the mode-specific step, optional narration and persistence.
	// The uploads are removed on every path.
	ProcessImages(ctx context.Context, userID uuid.UUID, req StudyRequest) (*StudyResult, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]SessionListItem, error)
	GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*SessionDetail, error)
	SetRating(ctx context.Context, sessionID, userID uuid.UUID, rating int) error
	Stats(ctx context.Context, userID uuid.UUID) (*StudyStats, error)
	GlobalStats(ctx context.Context) (*GlobalStudyStats, error)
}

type studyService struct {
	db        *gorm.DB
	log       *logger.Logger
	sessions  studyrepo.SessionRepo
	summaries studyrepo.SummaryRepo
	problems  studyrepo.ProblemRepo
	extractor TextExtractor
	ai        StudyAI
	narrator  Narrator
	now       func() time.Time
}

func NewStudyService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessions studyrepo.SessionRepo,
	summaries studyrepo.SummaryRepo,
	problems studyrepo.ProblemRepo,
	extractor TextExtractor,
	ai StudyAI,
	narrator Narrator,
) StudyService {
	return &studyService{
		db:        db,
		log:       baseLog.With("service", "StudyService"),
		sessions:  sessions,
		summaries: summaries,
		problems:  problems,
		extractor: extractor,
		ai:        ai,
		narrator:  narrator,
		now:       time.Now,
	}
}

// NormalizeMode lowercases m and defaults it to summary; ok is false for unknown modes.
func NormalizeMode(m string) (string, bool) {
	m = strings.ToLower(strings.TrimSpace(m))
	if m == "" {
		m = study.ModeSummary
	}
	return m, study.ValidMode(m)
}

// CleanOCRText collapses whitespace and drops everything except letters, digits
// and basic punctuation.
func CleanOCRText(raw string) string {
	var b strings.Builder
	space := false
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsLetter(r), unicode.IsDigit(r), strings.ContainsRune(".,;:!?()", r):
		default:
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func (s *studyService) ProcessImages(ctx context.Context, userID uuid.UUID, req StudyRequest) (*StudyResult, error) {
	defer removeUploads(s.log, req.Files...)

	mode, ok := NormalizeMode(req.Mode)
	if !ok {
		return nil, apierr.BadRequest("invalid_mode", "mode must be summary, scientific or oral")
	}
	if len(req.Files) == 0 {
		return nil, apierr.BadRequest("no_images", "no images uploaded")
	}

	ctx, span := observability.StartSpan(ctx, "study.process",
		attribute.String("study.mode", mode),
		attribute.Int("study.images", len(req.Files)),
	)
	defer span.End()

	rawText := strings.TrimSpace(s.extractor.ExtractText(ctx, req.Files))
	if rawText == "" {
		return nil, apierr.BadRequest("ocr_failed", "no text could be read from the images")
	}
	if n := len([]rune(CleanOCRText(rawText))); n < minStudyTextRunes {
		s.log.Info("OCR text too short", "chars", n)
		return nil, apierr.BadRequest("text_too_short", "text too short or unreadable, try a sharper photo")
	}

	now := s.now().UTC()
	session := &types.StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		Mode:      mode,
		RawText:   rawText,
		CreatedAt: now,
	}
	if subject := strings.TrimSpace(req.Subject); subject != "" {
		session.Subject = &subject
	}
	result := &StudyResult{SessionID: session.ID, Text: rawText}

	var summary *types.StudySummary
	var problem *types.StudyProblem
	switch mode {
	case study.ModeSummary:
		text, err := s.ai.Summarize(ctx, rawText)
		if err != nil {
			return nil, err
		}
		audioURL := s.narrator.Narrate(ctx, userID, session.ID, text)
		summary = &types.StudySummary{SessionID: session.ID, Summary: text, Level: study.SummaryLevelSummary, AudioURL: audioURL, CreatedAt: now}
		result.Summary = &text
		result.AudioURL = audioURL
	case study.ModeScientific:
		sol, err := s.ai.SolveScientific(ctx, rawText)
		if err != nil {
			return nil, err
		}
		problem = &types.StudyProblem{
			SessionID:     session.ID,
			DetectedType:  study.ModeScientific,
			ProblemText:   rawText,
			SolutionSteps: sol.Steps,
			FinalAnswer:   sol.FinalAnswer,
			CreatedAt:     now,
		}
		result.SolutionSteps = &sol.Steps
		result.FinalAnswer = &sol.FinalAnswer
	case study.ModeOral:
		text, err := s.ai.OralSummary(ctx, rawText)
		if err != nil {
			return nil, err
		}
		summary = &types.StudySummary{SessionID: session.ID, Summary: text, Level: study.SummaryLevelOral, CreatedAt: now}
		result.Summary = &text
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.sessions.Create(dbc, []*types.StudySession{session}); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		if summary != nil {
			if _, err := s.summaries.Create(dbc, []*types.StudySummary{summary}); err != nil {
				return fmt.Errorf("insert summary: %w", err)
			}
		}
		if problem != nil {
			if _, err := s.problems.Create(dbc, []*types.StudyProblem{problem}); err != nil {
				return fmt.Errorf("insert problem: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		s.log.Error("Study session rolled back", "session_id", session.ID, "error", err)
		if result.AudioURL != nil {
			s.narrator.Discard(context.WithoutCancel(ctx), session.ID)
		}
		return nil, apierr.Internal("study_save_failed", "could not save study session", err)
	}
	s.log.Info("Study session saved", "session_id", session.ID, "mode", mode, "audio", result.AudioURL != nil)
	return result, nil
}

func (s *studyService) ListSessions(ctx context.Context, userID uuid.UUID) ([]SessionListItem, error) {
	rows, err := s.sessions.ListWithOutputs(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]SessionListItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, SessionListItem{
			SessionID: r.SessionID,
			Subject:   r.Subject,
			Mode:      r.Mode,
			CreatedAt: r.CreatedAt,
			Rating:    r.Rating,
			Summary:   r.Summary,
			AudioURL:  r.AudioURL,
			OralScore: r.OralScore,
		})
	}
	return out, nil
}

func (s *studyService) GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*SessionDetail, error) {
	dbc := dbctx.Context{Ctx: ctx}
	session, err := s.sessions.GetOwned(dbc, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, errSessionNotFound
	}
	out := &SessionDetail{
		SessionID: session.ID,
		Subject:   session.Subject,
		Mode:      session.Mode,
		CreatedAt: session.CreatedAt,
		Rating:    session.Rating,
	}
	summary, err := s.summaries.Latest(dbc, session.ID)
	if err != nil {
		return nil, fmt.Errorf("load summary: %w", err)
	}
	if summary != nil {
		out.Summary = &summary.Summary
		out.AudioURL = summary.AudioURL
	}
	problems, err := s.problems.GetBySessionID(dbc, session.ID)
	if err != nil {
		return nil, fmt.Errorf("load problems: %w", err)
	}
	if len(problems) > 0 {
		p := problems[len(problems)-1]
		out.SolutionSteps = &p.SolutionSteps
		out.FinalAnswer = &p.FinalAnswer
	}
	return out, nil
}

func (s *studyService) SetRating(ctx context.Context, sessionID, userID uuid.UUID, rating int) error {
	if rating < 1 || rating > 5 {
		return apierr.BadRequest("invalid_rating", "rating must be between 1 and 5")
	}
	n, err := s.sessions.SetRating(dbctx.Context{Ctx: ctx}, sessionID, userID, rating)
	if err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	if n == 0 {
		return errSessionNotFound
	}
	return nil
}

func (s *studyService) Stats(ctx context.Context, userID uuid.UUID) (*StudyStats, error) {
	st, err := s.sessions.Stats(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	modes := map[string]int64{study.ModeSummary: 0, study.ModeScientific: 0, study.ModeOral: 0}
	for m, c := range st.ModeCounts {
		modes[m] = c
	}
	progress := st.RatingProgress
	if progress == nil {
		progress = []int{}
	}
	return &StudyStats{
		TotalSessions:  st.TotalSessions,
		AverageRating:  st.AverageRating,
		Modes:          modes,
		RatingProgress: progress,
	}, nil
}

func (s *studyService) GlobalStats(ctx context.Context) (*GlobalStudyStats, error) {
	st, err := s.sessions.GlobalStats(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("load global stats: %w", err)
	}
	return &GlobalStudyStats{
		TotalSessions:        st.TotalSessions,
		TotalOralEvaluations: st.TotalOralEvaluations,
		AverageOralScore:     st.AverageOralScore,
	}, nil
}
