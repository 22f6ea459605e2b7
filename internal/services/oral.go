package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	studyrepo "github.com/yungbote/smartstudy-backend/internal/data/repos/study"
	types "github.com/yungbote/smartstudy-backend/internal/domain"
	"github.com/yungbote/smartstudy-backend/internal/observability"
	"github.com/yungbote/smartstudy-backend/internal/pkg/dbctx"
	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

type OralRequest struct {
	Audio UploadedFile
	// Reference wins over the session summary when both are present.
	Reference string
	SessionID *uuid.UUID
}

type OralResult struct {
	Transcript string `json:"transcript"`
	Feedback   string `json:"feedback"`
	Score      *int   `json:"score"`
}

type OralEvaluationView struct {
	ID         uuid.UUID  `json:"id"`
	SessionID  *uuid.UUID `json:"sessionID"`
	Transcript string     `json:"transcript"`
	Feedback   string     `json:"feedback"`
	Score      *int       `json:"score"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type OralService interface {
	// Evaluate transcribes and scores a spoken answer; the upload is removed on every path.
	Evaluate(ctx context.Context, userID uuid.UUID, req OralRequest) (*OralResult, error)
	History(ctx context.Context, userID uuid.UUID) ([]OralEvaluationView, error)
}

type oralService struct {
	db          *gorm.DB
	log         *logger.Logger
	sessions    studyrepo.SessionRepo
	summaries   studyrepo.SummaryRepo
	evaluations studyrepo.OralEvaluationRepo
	transcriber Transcriber
	ai          StudyAI
	metrics     *observability.Metrics
	now         func() time.Time
}

func NewOralService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessions studyrepo.SessionRepo,
	summaries studyrepo.SummaryRepo,
	evaluations studyrepo.OralEvaluationRepo,
	transcriber Transcriber,
	ai StudyAI,
	metrics *observability.Metrics,
) OralService {
	return &oralService{
		db:          db,
		log:         baseLog.With("service", "OralService"),
		sessions:    sessions,
		summaries:   summaries,
		evaluations: evaluations,
		transcriber: transcriber,
		ai:          ai,
		metrics:     metrics,
		now:         time.Now,
	}
}

func (s *oralService) Evaluate(ctx context.Context, userID uuid.UUID, req OralRequest) (*OralResult, error) {
	defer removeUploads(s.log, req.Audio)

	if strings.TrimSpace(req.Audio.Path) == "" {
		return nil, apierr.BadRequest("missing_audio", "audio file is required")
	}
	reference, err := s.resolveReference(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	transcript, err := transcribeUpload(ctx, s.log, s.transcriber, s.metrics, req.Audio)
	if err != nil {
		return nil, err
	}
	scored, err := s.ai.ScoreOral(ctx, reference, transcript)
	if err != nil {
		return nil, err
	}

	eval := &types.OralEvaluation{
		ID:            uuid.New(),
		SessionID:     req.SessionID,
		UserID:        userID,
		Reference:     reference,
		AudioLocation: req.Audio.Name,
		Transcript:    transcript,
		Feedback:      scored.Feedback,
		Score:         scored.Score,
		CreatedAt:     s.now().UTC(),
	}
	if _, err := s.evaluations.Create(dbctx.Context{Ctx: ctx}, []*types.OralEvaluation{eval}); err != nil {
		s.log.Error("Oral evaluation not saved", "user_id", userID, "error", err)
		return nil, apierr.Internal("oral_save_failed", "could not save oral evaluation", err)
	}
	return &OralResult{Transcript: transcript, Feedback: scored.Feedback, Score: scored.Score}, nil
}

// resolveReference checks session ownership whenever a session is named, then falls
// back to its latest summary if no reference text was sent.
func (s *oralService) resolveReference(ctx context.Context, userID uuid.UUID, req OralRequest) (string, error) {
	reference := strings.TrimSpace(req.Reference)
	if req.SessionID != nil {
		dbc := dbctx.Context{Ctx: ctx}
		session, err := s.sessions.GetOwned(dbc, *req.SessionID, userID)
		if err != nil {
			return "", fmt.Errorf("load session: %w", err)
		}
		if session == nil {
			return "", errSessionNotFound
		}
		if reference == "" {
			summary, err := s.summaries.Latest(dbc, session.ID)
			if err != nil {
				return "", fmt.Errorf("load summary: %w", err)
			}
			if summary != nil {
				reference = strings.TrimSpace(summary.Summary)
			}
		}
	}
	if reference == "" {
		return "", apierr.BadRequest("missing_reference", "a reference summary or a session with a summary is required")
	}
	return reference, nil
}

func (s *oralService) History(ctx context.Context, userID uuid.UUID) ([]OralEvaluationView, error) {
	evals, err := s.evaluations.ListByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("list oral evaluations: %w", err)
	}
	out := make([]OralEvaluationView, 0, len(evals))
	for _, e := range evals {
		out = append(out, OralEvaluationView{
			ID:         e.ID,
			SessionID:  e.SessionID,
			Transcript: e.Transcript,
			Feedback:   e.Feedback,
			Score:      e.Score,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out, nil
}
