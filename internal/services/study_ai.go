package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/smartstudy-backend/internal/observability"
	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
	"github.com/yungbote/smartstudy-backend/internal/prompts"
)

// LLM is the slice of the OpenAI client the study flows need.
type LLM interface {
	GenerateJSONObject(ctx context.Context, system string, user string) (string, error)
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type ScientificSolution struct {
	Steps       string
	FinalAnswer string
}

type OralScore struct {
	Feedback string
	// Score is nil when the scorer gave no usable number.
	Score *int
}

// StudyAI wraps the per-mode prompts. Every call is a single attempt bounded by the
// configured timeout; failures surface as 500s.
type StudyAI interface {
	Summarize(ctx context.Context, text string) (string, error)
	OralSummary(ctx context.Context, text string) (string, error)
	SolveScientific(ctx context.Context, text string) (ScientificSolution, error)
	ScoreOral(ctx context.Context, reference, transcript string) (OralScore, error)
}

type studyAI struct {
	log     *logger.Logger
	llm     LLM
	catalog *prompts.Catalog
	metrics *observability.Metrics
	timeout time.Duration
}

func NewStudyAI(log *logger.Logger, llm LLM, catalog *prompts.Catalog, metrics *observability.Metrics, timeout time.Duration) StudyAI {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &studyAI{
		log:     log.With("service", "StudyAI"),
		llm:     llm,
		catalog: catalog,
		metrics: metrics,
		timeout: timeout,
	}
}

func (s *studyAI) text(ctx context.Context, op string, p prompts.Prompt, vars map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	out, err := s.llm.GenerateText(ctx, p.System, p.Render(vars))
	s.metrics.ObserveLLM(op, err, time.Since(start))
	if err != nil {
		s.log.Error("LLM call failed", "operation", op, "error", err)
		return "", apierr.Internal(op+"_failed", "text processing failed", err)
	}
	return strings.TrimSpace(out), nil
}

func (s *studyAI) jsonObject(ctx context.Context, op string, p prompts.Prompt, vars map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	out, err := s.llm.GenerateJSONObject(ctx, p.System, p.Render(vars))
	s.metrics.ObserveLLM(op, err, time.Since(start))
	if err != nil {
		s.log.Error("LLM call failed", "operation", op, "error", err)
		return "", apierr.Internal(op+"_failed", "text processing failed", err)
	}
	return strings.TrimSpace(out), nil
}

func (s *studyAI) Summarize(ctx context.Context, text string) (string, error) {
	return s.text(ctx, "summary", s.catalog.Summary, map[string]string{"text": text})
}

func (s *studyAI) OralSummary(ctx context.Context, text string) (string, error) {
	return s.text(ctx, "oral_summary", s.catalog.OralSummary, map[string]string{"text": text})
}

func (s *studyAI) SolveScientific(ctx context.Context, text string) (ScientificSolution, error) {
	raw, err := s.jsonObject(ctx, "scientific", s.catalog.Scientific, map[string]string{"text": text})
	if err != nil {
		return ScientificSolution{}, err
	}
	return parseScientific(raw), nil
}

func (s *studyAI) ScoreOral(ctx context.Context, reference, transcript string) (OralScore, error) {
	raw, err := s.jsonObject(ctx, "oral_evaluation", s.catalog.OralEvaluation, map[string]string{
		"reference":  reference,
		"transcript": transcript,
	})
	if err != nil {
		return OralScore{}, err
	}
	return parseOralScore(raw), nil
}

// parseScientific keeps the raw reply as the steps when it is not the expected object.
func parseScientific(raw string) ScientificSolution {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return ScientificSolution{Steps: raw}
	}
	return ScientificSolution{
		Steps:       flattenText(obj["steps"]),
		FinalAnswer: flattenText(firstOf(obj, "finalAnswer", "final_answer")),
	}
}

func parseOralScore(raw string) OralScore {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return OralScore{Feedback: raw}
	}
	return OralScore{
		Feedback: flattenText(obj["feedback"]),
		Score:    scoreFromAny(obj["score"]),
	}
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// flattenText renders a string, a list of strings (one per line) or a scalar as text.
func flattenText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		lines := make([]string, 0, len(t))
		for _, item := range t {
			if s := flattenText(item); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func scoreFromAny(v any) *int {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(math.Round(f))
	return &n
}
