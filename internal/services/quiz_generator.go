package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	quizmod "github.com/yungbote/smartstudy-backend/internal/modules/quiz"
	"github.com/yungbote/smartstudy-backend/internal/observability"
	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
	"github.com/yungbote/smartstudy-backend/internal/prompts"
)

const (
	// minGenerationTextRunes is the shortest OCR text worth prompting with.
	minGenerationTextRunes = 10
	maxGenerationTextRunes = 6000
)

// JSONGenerator is the slice of the LLM client used for structured output.
type JSONGenerator interface {
	GenerateJSONObject(ctx context.Context, system string, user string) (string, error)
}

// QuizGenerator turns note text into a normalized quiz document.
type QuizGenerator interface {
	Generate(ctx context.Context, text string) (quizmod.Document, error)
}

type quizGenerator struct {
	log     *logger.Logger
	llm     JSONGenerator
	prompt  prompts.Prompt
	metrics *observability.Metrics
	timeout time.Duration
}

func NewQuizGenerator(log *logger.Logger, llm JSONGenerator, catalog *prompts.Catalog, metrics *observability.Metrics, timeout time.Duration) QuizGenerator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &quizGenerator{
		log:     log.With("service", "QuizGenerator"),
		llm:     llm,
		prompt:  catalog.QuizGeneration,
		metrics: metrics,
		timeout: timeout,
	}
}

// Generate makes exactly one LLM call. A transport failure is returned; a malformed
// reply is normalized into filler questions instead.
func (g *quizGenerator) Generate(ctx context.Context, text string) (quizmod.Document, error) {
	input := generationInput(text, g.prompt.FallbackText)

	ctx, span := observability.StartSpan(ctx, "quiz.generate", attribute.Int("quiz.input_chars", len(input)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.llm.GenerateJSONObject(ctx, g.prompt.System, g.prompt.Render(map[string]string{"text": input}))
	g.metrics.ObserveLLM("quiz_generation", err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		return quizmod.Document{}, apierr.Internal("quiz_generation_failed", "quiz generation failed", err)
	}

	doc := quizmod.Normalize(quizmod.ParseGenerated(raw))
	span.SetAttributes(attribute.Int("quiz.questions", len(doc.Questions)))
	g.log.Debug("Quiz generated", "questions", len(doc.Questions), "raw_chars", len(raw))
	return doc, nil
}

// generationInput swaps unreadable text for the fallback instruction and caps the rest.
func generationInput(text, fallback string) string {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minGenerationTextRunes {
		return fallback
	}
	return truncateRunes(text, maxGenerationTextRunes)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
