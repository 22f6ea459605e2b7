package study

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/smartstudy-backend/internal/data/repos/testutil"
	types "github.com/yungbote/smartstudy-backend/internal/domain"
	studydomain "github.com/yungbote/smartstudy-backend/internal/domain/study"
	"github.com/yungbote/smartstudy-backend/internal/pkg/dbctx"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestSessionRepoListAndDetail(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	u := testutil.SeedUser(t, ctx, db, "student")
	other := testutil.SeedUser(t, ctx, db, "other")
	log := testutil.Logger(t)

	base := time.Now().UTC().Add(-time.Hour)
	older := testutil.SeedSession(t, ctx, db, u.ID, studydomain.ModeOral, base)
	newer := testutil.SeedSession(t, ctx, db, u.ID, studydomain.ModeSummary, base.Add(time.Minute))
	testutil.SeedSession(t, ctx, db, other.ID, studydomain.ModeSummary, base)

	summaries := NewSummaryRepo(db, log)
	_, err := summaries.Create(dbc, []*types.StudySummary{
		{SessionID: newer.ID, Summary: "short summary", Level: studydomain.SummaryLevelSummary, AudioURL: strPtr("/audio/x.mp3")},
		{SessionID: older.ID, Summary: "oral summary", Level: studydomain.SummaryLevelOral},
	})
	require.NoError(t, err)

	evals := NewOralEvaluationRepo(db, log)
	_, err = evals.Create(dbc, []*types.OralEvaluation{
		{SessionID: &older.ID, UserID: u.ID, Reference: "oral summary", Score: intPtr(40), CreatedAt: base.Add(2 * time.Minute)},
		{SessionID: &older.ID, UserID: u.ID, Reference: "oral summary", Score: intPtr(80), CreatedAt: base.Add(3 * time.Minute)},
	})
	require.NoError(t, err)

	repo := NewSessionRepo(db, log)
	rows, err := repo.ListWithOutputs(dbc, u.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, newer.ID, rows[0].SessionID)
	require.NotNil(t, rows[0].Summary)
	assert.Equal(t, "short summary", *rows[0].Summary)
	require.NotNil(t, rows[0].AudioURL)
	assert.Equal(t, "/audio/x.mp3", *rows[0].AudioURL)
	assert.Nil(t, rows[0].OralScore)

	assert.Equal(t, older.ID, rows[1].SessionID)
	assert.Equal(t, studydomain.ModeOral, rows[1].Mode)
	require.NotNil(t, rows[1].OralScore)
	assert.Equal(t, 80, *rows[1].OralScore)

	owned, err := repo.GetOwned(dbc, newer.ID, u.ID)
	require.NoError(t, err)
	require.NotNil(t, owned)

	notOwned, err := repo.GetOwned(dbc, newer.ID, other.ID)
	require.NoError(t, err)
	assert.Nil(t, notOwned)

	latest, err := summaries.Latest(dbc, newer.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "short summary", latest.Summary)

	none, err := summaries.Latest(dbc, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)

	listed, err := evals.ListByUserID(dbc, u.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, 80, *listed[0].Score)
}

func TestSessionRepoRatingAndStats(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	u := testutil.SeedUser(t, ctx, db, "rater")
	other := testutil.SeedUser(t, ctx, db, "someone")
	log := testutil.Logger(t)
	repo := NewSessionRepo(db, log)

	empty, err := repo.Stats(dbc, u.ID)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalSessions)
	assert.Nil(t, empty.AverageRating)
	assert.Empty(t, empty.RatingProgress)

	base := time.Now().UTC().Add(-time.Hour)
	s1 := testutil.SeedSession(t, ctx, db, u.ID, studydomain.ModeSummary, base)
	s2 := testutil.SeedSession(t, ctx, db, u.ID, studydomain.ModeSummary, base.Add(time.Minute))
	testutil.SeedSession(t, ctx, db, u.ID, studydomain.ModeScientific, base.Add(2*time.Minute))

	n, err := repo.SetRating(dbc, s1.ID, other.ID, 5)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.SetRating(dbc, s1.ID, u.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = repo.SetRating(dbc, s2.ID, u.ID, 2)
	require.NoError(t, err)

	stats, err := repo.Stats(dbc, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalSessions)
	require.NotNil(t, stats.AverageRating)
	assert.InDelta(t, 3.0, *stats.AverageRating, 0.001)
	assert.Equal(t, int64(2), stats.ModeCounts[studydomain.ModeSummary])
	assert.Equal(t, int64(1), stats.ModeCounts[studydomain.ModeScientific])
	assert.Equal(t, []int{4, 2}, stats.RatingProgress)

	_, err = NewOralEvaluationRepo(db, log).Create(dbc, []*types.OralEvaluation{
		{UserID: u.ID, Reference: "r", Score: intPtr(60)},
		{UserID: other.ID, Reference: "r", Score: intPtr(90)},
		{UserID: other.ID, Reference: "r"},
	})
	require.NoError(t, err)

	global, err := repo.GlobalStats(dbc)
	require.NoError(t, err)
	assert.Equal(t, int64(3), global.TotalSessions)
	assert.Equal(t, int64(3), global.TotalOralEvaluations)
	require.NotNil(t, global.AverageOralScore)
	assert.InDelta(t, 75.0, *global.AverageOralScore, 0.001)
}

func TestProblemRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	u := testutil.SeedUser(t, ctx, db, "solver")
	s := testutil.SeedSession(t, ctx, db, u.ID, studydomain.ModeScientific, time.Now().UTC())

	repo := NewProblemRepo(db, testutil.Logger(t))
	_, err := repo.Create(dbc, []*types.StudyProblem{{
		SessionID:     s.ID,
		DetectedType:  "scientific",
		ProblemText:   "2x = 4",
		SolutionSteps: "divide by 2",
		FinalAnswer:   "x = 2",
	}})
	require.NoError(t, err)

	got, err := repo.GetBySessionID(dbc, s.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x = 2", got[0].FinalAnswer)
}

func TestTTSUsageRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, db, "listener")
	repo := NewTTSUsageRepo(db, testutil.Logger(t))
	day := studydomain.UsageDay(time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-03-01", day)

	n, err := repo.Count(ctx, u.ID, day)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.Increment(ctx, u.ID, day))
	require.NoError(t, repo.Increment(ctx, u.ID, day))
	require.NoError(t, repo.Increment(ctx, u.ID, "2026-03-02"))

	n, err = repo.Count(ctx, u.ID, day)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.Count(ctx, u.ID, "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTTSUsageKey(t *testing.T) {
	id := uuid.MustParse("7f9c2a52-3f1e-4c39-9d0a-0c8d6f1c2b11")
	assert.Equal(t, "smartstudy:tts:7f9c2a52-3f1e-4c39-9d0a-0c8d6f1c2b11:2026-03-01", ttsUsageKey(id, "2026-03-01"))
}
