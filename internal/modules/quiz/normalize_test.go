package quiz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	quizdomain "github.com/yungbote/smartstudy-backend/internal/domain/quiz"
)

func assertWellFormed(t *testing.T, doc Document) {
	t.Helper()
	require.GreaterOrEqual(t, len(doc.Questions), MinQuestions)
	assert.NotEmpty(t, doc.Title)
	assert.NotEmpty(t, doc.Description)
	for i, q := range doc.Questions {
		assert.GreaterOrEqual(t, len([]rune(q.Text)), 3, "question %d", i)
		assert.GreaterOrEqual(t, q.Points, 1, "question %d", i)
		if q.Type == quizdomain.TypeMultipleChoice {
			assert.Len(t, q.Choices, quizdomain.ChoiceCount, "question %d", i)
			require.NotNil(t, q.CorrectIndex, "question %d", i)
			assert.GreaterOrEqual(t, *q.CorrectIndex, 0)
			assert.LessOrEqual(t, *q.CorrectIndex, 3)
		} else {
			assert.Equal(t, quizdomain.TypeOpenEnded, q.Type)
		}
	}
}

func TestNormalize_NoQuestionsYieldsFiveFillers(t *testing.T) {
	inputs := []any{
		nil,
		"not an object",
		map[string]any{},
		map[string]any{"title": "T", "questions": "nope"},
		map[string]any{"questions": nil},
	}
	for _, in := range inputs {
		doc := Normalize(in)
		require.Len(t, doc.Questions, MinQuestions)
		for i, q := range doc.Questions {
			assert.Equal(t, quizdomain.TypeMultipleChoice, q.Type)
			assert.Equal(t, []string{"Option 1", "Option 2", "Option 3", "Option 4"}, q.Choices)
			require.NotNil(t, q.CorrectIndex)
			assert.Equal(t, 0, *q.CorrectIndex)
			assert.Equal(t, 1, q.Points)
			assert.Equal(t, "Review question #"+string(rune('1'+i)), q.Text)
		}
	}
}

func TestNormalize_PlaceholderTitleAndDescription(t *testing.T) {
	doc := Normalize(map[string]any{"title": "   ", "description": ""})
	assert.Equal(t, DefaultTitle, doc.Title)
	assert.Equal(t, DefaultDescription, doc.Description)

	doc = Normalize(map[string]any{"title": " Cells ", "description": "Basics"})
	assert.Equal(t, "Cells", doc.Title)
	assert.Equal(t, "Basics", doc.Description)
}

func TestNormalize_MultipleChoiceRules(t *testing.T) {
	doc := Normalize(map[string]any{
		"questions": []any{
			map[string]any{"type": "mcq", "text": "Too many", "choices": []any{"a", "b", "c", "d", "e"}, "correctIndex": 9},
			map[string]any{"text": "Options alias", "options": []any{"x", "y"}, "correctIndex": -2},
			map[string]any{"type": "weird", "text": "Unknown type", "choices": []any{"p", "q", "r", "s"}, "correctIndex": 1.5},
			map[string]any{"type": "mcq", "text": "String index", "choices": []any{"p", "q", "r", "s"}, "correctIndex": "2"},
			map[string]any{"type": "mcq", "text": "Number index", "choices": []any{"p", "q", "r", "s"}, "correctIndex": json.Number("2")},
		},
	})
	require.Len(t, doc.Questions, 5)

	q := doc.Questions[0]
	assert.Equal(t, []string{"a", "b", "c", "d"}, q.Choices)
	assert.Equal(t, 3, *q.CorrectIndex)

	q = doc.Questions[1]
	assert.Equal(t, quizdomain.TypeMultipleChoice, q.Type)
	assert.Equal(t, []string{"x", "y", "Option 3", "Option 4"}, q.Choices)
	assert.Equal(t, 0, *q.CorrectIndex)

	q = doc.Questions[2]
	assert.Equal(t, quizdomain.TypeMultipleChoice, q.Type)
	assert.Equal(t, 0, *q.CorrectIndex)

	assert.Equal(t, 0, *doc.Questions[3].CorrectIndex)
	assert.Equal(t, 2, *doc.Questions[4].CorrectIndex)
	assertWellFormed(t, doc)
}

func TestNormalize_OpenEndedAndPoints(t *testing.T) {
	doc := Normalize(map[string]any{
		"questions": []any{
			map[string]any{"type": "open", "text": "Capital of Italy?", "idealAnswer": " Rome ", "points": 3},
			map[string]any{"type": "open-ended", "text": "No ideal", "points": 0},
			map[string]any{"type": "open", "text": "Numeric ideal", "idealAnswer": 42, "points": 2.7},
			map[string]any{"type": "open", "text": "Bad points", "points": "lots"},
			map[string]any{"type": "open", "text": "Negative", "points": -4},
		},
	})
	require.Len(t, doc.Questions, 5)
	assert.Equal(t, "Rome", doc.Questions[0].IdealAnswer)
	assert.Equal(t, 3, doc.Questions[0].Points)
	assert.Nil(t, doc.Questions[0].Choices)
	assert.Nil(t, doc.Questions[0].CorrectIndex)

	assert.Equal(t, "", doc.Questions[1].IdealAnswer)
	assert.Equal(t, 1, doc.Questions[1].Points)
	assert.Equal(t, "42", doc.Questions[2].IdealAnswer)
	assert.Equal(t, 2, doc.Questions[2].Points)
	assert.Equal(t, 1, doc.Questions[3].Points)
	assert.Equal(t, 1, doc.Questions[4].Points)
}

func TestNormalize_DropsShortTextAndPads(t *testing.T) {
	doc := Normalize(map[string]any{
		"questions": []any{
			map[string]any{"text": "  ok  "},
			map[string]any{"text": ""},
			"not a question",
			map[string]any{"question": "Uses question key"},
		},
	})
	require.Len(t, doc.Questions, 5)
	assert.Equal(t, "Uses question key", doc.Questions[0].Text)
	assert.Equal(t, "Review question #2", doc.Questions[1].Text)
	assert.Equal(t, "Review question #5", doc.Questions[4].Text)
}

func TestNormalize_KeepsMoreThanFive(t *testing.T) {
	qs := make([]any, 0, 7)
	for i := 0; i < 7; i++ {
		qs = append(qs, map[string]any{"text": "Question number " + string(rune('A'+i))})
	}
	doc := Normalize(map[string]any{"questions": qs})
	require.Len(t, doc.Questions, 7)
	assert.Equal(t, "Question number A", doc.Questions[0].Text)
	assert.Equal(t, "Question number G", doc.Questions[6].Text)
}

func TestNormalize_QuestionsObjectAndTopLevelArray(t *testing.T) {
	doc := Normalize(map[string]any{
		"questions": map[string]any{
			"2":  map[string]any{"text": "Second"},
			"10": map[string]any{"text": "Tenth"},
			"1":  map[string]any{"text": "First"},
		},
	})
	assert.Equal(t, "First", doc.Questions[0].Text)
	assert.Equal(t, "Second", doc.Questions[1].Text)
	assert.Equal(t, "Tenth", doc.Questions[2].Text)

	single := Normalize(map[string]any{"questions": map[string]any{"text": "Only one"}})
	assert.Equal(t, "Only one", single.Questions[0].Text)

	arr := Normalize([]any{map[string]any{"text": "From array"}})
	assert.Equal(t, DefaultTitle, arr.Title)
	assert.Equal(t, "From array", arr.Questions[0].Text)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []any{
		nil,
		map[string]any{
			"title": "Mixed",
			"questions": []any{
				map[string]any{"type": "mcq", "text": "Pick", "options": []any{"a"}, "correctIndex": 7, "points": 2.9},
				map[string]any{"type": "open", "text": "Say it", "idealAnswer": "  it "},
				map[string]any{"text": "x"},
			},
		},
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		assert.Equal(t, once, twice)

		raw, err := json.Marshal(once)
		require.NoError(t, err)
		thrice := Normalize(ParseGenerated(string(raw)))
		assert.Equal(t, once, thrice)
	}
}

func TestParseGenerated(t *testing.T) {
	fenced := "```json\n{\"title\": \"Fenced\", \"questions\": []}\n```"
	m, ok := ParseGenerated(fenced).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Fenced", m["title"])

	prose := "Here is your quiz: {\"title\": \"Prose\"} enjoy"
	m, ok = ParseGenerated(prose).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Prose", m["title"])

	assert.Nil(t, ParseGenerated(""))
	assert.Nil(t, ParseGenerated("no json here"))

	doc := Normalize(ParseGenerated("{broken"))
	assert.Len(t, doc.Questions, MinQuestions)
}
