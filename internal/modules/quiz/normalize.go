package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	quizdomain "github.com/yungbote/smartstudy-backend/internal/domain/quiz"
)

const (
	DefaultTitle       = "Generated quiz"
	DefaultDescription = "Quiz generated from your notes"

	MinQuestions   = 5
	minTextRunes   = 3
	defaultPoints  = 1
	fillerTextBase = "Review question #"
)

// Question is one normalized question of a generated quiz document.
type Question struct {
	Type         string   `json:"type"`
	Text         string   `json:"text"`
	Choices      []string `json:"choices,omitempty"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
	IdealAnswer  string   `json:"idealAnswer,omitempty"`
	Points       int      `json:"points"`
}

// Document is a quiz with at least MinQuestions well-formed questions.
type Document struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// ParseGenerated decodes generator output leniently: code fences and prose around the
// JSON value are tolerated. It returns nil when nothing decodable is found.
func ParseGenerated(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = stripCodeFence(s)
	if v, ok := decodeJSON(s); ok {
		return v
	}
	if i, j := strings.Index(s, "{"), strings.LastIndex(s, "}"); i >= 0 && j > i {
		if v, ok := decodeJSON(s[i : j+1]); ok {
			return v
		}
	}
	if i, j := strings.Index(s, "["), strings.LastIndex(s, "]"); i >= 0 && j > i {
		if v, ok := decodeJSON(s[i : j+1]); ok {
			return v
		}
	}
	return nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func decodeJSON(s string) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// Normalize coerces arbitrary generator output into a Document. It never fails;
// unusable input degrades to placeholder content.
func Normalize(raw any) Document {
	obj, list := topLevel(raw)

	doc := Document{
		Title:       strings.TrimSpace(anyString(obj["title"])),
		Description: strings.TrimSpace(anyString(obj["description"])),
	}
	if doc.Title == "" {
		doc.Title = DefaultTitle
	}
	if doc.Description == "" {
		doc.Description = DefaultDescription
	}

	if list == nil {
		list = questionList(obj["questions"])
	}
	doc.Questions = make([]Question, 0, max(len(list), MinQuestions))
	for _, item := range list {
		q, ok := normalizeQuestion(item)
		if !ok {
			continue
		}
		doc.Questions = append(doc.Questions, q)
	}
	for len(doc.Questions) < MinQuestions {
		doc.Questions = append(doc.Questions, filler(len(doc.Questions)+1))
	}
	return doc
}

func topLevel(raw any) (map[string]any, []any) {
	switch t := raw.(type) {
	case map[string]any:
		return t, nil
	case []any:
		return map[string]any{}, t
	case Document, *Document:
		b, err := json.Marshal(t)
		if err != nil {
			return map[string]any{}, nil
		}
		if v, ok := decodeJSON(string(b)); ok {
			if m, ok := v.(map[string]any); ok {
				return m, nil
			}
		}
	}
	return map[string]any{}, nil
}

// questionList coerces the questions value into an ordered sequence.
func questionList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		if looksLikeQuestion(t) {
			return []any{t}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			out = append(out, t[k])
		}
		return out
	default:
		return nil
	}
}

// keyLess orders numeric keys numerically, then everything else lexically.
func keyLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}

func looksLikeQuestion(m map[string]any) bool {
	_, hasText := m["text"]
	_, hasQuestion := m["question"]
	return hasText || hasQuestion
}

func normalizeQuestion(item any) (Question, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return Question{}, false
	}
	text := strings.TrimSpace(anyString(firstPresent(m, "text", "question", "prompt")))
	if len([]rune(text)) < minTextRunes {
		return Question{}, false
	}

	q := Question{
		Type:   questionType(anyString(m["type"])),
		Text:   text,
		Points: pointsFromAny(m["points"]),
	}
	switch q.Type {
	case quizdomain.TypeOpenEnded:
		q.IdealAnswer = strings.TrimSpace(anyString(firstPresent(m, "idealAnswer", "ideal_answer", "answer")))
	default:
		q.Choices = choicesFromAny(firstPresent(m, "choices", "options"))
		idx := clampIndex(intFromAny(firstPresent(m, "correctIndex", "correct_index")))
		q.CorrectIndex = &idx
	}
	return q, true
}

func questionType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "open", "open-ended", "open_ended", "openended", "short-answer", "short_answer", "free-text", "text":
		return quizdomain.TypeOpenEnded
	default:
		return quizdomain.TypeMultipleChoice
	}
}

func choicesFromAny(v any) []string {
	out := make([]string, 0, quizdomain.ChoiceCount)
	if list, ok := v.([]any); ok {
		for _, c := range list {
			if len(out) == quizdomain.ChoiceCount {
				break
			}
			out = append(out, strings.TrimSpace(anyString(c)))
		}
	}
	for len(out) < quizdomain.ChoiceCount {
		out = append(out, fmt.Sprintf("Option %d", len(out)+1))
	}
	return out
}

func clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i > quizdomain.ChoiceCount-1 {
		return quizdomain.ChoiceCount - 1
	}
	return i
}

func filler(n int) Question {
	idx := 0
	return Question{
		Type:         quizdomain.TypeMultipleChoice,
		Text:         fillerTextBase + strconv.Itoa(n),
		Choices:      choicesFromAny(nil),
		CorrectIndex: &idx,
		Points:       defaultPoints,
	}
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func anyString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// intFromAny accepts only integral numbers; anything else yields 0.
func intFromAny(v any) int {
	f, ok := numberFromAny(v, false)
	if !ok || f != math.Trunc(f) {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

// pointsFromAny yields a positive integer; fractions truncate and anything below 1 becomes 1.
func pointsFromAny(v any) int {
	f, ok := numberFromAny(v, true)
	if !ok {
		return defaultPoints
	}
	f = math.Trunc(f)
	if f < 1 {
		return defaultPoints
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func numberFromAny(v any, allowString bool) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		if !allowString {
			return 0, false
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
