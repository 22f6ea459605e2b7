package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server) Client {
	t.Helper()
	c, err := NewClient(logger.Nop(), Config{
		APIKey:     "sk-test",
		BaseURL:    srv.URL,
		Model:      "gpt-4o-mini",
		STTModel:   "whisper-1",
		TTSModel:   "tts-1",
		TTSVoice:   "alloy",
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	})
	require.NoError(t, err)
	return c
}

func assistantReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"output": []any{map[string]any{
			"type": "message",
			"role": "assistant",
			"content": []any{map[string]any{"type": "output_text", "text": text}},
		}},
	})
	return string(b)
}

func TestGenerateJSONObjectSendsJSONFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		format := body["text"].(map[string]any)["format"].(map[string]any)
		assert.Equal(t, "json_object", format["type"])
		_, _ = io.WriteString(w, assistantReply(`{"title":"x"}`))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv).GenerateJSONObject(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"x"}`, out)
}

func TestGenerateTextRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, assistantReply("a summary"))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv).GenerateText(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "a summary", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGenerateTextDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"bad"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).GenerateText(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai http 400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTranscribeUploadsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "answer.webm", hdr.Filename)
		_, _ = io.WriteString(w, `{"text":"  photosynthesis makes sugar  "}`)
	}))
	defer srv.Close()

	text, err := newTestClient(t, srv).Transcribe(context.Background(), []byte("RIFF"), "answer.webm")
	require.NoError(t, err)
	assert.Equal(t, "photosynthesis makes sugar", text)
}

func TestSynthesizeReturnsAudioBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		var body speechRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mp3", body.ResponseFormat)
		assert.Equal(t, "hello", body.Input)
		_, _ = w.Write([]byte{0x49, 0x44, 0x33})
	}))
	defer srv.Close()

	audio, err := newTestClient(t, srv).Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x49, 0x44, 0x33}, audio)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(logger.Nop(), Config{})
	require.Error(t, err)
}
