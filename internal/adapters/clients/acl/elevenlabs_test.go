package acl

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
)

func testClientConfig() *config.ClientConfig {
	return &config.ClientConfig{
		Timeout: 5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     2,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
	}
}

func writeRecording(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "0f8c.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3-fake-audio"), 0o600))

	return path
}

func newTestTranscriber(t *testing.T, baseURL string) *ElevenLabsTranscriber {
	t.Helper()

	tr, err := NewElevenLabsTranscriber(&config.ElevenLabsConfig{
		Name:         "elevenlabs",
		BaseURL:      baseURL,
		APIKey:       "xi-test",
		ModelID:      "scribe_v1",
		LanguageCode: "hi-IN",
	}, testClientConfig(), nil)
	require.NoError(t, err)

	return tr
}

func TestElevenLabsTranscriber_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/speech-to-text", r.URL.Path)
		assert.Equal(t, "xi-test", r.Header.Get("xi-api-key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "scribe_v1", r.FormValue("model_id"))
		assert.Equal(t, "true", r.FormValue("diarize"))
		assert.Equal(t, "true", r.FormValue("tag_audio_events"))
		assert.Equal(t, "en", r.FormValue("language_code"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "0f8c.mp3", header.Filename)
		assert.Equal(t, "ID3-fake-audio", string(content))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"language_code": "en",
			"text": "Hello there. Hi, I want a course.",
			"words": [
				{"text": "Hello", "type": "word", "start": 0.0, "end": 0.4, "speaker_id": "speaker_0"},
				{"text": " ", "type": "spacing", "start": 0.4, "end": 0.5, "speaker_id": "speaker_0"},
				{"text": "there.", "type": "word", "start": 0.5, "end": 0.9, "speaker_id": "speaker_0"},
				{"text": "Hi,", "type": "word", "start": 1.2, "end": 1.4, "speaker_id": "speaker_1"},
				{"text": "(laughs)", "type": "audio_event", "start": 1.4, "end": 1.6, "speaker_id": "speaker_1"},
				{"text": "course.", "type": "word", "start": 1.6, "end": 2.0, "speaker_id": "speaker_1"},
				{"text": "Great", "type": "word", "start": 2.2, "end": 2.5, "speaker_id": "speaker_0"}
			]
		}`))
	}))
	defer server.Close()

	tr := newTestTranscriber(t, server.URL)

	transcript, err := tr.Transcribe(context.Background(), writeRecording(t))
	require.NoError(t, err)

	assert.Equal(t, "Hello there. Hi, I want a course.", transcript.Text)
	require.Len(t, transcript.Segments, 3)
	assert.Equal(t, domain.TranscriptSegment{Speaker: "speaker_0", Text: "Hello there.", Start: 0, End: 0.9}, transcript.Segments[0])
	assert.Equal(t, domain.TranscriptSegment{Speaker: "speaker_1", Text: "Hi, (laughs) course.", Start: 1.2, End: 2.0}, transcript.Segments[1])
	assert.Equal(t, "speaker_0", transcript.Segments[2].Speaker)
}

func TestElevenLabsTranscriber_RetriesWithFullForm(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "scribe_v1", r.FormValue("model_id"))

		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer server.Close()

	transcript, err := newTestTranscriber(t, server.URL).Transcribe(context.Background(), writeRecording(t))
	require.NoError(t, err)

	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, "ok", transcript.Text)
}

func TestElevenLabsTranscriber_ProviderRejectsFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":{"status":"invalid_audio","message":"Audio could not be decoded"}}`))
	}))
	defer server.Close()

	_, err := newTestTranscriber(t, server.URL).Transcribe(context.Background(), writeRecording(t))

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "Audio could not be decoded")
}

func TestElevenLabsTranscriber_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	_, err := newTestTranscriber(t, server.URL).Transcribe(context.Background(), writeRecording(t))

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
}

func TestElevenLabsTranscriber_MissingFile(t *testing.T) {
	tr := newTestTranscriber(t, "http://127.0.0.1:1")

	_, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "gone.mp3"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening recording")
}

func TestTranslateTranscript_FallbackSegments(t *testing.T) {
	words := make([]string, 45)
	for i := range words {
		words[i] = "w"
	}

	transcript := translateTranscript(&speechToTextResponse{Text: strings.Join(words, " ")})

	require.Len(t, transcript.Segments, 3)
	assert.Equal(t, "speaker_0", transcript.Segments[0].Speaker)
	assert.Equal(t, "speaker_1", transcript.Segments[1].Speaker)
	assert.Equal(t, "speaker_0", transcript.Segments[2].Speaker)
	assert.Len(t, strings.Fields(transcript.Segments[2].Text), 5)
	assert.InDelta(t, 10.0, transcript.Segments[1].Start, 0.001)
	assert.InDelta(t, 22.5, transcript.Segments[2].End, 0.001)
}

func TestTranslateTranscript_Empty(t *testing.T) {
	transcript := translateTranscript(&speechToTextResponse{})

	assert.Empty(t, transcript.Segments)
	assert.Empty(t, transcript.Dialogue())
}

func TestSpeechLanguage(t *testing.T) {
	assert.Equal(t, "en", speechLanguage("hi-IN"))
	assert.Equal(t, "en", speechLanguage(""))
	assert.Equal(t, "es", speechLanguage("es"))
}
