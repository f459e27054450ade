package acl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/clients"
	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

const (
	speechToTextPath = "/v1/speech-to-text"

	// fallbackSegmentWords is the size of the pseudo-turns built when the
	// provider returns text without word timings.
	fallbackSegmentWords = 20

	// fallbackWordSeconds is the nominal duration of one word in pseudo-turns.
	fallbackWordSeconds = 0.5
)

// ElevenLabsTranscriber implements ports.Transcriber with the ElevenLabs
// speech-to-text API, speaker diarization enabled.
type ElevenLabsTranscriber struct {
	BaseAdapter

	modelID      string
	languageCode string
}

// NewElevenLabsTranscriber builds the transcriber and its resilient client.
func NewElevenLabsTranscriber(svc *config.ElevenLabsConfig, cc *config.ClientConfig, logger *slog.Logger) (*ElevenLabsTranscriber, error) {
	apiKey := svc.APIKey

	client, err := clients.New(&clients.Config{
		BaseURL:     svc.BaseURL,
		ServiceName: svc.Name,
		Timeout:     cc.Timeout,
		Retry:       cc.Retry,
		Circuit:     cc.CircuitBreaker,
		Transport:   cc.Transport,
		AuthFunc: func(r *http.Request) {
			r.Header.Set("xi-api-key", apiKey)
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", svc.Name, err)
	}

	return &ElevenLabsTranscriber{
		BaseAdapter:  NewBaseAdapter(client, svc.Name),
		modelID:      svc.ModelID,
		languageCode: speechLanguage(svc.LanguageCode),
	}, nil
}

// speechLanguage maps locale codes the model does not accept onto ones it does.
func speechLanguage(code string) string {
	if strings.EqualFold(code, "hi-IN") || code == "" {
		return "en"
	}

	return code
}

type speechToTextResponse struct {
	LanguageCode string       `json:"language_code"`
	Text         string       `json:"text"`
	Words        []speechWord `json:"words"`
}

type speechWord struct {
	Text      string  `json:"text"`
	Type      string  `json:"type"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	SpeakerID string  `json:"speaker_id"`
}

// Transcribe uploads the recording and returns its diarized transcript.
func (t *ElevenLabsTranscriber) Transcribe(ctx context.Context, audioPath string) (*domain.Transcript, error) {
	const operation = "transcribe recording"

	logger := logging.Component(logging.FromContext(ctx), "acl.elevenlabs")

	body, contentType, err := t.speechForm(audioPath)
	if err != nil {
		return nil, err
	}

	logger.Debug("requesting transcription",
		slog.String("file", filepath.Base(audioPath)),
		slog.Int("bytes", len(body)),
	)

	respBody, err := t.Post(ctx, speechToTextPath, contentType, body, operation)
	if err != nil {
		return nil, err
	}

	resp, err := DecodeResponse[speechToTextResponse](respBody)
	if err != nil {
		return nil, domain.NewUnavailableError(t.ServiceName(), "malformed transcription: "+err.Error())
	}

	transcript := translateTranscript(resp)

	logger.Debug("transcription received",
		slog.Int("segments", len(transcript.Segments)),
		slog.Int("words", len(resp.Words)),
	)

	return transcript, nil
}

// speechForm encodes the recording and model options as multipart form data.
// The form is buffered so a retry can resend it.
func (t *ElevenLabsTranscriber) speechForm(audioPath string) ([]byte, string, error) {
	f, err := os.Open(audioPath) //nolint:gosec // path is generated by the upload handler
	if err != nil {
		return nil, "", fmt.Errorf("opening recording: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}

	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("reading recording: %w", err)
	}

	fields := []struct{ name, value string }{
		{"model_id", t.modelID},
		{"diarize", "true"},
		{"tag_audio_events", "true"},
		{"language_code", t.languageCode},
	}
	for _, field := range fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("writing %s: %w", field.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

// translateTranscript merges consecutive words of one speaker into a
// segment. Without word timings the text is split into fixed-size turns
// alternating between two speakers.
func translateTranscript(resp *speechToTextResponse) *domain.Transcript {
	transcript := &domain.Transcript{Text: strings.TrimSpace(resp.Text)}

	var current *domain.TranscriptSegment

	for _, w := range resp.Words {
		if w.Type == "spacing" || strings.TrimSpace(w.Text) == "" {
			continue
		}

		speaker := w.SpeakerID
		if speaker == "" {
			speaker = "speaker_0"
		}

		if current != nil && current.Speaker == speaker {
			current.Text += " " + strings.TrimSpace(w.Text)
			current.End = w.End

			continue
		}

		transcript.Segments = append(transcript.Segments, domain.TranscriptSegment{
			Speaker: speaker,
			Text:    strings.TrimSpace(w.Text),
			Start:   w.Start,
			End:     w.End,
		})
		current = &transcript.Segments[len(transcript.Segments)-1]
	}

	if len(transcript.Segments) == 0 && transcript.Text != "" {
		transcript.Segments = fallbackSegments(transcript.Text)
	}

	return transcript
}

func fallbackSegments(text string) []domain.TranscriptSegment {
	words := strings.Fields(text)
	segments := make([]domain.TranscriptSegment, 0, len(words)/fallbackSegmentWords+1)

	for i := 0; i < len(words); i += fallbackSegmentWords {
		end := min(i+fallbackSegmentWords, len(words))

		segments = append(segments, domain.TranscriptSegment{
			Speaker: fmt.Sprintf("speaker_%d", (i/fallbackSegmentWords)%2),
			Text:    strings.Join(words[i:end], " "),
			Start:   float64(i) * fallbackWordSeconds,
			End:     float64(end) * fallbackWordSeconds,
		})
	}

	return segments
}
