package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// CallFlag is the severity an auditor attaches to a call.
type CallFlag string

const (
	FlagNormal  CallFlag = "NORMAL"
	FlagConcern CallFlag = "CONCERN"
	FlagFatal   CallFlag = "FATAL"
)

// ParseCallFlag accepts any letter case. An empty string means NORMAL.
func ParseCallFlag(s string) (CallFlag, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return FlagNormal, nil
	}

	switch f := CallFlag(s); f {
	case FlagNormal, FlagConcern, FlagFatal:
		return f, nil
	default:
		return "", NewValidationErrorWithValue("flag",
			fmt.Sprintf("invalid flag value, must be one of %s, %s, %s", FlagNormal, FlagConcern, FlagFatal), s)
	}
}

// IsFlagged reports whether the flag marks a problem.
func (f CallFlag) IsFlagged() bool {
	return f != "" && f != FlagNormal
}

// Call is a single recorded client conversation.
type Call struct {
	ID           string
	CounsellorID string
	AuditorID    string
	ManagerID    string
	CallStart    time.Time
	CallEnd      *time.Time
	Duration     int
	CallType     string
	ClientNumber string
	RecordingURL string
	IsAudited    bool
	Flag         CallFlag
	AuditScore   float64
	Tags         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewCall describes an uploaded recording before it is attributed to staff.
type NewCall struct {
	CounsellorID string
	CallStart    time.Time
	CallEnd      *time.Time
	Duration     int
	CallType     string
	ClientNumber string
	Tags         string
}

// Validate checks the fields a call cannot be stored without.
func (n NewCall) Validate() error {
	if n.CounsellorID == "" {
		return NewValidationError("counsellor_id", "is required")
	}

	if n.ClientNumber == "" {
		return NewValidationError("client_number", "is required")
	}

	if n.CallStart.IsZero() {
		return NewValidationError("call_start", "is required")
	}

	if n.CallEnd != nil && n.CallEnd.Before(n.CallStart) {
		return NewValidationError("call_end", "must not be before call_start")
	}

	if n.Duration < 0 {
		return NewValidationErrorWithValue("duration", "must not be negative", n.Duration)
	}

	return nil
}

// CallAnalysis is the AI assessment of one call.
type CallAnalysis struct {
	ID             string
	CallID         string
	SentimentScore float64
	Transcript     string
	Summary        string
	Anomalies      string
	Keywords       string
	AIConfidence   float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TranscriptSegment is one speaker turn of a transcription.
type TranscriptSegment struct {
	Speaker string
	Text    string
	Start   float64
	End     float64
}

// Transcript is the speech-to-text output for a recording.
type Transcript struct {
	Text     string
	Segments []TranscriptSegment
}

// Dialogue renders the segments as "speaker: text" lines.
func (t *Transcript) Dialogue() string {
	lines := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		lines = append(lines, seg.Speaker+": "+seg.Text)
	}

	return strings.Join(lines, "\n")
}

// Sentiment is the coarse polarity of a conversation.
type Sentiment int

const (
	SentimentNegative Sentiment = -1
	SentimentNeutral  Sentiment = 0
	SentimentPositive Sentiment = 1
)

// ParseSentiment reads a model reply; anything but -1, 0 or 1 is neutral.
func ParseSentiment(s string) Sentiment {
	switch strings.TrimSpace(s) {
	case "-1":
		return SentimentNegative
	case "1", "+1":
		return SentimentPositive
	default:
		return SentimentNeutral
	}
}

// TokenUsage is the token accounting reported by the language model.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// DefaultConfidence is used when the model reports no usage.
const DefaultConfidence = 0.5

// Confidence derives a 0..1 score from the share of completion tokens,
// rounded to two decimals.
func (u TokenUsage) Confidence() float64 {
	if u.TotalTokens <= 0 {
		return DefaultConfidence
	}

	c := 1 - float64(u.PromptTokens)/float64(u.TotalTokens)

	return float64(int(c*100+0.5)) / 100
}

// ConversationInsights is what the language model extracts from a transcript.
type ConversationInsights struct {
	Analysis   string
	Summary    string
	Sentiment  Sentiment
	Anomalies  string
	Keywords   []string
	Confidence float64
}

// ToAnalysis assembles the stored analysis row for a call.
func (ci *ConversationInsights) ToAnalysis(callID string, transcript *Transcript) *CallAnalysis {
	return &CallAnalysis{
		CallID:         callID,
		SentimentScore: float64(ci.Sentiment),
		Transcript:     transcript.Dialogue(),
		Summary:        ci.Summary,
		Anomalies:      ci.Anomalies,
		Keywords:       strings.Join(ci.Keywords, ", "),
		AIConfidence:   ci.Confidence,
	}
}

// RecordingUploaded announces a stored call whose recording awaits processing.
type RecordingUploaded struct {
	CallID    string `json:"call_id"`
	AudioPath string `json:"audio_path"`
}

// StorageKey is the object key the recording is stored under.
func (e RecordingUploaded) StorageKey(id string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(e.AudioPath)), ".")
	if ext == "" {
		ext = "mp3"
	}

	return "audio/" + id + "." + ext
}
