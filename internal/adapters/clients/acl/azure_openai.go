package acl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/clients"
	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

const (
	analysisSystemPrompt = "You are an expert conversation analyst. Analyze the provided conversation transcript and provide " +
		"comprehensive insights including: 1. Overall conversation summary 2. Key topics discussed 3. Emotional " +
		"journey and tone changes 4. Communication patterns 5. Conflict resolution or tension points 6. " +
		"Decision-making moments 7. Relationship dynamics 8. Important insights and recommendations"

	summarySystemPrompt = "Create a concise but comprehensive summary of this conversation including: " +
		"1. Main topics discussed 2. Key decisions made 3. Action items or next steps " +
		"4. Overall tone and outcome 5. Important quotes or statements"

	sentimentSystemPrompt = "You are a call center sentiment analysis model."

	sentimentInstructions = "Analyze the following conversation and return only one number as output:\n" +
		"- Return 1 if the customer's overall sentiment is positive (interested, happy, satisfied)\n" +
		"- Return 0 if the customer's sentiment is neutral (uncertain, general inquiry)\n" +
		"- Return -1 if the customer sounds negative (angry, upset, disinterested)\n" +
		"Do not explain. Just return one of these numbers: 1, 0, or -1.\n"

	anomaliesSystemPrompt = "You are a conversation anomaly detector. " +
		"Identify emotional triggers or anomalies in this transcript:\n" +
		"- Conflict points\n- Sudden tone shifts\n- Confusion or contradiction"

	keywordsSystemPrompt = "You extract keywords from customer transcripts. " +
		"Extract 5 to 10 keywords from this transcript (comma-separated):"
)

// completionSpec fixes the budget of one prompt.
type completionSpec struct {
	name        string
	maxTokens   int
	temperature float64
}

var (
	analysisSpec  = completionSpec{name: "analysis", maxTokens: 1500, temperature: 0.3}
	summarySpec   = completionSpec{name: "summary", maxTokens: 800, temperature: 0.3}
	sentimentSpec = completionSpec{name: "sentiment", maxTokens: 5, temperature: 0}
	anomaliesSpec = completionSpec{name: "anomalies", maxTokens: 500, temperature: 0.3}
	keywordsSpec  = completionSpec{name: "keywords", maxTokens: 50, temperature: 0.3}
)

// AzureOpenAIAnalyzer implements ports.ConversationAnalyzer with Azure
// OpenAI chat completions.
type AzureOpenAIAnalyzer struct {
	BaseAdapter

	completionsPath string
}

// NewAzureOpenAIAnalyzer builds the analyzer and its resilient client.
func NewAzureOpenAIAnalyzer(svc *config.AzureOpenAIConfig, cc *config.ClientConfig, logger *slog.Logger) (*AzureOpenAIAnalyzer, error) {
	apiKey := svc.APIKey

	client, err := clients.New(&clients.Config{
		BaseURL:     svc.Endpoint,
		ServiceName: svc.Name,
		Timeout:     cc.Timeout,
		Retry:       cc.Retry,
		Circuit:     cc.CircuitBreaker,
		Transport:   cc.Transport,
		AuthFunc: func(r *http.Request) {
			r.Header.Set("api-key", apiKey)
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", svc.Name, err)
	}

	return &AzureOpenAIAnalyzer{
		BaseAdapter: NewBaseAdapter(client, svc.Name),
		completionsPath: fmt.Sprintf("/openai/deployments/%s/chat/completions?api-version=%s",
			url.PathEscape(svc.Deployment), url.QueryEscape(svc.APIVersion)),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Analyze runs the detailed analysis first, then summary, sentiment,
// anomalies and keywords concurrently. Any failed prompt fails the call.
func (a *AzureOpenAIAnalyzer) Analyze(ctx context.Context, transcript *domain.Transcript) (*domain.ConversationInsights, error) {
	logger := logging.Component(logging.FromContext(ctx), "acl.azure_openai")
	dialogue := transcript.Dialogue()

	analysis, usage, err := a.complete(ctx, analysisSpec, analysisSystemPrompt,
		"Transcript:\n"+dialogue+"\nSpeaker Info:\n"+speakerInfo(transcript.Segments))
	if err != nil {
		return nil, err
	}

	insights := &domain.ConversationInsights{
		Analysis:   analysis,
		Confidence: usage.Confidence(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, _, err := a.complete(gctx, summarySpec, summarySystemPrompt, "Summarize this conversation:\n"+dialogue)
		insights.Summary = summary

		return err
	})

	g.Go(func() error {
		reply, _, err := a.complete(gctx, sentimentSpec, sentimentSystemPrompt, sentimentInstructions+"Transcript:\n"+dialogue)
		insights.Sentiment = domain.ParseSentiment(reply)

		return err
	})

	g.Go(func() error {
		anomalies, _, err := a.complete(gctx, anomaliesSpec, anomaliesSystemPrompt, dialogue)
		insights.Anomalies = anomalies

		return err
	})

	g.Go(func() error {
		reply, _, err := a.complete(gctx, keywordsSpec, keywordsSystemPrompt, dialogue)
		insights.Keywords = parseKeywords(reply)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("conversation analyzed",
		slog.Int("sentiment", int(insights.Sentiment)),
		slog.Int("keywords", len(insights.Keywords)),
		slog.Float64("confidence", insights.Confidence),
	)

	return insights, nil
}

// complete sends one system+user prompt and returns the trimmed reply.
func (a *AzureOpenAIAnalyzer) complete(ctx context.Context, spec completionSpec, system, user string) (string, domain.TokenUsage, error) {
	operation := spec.name + " completion"

	body, err := a.PostJSON(ctx, a.completionsPath, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   spec.maxTokens,
		Temperature: spec.temperature,
	}, operation)
	if err != nil {
		return "", domain.TokenUsage{}, err
	}

	resp, err := DecodeResponse[chatResponse](body)
	if err != nil {
		return "", domain.TokenUsage{}, domain.NewUnavailableError(a.ServiceName(), "malformed "+operation+": "+err.Error())
	}

	if len(resp.Choices) == 0 {
		return "", domain.TokenUsage{}, domain.NewUnavailableError(a.ServiceName(), operation+" returned no choices")
	}

	var usage domain.TokenUsage
	if resp.Usage != nil {
		usage = domain.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), usage, nil
}

// parseKeywords splits a comma-separated reply, dropping empty items.
func parseKeywords(reply string) []string {
	parts := strings.Split(reply, ",")
	keywords := make([]string, 0, len(parts))

	for _, p := range parts {
		if kw := strings.TrimSpace(p); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	return keywords
}

// speakerInfo summarizes each speaker's word count and speaking time.
func speakerInfo(segments []domain.TranscriptSegment) string {
	type stats struct {
		words   int
		seconds float64
	}

	bySpeaker := make(map[string]*stats)
	for _, seg := range segments {
		s, ok := bySpeaker[seg.Speaker]
		if !ok {
			s = &stats{}
			bySpeaker[seg.Speaker] = s
		}

		s.words += len(strings.Fields(seg.Text))
		if seg.End > seg.Start {
			s.seconds += seg.End - seg.Start
		}
	}

	speakers := make([]string, 0, len(bySpeaker))
	for name := range bySpeaker {
		speakers = append(speakers, name)
	}
	sort.Strings(speakers)

	var b strings.Builder
	for _, name := range speakers {
		s := bySpeaker[name]
		fmt.Fprintf(&b, "Speaker %s:\n  - Total words: %d\n  - Speaking time: %.2f seconds\n", name, s.words, s.seconds)
	}

	return b.String()
}
