package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/layername/internal/fault"
	"google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
	Stats *LLMStats
}

func NewGeminiClient(ctx context.Context, apiKey, model string, stats *LLMStats) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{cli: cli, model: model, Stats: stats}, nil
}

// Complete sends the request as a single GenerateContent call. Images are
// attached as inline blobs.
func (g *GeminiClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		c := &genai.Content{Role: geminiRole(m.Role)}
		for _, p := range m.Parts {
			if len(p.Image) > 0 {
				mime := p.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				c.Parts = append(c.Parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mime, Data: p.Image}})
				continue
			}
			c.Parts = append(c.Parts, &genai.Part{Text: p.Text})
		}
		contents = append(contents, c)
	}

	sample := Sample{Failed: true}
	start := time.Now()
	defer func() {
		if g.Stats != nil {
			sample.DurationMs = time.Since(start).Milliseconds()
			g.Stats.Record(sample)
		}
	}()

	resp, err := g.cli.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response from AI model: %w", fault.ErrMalformedResponse)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return nil, fmt.Errorf("no response from AI model: %w", fault.ErrMalformedResponse)
	}

	out := &Completion{Text: sb.String(), Model: model}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
	}
	sample = Sample{PromptTokens: out.PromptTokens, CompletionTokens: out.CompletionTokens}
	return out, nil
}

func geminiRole(role string) string {
	if role == "assistant" || role == "model" {
		return "model"
	}
	return "user"
}

func (g *GeminiClient) Model() string { return g.model }

// Close is a no-op; the genai client holds no closable resources.
func (g *GeminiClient) Close() {}
