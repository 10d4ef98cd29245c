package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/layername/internal/fault"
)

// DefaultOpenRouterURL is the chat completions base URL used when none is set.
const DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

// OpenRouterClient calls an OpenAI-compatible chat completions endpoint.
type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	Stats      *LLMStats
}

func NewOpenRouterClient(apiKey, baseURL, model string, stats *LLMStats) *OpenRouterClient {
	if baseURL == "" {
		baseURL = DefaultOpenRouterURL
	}
	return &OpenRouterClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		Stats: stats,
	}
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one chat completion request.
func (c *OpenRouterClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	body, err := json.Marshal(chatRequest{
		Model:     model,
		MaxTokens: req.MaxTokens,
		Messages:  toChatMessages(req.Messages),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	sample := Sample{Failed: true}
	start := time.Now()
	defer func() {
		if c.Stats != nil {
			sample.DurationMs = time.Since(start).Milliseconds()
			c.Stats.Record(sample)
		}
	}()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, respBody)
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %v (raw: %s): %w", err, truncate(string(respBody), 200), fault.ErrMalformedResponse)
	}
	if apiResp.Error != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Status: fmt.Sprint(apiResp.Error.Code), Message: apiResp.Error.Message}
	}
	if len(apiResp.Choices) == 0 || strings.TrimSpace(apiResp.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("no response from AI model: %w", fault.ErrMalformedResponse)
	}

	out := &Completion{
		Text:  apiResp.Choices[0].Message.Content,
		Model: apiResp.Model,
	}
	if out.Model == "" {
		out.Model = model
	}
	if apiResp.Usage != nil {
		out.PromptTokens = apiResp.Usage.PromptTokens
		out.CompletionTokens = apiResp.Usage.CompletionTokens
	}
	sample = Sample{PromptTokens: out.PromptTokens, CompletionTokens: out.CompletionTokens}
	return out, nil
}

// Text-only messages are sent as a plain string; anything with an image uses
// the content-part array form.
func toChatMessages(msgs []Message) []chatMessage {
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		if len(m.Parts) == 1 && len(m.Parts[0].Image) == 0 {
			out = append(out, chatMessage{Role: m.Role, Content: m.Parts[0].Text})
			continue
		}
		parts := make([]chatContentPart, 0, len(m.Parts))
		for _, p := range m.Parts {
			if len(p.Image) == 0 {
				parts = append(parts, chatContentPart{Type: "text", Text: p.Text})
				continue
			}
			mime := p.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			parts = append(parts, chatContentPart{
				Type:     "image_url",
				ImageURL: &chatImageURL{URL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Image)},
			})
		}
		out = append(out, chatMessage{Role: m.Role, Content: parts})
	}
	return out
}

// Model returns the default model identifier.
func (c *OpenRouterClient) Model() string {
	return c.model
}

// Close releases resources.
func (c *OpenRouterClient) Close() {
	c.httpClient.CloseIdleConnections()
}
