// Package llm talks to the completion endpoint that suggests layer names.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dgallion1/layername/internal/fault"
)

// Part is one piece of a message: text, or an image when Image is set.
type Part struct {
	Text     string
	Image    []byte
	MIMEType string
}

// Message is a role-tagged list of parts.
type Message struct {
	Role  string
	Parts []Part
}

// Request is a chat-style completion request.
type Request struct {
	Model     string
	Messages  []Message
	MaxTokens int
}

// HasImages reports whether any part carries image bytes.
func (r Request) HasImages() bool {
	for _, m := range r.Messages {
		for _, p := range m.Parts {
			if len(p.Image) > 0 {
				return true
			}
		}
	}
	return false
}

// Completion is the model's text answer plus token usage when reported.
type Completion struct {
	Text             string `json:"text"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Completer returns one text completion per request.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	Model() string
	Close()
}

// TransportError is a network failure or a non-2xx response. It matches
// fault.ErrTransport.
type TransportError struct {
	StatusCode int
	Status     string
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("completion request failed: %v", e.Err)
	}
	return fmt.Sprintf("API request failed: %s: %s", e.Status, truncate(e.Message, 200))
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == fault.ErrTransport }

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func statusError(code int, body []byte) *TransportError {
	return &TransportError{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Message:    string(body),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
