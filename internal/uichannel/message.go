// Package uichannel carries tagged progress messages from a renaming run to
// whatever surface is watching it.
package uichannel

import "time"

// Type tags a message.
type Type string

const (
	TypeInit            Type = "init"
	TypeSelectionUpdate Type = "selectionUpdate"
	TypeLayerCount      Type = "layerCount"
	TypeProgress        Type = "progress"
	TypeComplete        Type = "complete"
	TypeError           Type = "error"
	TypeWarning         Type = "warning"
	TypeTokenInfo       Type = "tokenInfo"
	TypeContext         Type = "context"
	TypeSettingsLoaded  Type = "settingsLoaded"
)

// Terminal reports whether no further messages follow t for a run.
func (t Type) Terminal() bool {
	return t == TypeComplete || t == TypeError
}

// Message is one tagged payload. Only the fields relevant to Type are set.
type Message struct {
	Type  Type      `json:"type"`
	RunID string    `json:"runId,omitempty"`
	At    time.Time `json:"at"`

	LayerCount    int `json:"layerCount,omitempty"`
	SelectedCount int `json:"selectedCount,omitempty"`
	TotalCount    int `json:"totalCount,omitempty"`
	Count         int `json:"count,omitempty"`
	Current       int `json:"current,omitempty"`
	Total         int `json:"total,omitempty"`

	Message     string   `json:"message,omitempty"`
	Code        string   `json:"code,omitempty"`
	UnusedNames []string `json:"unusedNames,omitempty"`
	Renamed     int      `json:"renamed,omitempty"`

	PromptTokens     int    `json:"promptTokens,omitempty"`
	CompletionTokens int    `json:"completionTokens,omitempty"`
	Model            string `json:"model,omitempty"`
	VisionModel      string `json:"visionModel,omitempty"`
	Context          string `json:"context,omitempty"`
	HasAPIKey        bool   `json:"hasApiKey,omitempty"`
}

// Sink receives messages.
type Sink interface {
	Publish(msg Message)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Message)

func (f SinkFunc) Publish(msg Message) { f(msg) }
