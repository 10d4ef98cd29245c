// Package settings remembers credentials and model choices between runs.
package settings

import (
	"context"
	"sync"
)

// Known keys.
const (
	KeyAPIKey      = "api_key"
	KeyProvider    = "provider"
	KeyModel       = "model"
	KeyVisionModel = "vision_model"
	KeyContext     = "context"
)

// Keys lists the keys the service reads and accepts.
var Keys = []string{KeyAPIKey, KeyProvider, KeyModel, KeyVisionModel, KeyContext}

// IsKnown reports whether key is one of Keys.
func IsKnown(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Store is a persistent string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
	Close() error
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	vals map[string]string
}

func NewMemory() *Memory {
	return &Memory{vals: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = value
	return nil
}

func (m *Memory) All(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.vals))
	for k, v := range m.vals {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

// Redacted returns a copy of vals with the API key masked, for display.
func Redacted(vals map[string]string) map[string]string {
	out := make(map[string]string, len(vals))
	for k, v := range vals {
		if k == KeyAPIKey && v != "" {
			if len(v) > 8 {
				v = v[:4] + "…" + v[len(v)-4:]
			} else {
				v = "…"
			}
		}
		out[k] = v
	}
	return out
}
