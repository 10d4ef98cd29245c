package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/layername/internal/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterClient_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"model":"m-1","choices":[{"message":{"content":"1. Header"}}],"usage":{"prompt_tokens":12,"completion_tokens":3}}`)
	}))
	defer srv.Close()

	stats := NewLLMStats(time.Hour)
	c := NewOpenRouterClient("secret", srv.URL+"/", "default-model", stats)
	defer c.Close()

	out, err := c.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Parts: []Part{{Text: "hello"}}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "1. Header", out.Text)
	assert.Equal(t, "m-1", out.Model)
	assert.Equal(t, 12, out.PromptTokens)
	assert.Equal(t, 3, out.CompletionTokens)

	assert.Equal(t, "default-model", got["model"])
	msgs := got["messages"].([]any)
	assert.Equal(t, "hello", msgs[0].(map[string]any)["content"])

	snap := stats.Snapshot()
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, 0, snap.Failures)
	assert.Equal(t, 12, snap.PromptTokens)
}

func TestOpenRouterClient_ImageParts(t *testing.T) {
	var got struct {
		Messages []struct {
			Content []map[string]any `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	c := NewOpenRouterClient("k", srv.URL, "m", nil)
	_, err := c.Complete(context.Background(), Request{Messages: []Message{{
		Role:  "user",
		Parts: []Part{{Text: "look"}, {Image: []byte("png")}},
	}}})
	require.NoError(t, err)

	require.Len(t, got.Messages, 1)
	parts := got.Messages[0].Content
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0]["type"])
	assert.Equal(t, "image_url", parts[1]["type"])
	url := parts[1]["image_url"].(map[string]any)["url"].(string)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}

func TestOpenRouterClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"bad key"}}`)
	}))
	defer srv.Close()

	stats := NewLLMStats(time.Hour)
	c := NewOpenRouterClient("k", srv.URL, "m", stats)
	_, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Parts: []Part{{Text: "x"}}}}})
	require.Error(t, err)

	assert.ErrorIs(t, err, fault.ErrTransport)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.Contains(t, err.Error(), "401 Unauthorized")
	assert.Contains(t, err.Error(), "bad key")
	assert.Equal(t, 1, stats.Snapshot().Failures)
}

func TestOpenRouterClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewOpenRouterClient("k", url, "m", nil)
	_, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Parts: []Part{{Text: "x"}}}}})
	assert.ErrorIs(t, err, fault.ErrTransport)
	assert.True(t, IsTransport(err))
}

func TestOpenRouterClient_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":   `<html>oops</html>`,
		"no choices": `{"choices":[]}`,
		"empty text": `{"choices":[{"message":{"content":"  "}}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			}))
			defer srv.Close()

			c := NewOpenRouterClient("k", srv.URL, "m", nil)
			_, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Parts: []Part{{Text: "x"}}}}})
			assert.ErrorIs(t, err, fault.ErrMalformedResponse)
			assert.False(t, IsTransport(err))
		})
	}
}

func TestOpen(t *testing.T) {
	_, err := Open(context.Background(), Options{Provider: ProviderOpenRouter})
	assert.Error(t, err)

	c, err := Open(context.Background(), Options{Provider: "", APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "m", c.Model())
	c.Close()

	_, err = Open(context.Background(), Options{Provider: "carrier-pigeon", APIKey: "k"})
	assert.Error(t, err)
}
