package uichannel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(ch <-chan Message) []Type {
	var out []Type
	for m := range ch {
		out = append(out, m.Type)
	}
	return out
}

func TestHub_ReplayAndStream(t *testing.T) {
	h := NewHub()
	h.Publish(Message{Type: TypeLayerCount, RunID: "r1", Count: 4})

	ch, cancel := h.Subscribe("r1")
	defer cancel()

	h.Publish(Message{Type: TypeProgress, RunID: "r1", Current: 1, Total: 1})
	h.Publish(Message{Type: TypeComplete, RunID: "r1"})
	h.Publish(Message{Type: TypeWarning, RunID: "r1"}) // after terminal, dropped

	assert.Equal(t, []Type{TypeLayerCount, TypeProgress, TypeComplete}, drain(ch))
	assert.Len(t, h.History("r1"), 3)
}

func TestHub_SubscribeAfterTerminal(t *testing.T) {
	h := NewHub()
	h.Publish(Message{Type: TypeError, RunID: "r2", Message: "boom"})

	ch, cancel := h.Subscribe("r2")
	defer cancel()
	assert.Equal(t, []Type{TypeError}, drain(ch))
}

func TestHub_RunsAreIsolated(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe("a")
	defer cancelA()

	h.Publish(Message{Type: TypeProgress, RunID: "b"})
	h.Publish(Message{Type: TypeComplete, RunID: "a"})

	assert.Equal(t, []Type{TypeComplete}, drain(a))
}

func TestHub_CancelAndForget(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("r")
	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	ch2, _ := h.Subscribe("r")
	h.Forget("r")
	_, open = <-ch2
	assert.False(t, open)
	assert.Nil(t, h.History("r"))
}

func TestHub_StampsTime(t *testing.T) {
	h := NewHub()
	h.Publish(Message{Type: TypeInit, RunID: "r"})
	hist := h.History("r")
	require.Len(t, hist, 1)
	assert.False(t, hist[0].At.IsZero())
}
