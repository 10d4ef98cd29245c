package pipeline

import (
	"errors"
	"sync"
	"time"
)

// TransportCooldown is how long a document rejects new runs after a transport
// failure. Failed requests are never retried automatically.
const TransportCooldown = 5 * time.Second

var ErrCoolingDown = errors.New("document is cooling down after a transport failure")

// Cooldown tracks per-document cooldown deadlines.
type Cooldown struct {
	mu    sync.Mutex
	until map[string]time.Time
	d     time.Duration
	now   func() time.Time
}

func NewCooldown(d time.Duration) *Cooldown {
	if d <= 0 {
		d = TransportCooldown
	}
	return &Cooldown{until: make(map[string]time.Time), d: d, now: time.Now}
}

// Start begins a cooldown for key.
func (c *Cooldown) Start(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.until[key] = c.now().Add(c.d)
}

// Remaining returns how long key is still cooling down, or zero.
func (c *Cooldown) Remaining(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.until[key]
	if !ok {
		return 0
	}
	left := until.Sub(c.now())
	if left <= 0 {
		delete(c.until, key)
		return 0
	}
	return left
}
