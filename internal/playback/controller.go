// Package playback owns the single live assistant-audio handle.
package playback

import (
	"encoding/base64"
	"log/slog"
	"sync"

	"kittydesk/internal/ports"
)

// Controller guarantees at most one playback is alive at any time: every Play
// retires the previous handle before a new one starts. It implements
// ports.Player.
type Controller struct {
	device ports.PlaybackDevice

	mu         sync.Mutex
	current    ports.Playback
	generation uint64
}

func NewController(device ports.PlaybackDevice) *Controller {
	return &Controller{device: device}
}

// Play preempts any playback that is still sounding, then decodes the base64
// payload and starts it. Preemption happens before the payload is even looked
// at, so a malformed payload still silences the previous reply. Failures are
// best-effort: they are logged and the reply simply stays silent.
func (c *Controller) Play(base64Data string, mimeType string) {
	if base64Data == "" {
		slog.Warn("playback requested with empty payload")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.current.Stop()
		c.current = nil
	}

	data, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		slog.Error("failed to decode audio payload", "error", err)
		return
	}

	c.generation++
	gen := c.generation
	handle, err := c.device.Play(data, mimeType, func() {
		c.finished(gen)
	})
	if err != nil {
		slog.Error("failed to start playback", "error", err)
		return
	}
	c.current = handle
}

// StopCurrent halts the live playback, if any. Synchronous and idempotent.
func (c *Controller) StopCurrent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.Stop()
		c.current = nil
	}
}

// finished handles natural end of playback. A stale notification, one whose
// generation no longer matches, must not clear the handle a newer Play owns.
func (c *Controller) finished(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == gen {
		c.current = nil
	}
}
