package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

var (
	engine     *Engine
	engineOnce sync.Once
)

// Engine owns the process-wide PortAudio runtime. It is created lazily, shared
// by all playback, and lives until Shutdown at application exit.
type Engine struct {
	mu      sync.Mutex
	started bool
}

// DefaultEngine returns the shared engine instance.
func DefaultEngine() *Engine {
	engineOnce.Do(func() {
		engine = &Engine{}
	})
	return engine
}

// EnsureStarted initializes PortAudio once. Safe to call repeatedly.
func (e *Engine) EnsureStarted() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize audio engine: %w", err)
	}
	e.started = true
	return nil
}

// Shutdown terminates PortAudio if it was started.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil
	}
	e.started = false
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate audio engine: %w", err)
	}
	return nil
}
