// Package history appends completed conversation turns to a local JSONL log.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"kittydesk/internal/domain"
)

// Record is one logged conversation line.
type Record struct {
	Timestamp time.Time      `json:"timestamp"`
	Username  string         `json:"username"`
	Speaker   domain.Speaker `json:"speaker"`
	Text      string         `json:"text"`
}

// Logger implements ports.ChatLog over an append-only JSONL file.
type Logger struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewLogger(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// Append writes one entry. The log directory is created on first use.
func (l *Logger) Append(username string, entry domain.TranscriptEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create chat log directory: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open chat log: %w", err)
	}
	defer file.Close()

	line, err := json.Marshal(Record{
		Timestamp: l.now().UTC(),
		Username:  username,
		Speaker:   entry.Speaker,
		Text:      entry.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to encode chat log record: %w", err)
	}

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write chat log record: %w", err)
	}
	return nil
}
