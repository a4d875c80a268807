package ports

import (
	"context"
	"errors"
	"io"

	"kittydesk/internal/domain"
)

// ErrTransport marks network-level failures: the request never reached the
// service, or the service answered with a non-2xx status.
var ErrTransport = errors.New("network error or backend unreachable")

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	Command     string
	InputFormat string
	InputDevice string
	SampleRate  int
	Channels    int
}

// CaptureSession is a live microphone capture stream. Reads return encoded
// container bytes; Stop signals the recorder to finish, after which reads
// drain the remaining bytes and end with io.EOF.
type CaptureSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (CaptureSession, error)
}

// Playback is a handle to sounding audio. Stop halts it immediately and
// suppresses its completion callback.
type Playback interface {
	Stop()
}

// PlaybackDevice decodes an audio payload and starts playing it. onDone is
// invoked exactly once if playback runs to its natural end, and never after
// Stop.
type PlaybackDevice interface {
	Play(data []byte, mimeType string, onDone func()) (Playback, error)
}

// Player is the single-handle playback controller the coordinator drives.
type Player interface {
	Play(base64Data string, mimeType string)
	StopCurrent()
}

// TextRequest is an outbound text chat message.
type TextRequest struct {
	Username      string
	Message       string
	Mode          domain.InteractionMode
	IsInitialLoad bool
}

// AudioRequest is an outbound recorded-audio chat message.
type AudioRequest struct {
	Username string
	Audio    []byte
	Mode     domain.InteractionMode
}

// ChatService is the remote Kitty backend. Application-level failures
// (success:false) come back as a reply, not an error; errors wrapping
// ErrTransport mean the exchange itself failed.
type ChatService interface {
	Login(ctx context.Context, name string) (string, error)
	SendText(ctx context.Context, req TextRequest) (domain.ChatReply, error)
	SendAudio(ctx context.Context, req AudioRequest) (domain.ChatReply, error)
	Reset(ctx context.Context, username string) error
}

// SessionVault persists the logged-in username across application restarts.
type SessionVault interface {
	Load() (string, error)
	Store(username string) error
	Clear() error
}

// ChatLog records completed conversation turns for later inspection.
type ChatLog interface {
	Append(username string, entry domain.TranscriptEntry) error
}

// EventSink emits coordinator state and events to the UI.
type EventSink interface {
	PageChanged(page domain.Page, username string)
	ModeChanged(mode domain.InteractionMode)
	ActivationChanged(active bool, banner string)
	AffordancesChanged(a domain.Affordances)
	TranscriptAppended(entry domain.TranscriptEntry)
	TranscriptUpdated(index int, entry domain.TranscriptEntry)
	TranscriptCleared()
	SessionError(code domain.ErrorCode, detail string)
	Alert(message string)
}
