package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"kittydesk/internal/domain"
	"kittydesk/internal/ports"
)

var (
	ErrEmptyName         = errors.New("name must not be empty")
	ErrEmptyMessage      = errors.New("message must not be empty")
	ErrNotLoggedIn       = errors.New("no user is logged in")
	ErrAlreadyRecording  = errors.New("a recording is already in progress")
	ErrNoActiveRecording = errors.New("no active recording")
)

// Config controls coordinator behavior.
type Config struct {
	Audio     ports.AudioConfig
	ChunkSize int
}

// ChatController coordinates session, mode, capture, playback, and dispatch
// state. All mutable state lives behind mu; asynchronous completions re-enter
// through methods that take the same lock, so no two mutations interleave.
type ChatController struct {
	api     ports.ChatService
	vault   ports.SessionVault
	capture ports.AudioCapture
	player  ports.Player
	chatLog ports.ChatLog
	events  ports.EventSink
	cfg     Config

	mu            sync.Mutex
	user          string
	mode          domain.InteractionMode
	activated     bool
	draftNonEmpty bool
	recording     *recordingSession
	transcript    []domain.TranscriptEntry
}

func NewChatController(
	api ports.ChatService,
	vault ports.SessionVault,
	capture ports.AudioCapture,
	player ports.Player,
	chatLog ports.ChatLog,
	events ports.EventSink,
	cfg Config,
) *ChatController {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	return &ChatController{
		api:     api,
		vault:   vault,
		capture: capture,
		player:  player,
		chatLog: chatLog,
		events:  events,
		cfg:     cfg,
		mode:    domain.ModeVoice,
	}
}

// Startup restores a persisted session if one exists. A restored user lands
// directly on the chat page and an initial-load dispatch syncs activation
// state; otherwise the login page is shown.
func (c *ChatController) Startup(ctx context.Context) {
	username, err := c.vault.Load()
	if err != nil {
		slog.Warn("failed to load persisted session", "error", err)
	}
	if username == "" {
		c.events.PageChanged(domain.PageLogin, "")
		return
	}

	c.mu.Lock()
	c.user = username
	c.mu.Unlock()

	c.initChatPage()
	_, _ = c.dispatchText(ctx, "", true)
}

// Login validates the name locally, exchanges it with the backend, persists
// the session, and issues the initial-load dispatch.
func (c *ChatController) Login(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}

	username, err := c.api.Login(ctx, name)
	if err != nil {
		return "", err
	}

	if err := c.vault.Store(username); err != nil {
		slog.Warn("failed to persist session", "error", err)
	}

	c.mu.Lock()
	c.user = username
	c.mu.Unlock()

	c.initChatPage()
	_, _ = c.dispatchText(ctx, "", true)
	return username, nil
}

// Logout clears both the in-memory and persisted identity, abandons any
// active recording, stops playback, clears the transcript, and returns the UI
// to the login page.
func (c *ChatController) Logout() {
	c.player.StopCurrent()

	c.mu.Lock()
	rec := c.recording
	c.recording = nil
	c.user = ""
	c.activated = false
	c.draftNonEmpty = false
	c.transcript = nil
	c.mu.Unlock()

	if rec != nil {
		_ = rec.session.Stop()
		<-rec.done
	}

	if err := c.vault.Clear(); err != nil {
		slog.Warn("failed to clear persisted session", "error", err)
	}

	c.events.TranscriptCleared()
	c.events.PageChanged(domain.PageLogin, "")
}

// NewChat clears the conversation on both sides and re-syncs activation state
// with an initial-load dispatch.
func (c *ChatController) NewChat(ctx context.Context) error {
	c.mu.Lock()
	user := c.user
	if user == "" {
		c.mu.Unlock()
		return ErrNotLoggedIn
	}
	c.transcript = nil
	c.mu.Unlock()

	c.player.StopCurrent()
	c.events.TranscriptCleared()
	c.applyActivation(false)

	if err := c.api.Reset(ctx, user); err != nil {
		code := domain.ErrorCodeApplication
		if errors.Is(err, ports.ErrTransport) {
			code = domain.ErrorCodeTransport
		}
		c.events.SessionError(code, fmt.Sprintf("failed to reset conversation: %v", err))
	}

	_, _ = c.dispatchText(ctx, "", true)
	return nil
}

// SendText dispatches a user text message. The draft is considered consumed:
// affordances are recomputed for an empty input.
func (c *ChatController) SendText(ctx context.Context, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.user == "" {
		c.mu.Unlock()
		return ErrNotLoggedIn
	}
	c.draftNonEmpty = false
	c.mu.Unlock()

	c.player.StopCurrent()
	c.appendEntry(domain.TranscriptEntry{Speaker: domain.SpeakerUser, Text: message})
	c.recomputeAffordances()

	_, err := c.dispatchText(ctx, message, false)
	return err
}

// StartRecording opens a microphone capture session. A denied or unavailable
// device surfaces a blocking alert and rolls the state back to idle.
func (c *ChatController) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.user == "" {
		c.mu.Unlock()
		return ErrNotLoggedIn
	}
	if c.recording != nil {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}
	c.mu.Unlock()

	c.player.StopCurrent()

	session, err := c.capture.Start(ctx, c.cfg.Audio)
	if err != nil {
		c.events.Alert(micPermissionText)
		c.events.SessionError(domain.ErrorCodePermission, err.Error())
		c.recomputeAffordances()
		return fmt.Errorf("failed to start recording: %w", err)
	}

	rec := newRecordingSession(session)
	c.mu.Lock()
	if c.recording != nil {
		c.mu.Unlock()
		_ = session.Stop()
		return ErrAlreadyRecording
	}
	c.recording = rec
	c.mu.Unlock()

	go rec.pump(c.cfg.ChunkSize, c.events)
	c.recomputeAffordances()
	return nil
}

// StopRecording finalizes the capture into one audio payload and dispatches
// it. The recording state is released only after the dispatch completes, then
// affordances return to idle unconditionally.
func (c *ChatController) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	rec := c.recording
	c.mu.Unlock()
	if rec == nil {
		return ErrNoActiveRecording
	}

	c.player.StopCurrent()

	if err := rec.session.Stop(); err != nil {
		c.events.SessionError(domain.ErrorCodeCapture, fmt.Sprintf("failed to stop audio capture cleanly: %v", err))
	}
	<-rec.done
	payload := rec.payload()

	index := c.appendEntry(domain.TranscriptEntry{Speaker: domain.SpeakerUser, Text: voiceInputText})
	_, err := c.dispatchAudio(ctx, payload, index)

	c.mu.Lock()
	if c.recording == rec {
		c.recording = nil
	}
	c.mu.Unlock()
	c.recomputeAffordances()
	return err
}

// SetMode switches the interaction mode. The activation value is only
// re-rendered, never changed, by a mode switch.
func (c *ChatController) SetMode(mode domain.InteractionMode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown interaction mode %q", mode)
	}

	c.player.StopCurrent()

	c.mu.Lock()
	c.mode = mode
	active := c.activated
	c.mu.Unlock()

	c.events.ModeChanged(mode)
	c.events.ActivationChanged(active, bannerText(active))
	c.recomputeAffordances()
	return nil
}

// SetDraft tracks whether the input field has content; affordance visibility
// depends on it.
func (c *ChatController) SetDraft(nonEmpty bool) {
	c.mu.Lock()
	changed := c.draftNonEmpty != nonEmpty
	c.draftNonEmpty = nonEmpty
	c.mu.Unlock()

	if changed {
		c.recomputeAffordances()
	}
}

// ApplyActivation is exposed for completeness; during normal operation the
// activation flag only changes through chat replies and resets.
func (c *ChatController) ApplyActivation(active bool) {
	c.applyActivation(active)
}

// Status reports the coordinator state for the UI.
func (c *ChatController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	page := domain.PageLogin
	if c.user != "" {
		page = domain.PageChat
	}
	return domain.Status{
		Page:      page,
		Username:  c.user,
		Mode:      c.mode,
		Activated: c.activated,
		Recording: c.recording != nil,
	}
}

// Transcript returns a snapshot of the conversation.
func (c *ChatController) Transcript() []domain.TranscriptEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.TranscriptEntry, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// initChatPage resets the chat page to its initial state: voice mode,
// activation off, empty transcript.
func (c *ChatController) initChatPage() {
	c.mu.Lock()
	user := c.user
	c.mode = domain.ModeVoice
	c.activated = false
	c.draftNonEmpty = false
	c.transcript = nil
	c.mu.Unlock()

	c.events.TranscriptCleared()
	c.events.PageChanged(domain.PageChat, user)
	c.events.ModeChanged(domain.ModeVoice)
	c.events.ActivationChanged(false, bannerText(false))
	c.recomputeAffordances()
}

func (c *ChatController) applyActivation(active bool) {
	c.mu.Lock()
	c.activated = active
	c.mu.Unlock()

	c.events.ActivationChanged(active, bannerText(active))
	c.recomputeAffordances()
}

func (c *ChatController) recomputeAffordances() {
	c.mu.Lock()
	mode := c.mode
	isRecording := c.recording != nil
	nonEmpty := c.draftNonEmpty
	active := c.activated
	c.mu.Unlock()

	a := domain.DeriveAffordances(mode, isRecording, nonEmpty)
	if isRecording {
		a.Placeholder = placeholderRecords
	} else {
		a.Placeholder = idlePlaceholder(active)
	}
	c.events.AffordancesChanged(a)
}

// appendEntry adds a transcript line, emits it, and records it in the chat
// log. Returns the entry's index for later in-place updates.
func (c *ChatController) appendEntry(entry domain.TranscriptEntry) int {
	c.mu.Lock()
	c.transcript = append(c.transcript, entry)
	index := len(c.transcript) - 1
	user := c.user
	c.mu.Unlock()

	c.events.TranscriptAppended(entry)
	c.logEntry(user, entry)
	return index
}

// replaceEntry rewrites an existing transcript line, used to swap the voice
// placeholder for the server-recognized text.
func (c *ChatController) replaceEntry(index int, entry domain.TranscriptEntry) {
	c.mu.Lock()
	if index < 0 || index >= len(c.transcript) {
		c.mu.Unlock()
		return
	}
	c.transcript[index] = entry
	user := c.user
	c.mu.Unlock()

	c.events.TranscriptUpdated(index, entry)
	c.logEntry(user, entry)
}

func (c *ChatController) logEntry(user string, entry domain.TranscriptEntry) {
	if c.chatLog == nil || user == "" {
		return
	}
	if err := c.chatLog.Append(user, entry); err != nil {
		slog.Warn("failed to append chat log", "error", err)
	}
}
