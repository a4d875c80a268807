package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"kittydesk/internal/audio"
	"kittydesk/internal/bootstrap"
	"kittydesk/internal/config"
	"kittydesk/internal/domain"
	"kittydesk/internal/playback"
	"kittydesk/internal/ports"
	"kittydesk/internal/usecase"
)

const (
	eventPage        = "kittydesk:page"
	eventMode        = "kittydesk:mode"
	eventActivation  = "kittydesk:activation"
	eventAffordances = "kittydesk:affordances"
	eventTranscript  = "kittydesk:transcript"
	eventError       = "kittydesk:error"
	eventAlert       = "kittydesk:alert"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	controller *usecase.ChatController
	player     *playback.Controller
	cfg        config.Config
	bootErr    error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.controller = services.Controller
	a.player = services.Player
	a.controller.Startup(ctx)
}

func (a *App) shutdown(_ context.Context) {
	if a.player != nil {
		a.player.StopCurrent()
	}
	if err := audio.DefaultEngine().Shutdown(); err != nil {
		slog.Warn("audio engine shutdown failed", "error", err)
	}
}

// Login signs the user in and opens the chat page.
func (a *App) Login(name string) (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	username, err := a.controller.Login(a.ctx, name)
	if err != nil {
		a.SessionError(loginErrorCode(err), err.Error())
		return "", err
	}
	return username, nil
}

// loginErrorCode classifies a login failure: local validation, unreachable
// backend, or server-side rejection.
func loginErrorCode(err error) domain.ErrorCode {
	switch {
	case errors.Is(err, usecase.ErrEmptyName):
		return domain.ErrorCodeValidation
	case errors.Is(err, ports.ErrTransport):
		return domain.ErrorCodeTransport
	default:
		return domain.ErrorCodeApplication
	}
}

// Logout clears the session and returns to the login page.
func (a *App) Logout() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.Logout()
	return nil
}

// NewChat clears the conversation locally and on the server.
func (a *App) NewChat() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.NewChat(a.ctx)
}

// SendText dispatches a typed message.
func (a *App) SendText(message string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.SendText(a.ctx, message)
}

// StartRecording begins a microphone capture.
func (a *App) StartRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.StartRecording(a.ctx); err != nil {
		return domain.Status{}, err
	}
	return a.controller.Status(), nil
}

// StopRecording finalizes the capture and dispatches the audio.
func (a *App) StopRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.StopRecording(a.ctx); err != nil {
		return domain.Status{}, err
	}
	return a.controller.Status(), nil
}

// SetMode switches between voice and text replies.
func (a *App) SetMode(mode string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.SetMode(domain.InteractionMode(mode))
}

// SetDraft reports whether the input field currently has content.
func (a *App) SetDraft(nonEmpty bool) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.SetDraft(nonEmpty)
	return nil
}

// Attach is a stub for future file and image uploads.
func (a *App) Attach() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.Alert("Attachments are not supported yet.")
	return nil
}

// StopPlayback halts any sounding assistant reply.
func (a *App) StopPlayback() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.player.StopCurrent()
	return nil
}

// GetStatus returns the current coordinator status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		return domain.Status{Page: domain.PageLogin, Mode: domain.ModeVoice}
	}
	return a.controller.Status()
}

// GetTranscript returns the rendered conversation.
func (a *App) GetTranscript() []domain.TranscriptEntry {
	if a.controller == nil {
		return nil
	}
	return a.controller.Transcript()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"backendURL":       a.cfg.Backend.BaseURL,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// PageChanged emits page navigation to the frontend.
func (a *App) PageChanged(page domain.Page, username string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPage, map[string]string{
		"page":     string(page),
		"username": username,
	})
}

// ModeChanged emits the active interaction mode.
func (a *App) ModeChanged(mode domain.InteractionMode) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventMode, map[string]string{"mode": string(mode)})
}

// ActivationChanged emits the wake state and its banner text.
func (a *App) ActivationChanged(active bool, banner string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventActivation, map[string]any{
		"active": active,
		"banner": banner,
	})
}

// AffordancesChanged emits which input controls should be visible.
func (a *App) AffordancesChanged(aff domain.Affordances) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventAffordances, aff)
}

// TranscriptAppended emits a new conversation line.
func (a *App) TranscriptAppended(entry domain.TranscriptEntry) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]any{
		"op":    "append",
		"entry": entry,
	})
}

// TranscriptUpdated emits an in-place rewrite of an existing line.
func (a *App) TranscriptUpdated(index int, entry domain.TranscriptEntry) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]any{
		"op":    "update",
		"index": index,
		"entry": entry,
	})
}

// TranscriptCleared emits a conversation reset.
func (a *App) TranscriptCleared() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]any{"op": "clear"})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

// Alert shows a blocking notice the user must acknowledge.
func (a *App) Alert(message string) {
	if a.ctx == nil {
		return
	}
	_, _ = runtime.MessageDialog(a.ctx, runtime.MessageDialogOptions{
		Type:    runtime.WarningDialog,
		Title:   "Kitty",
		Message: message,
	})
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeValidation:
		return "Invalid input"
	case domain.ErrorCodePermission:
		return "Microphone unavailable"
	case domain.ErrorCodeTransport:
		return "Could not reach the assistant service"
	case domain.ErrorCodeApplication:
		return "The assistant reported an error"
	case domain.ErrorCodeDecode:
		return "Audio playback failed"
	case domain.ErrorCodeCapture:
		return "Audio capture issue"
	case domain.ErrorCodeHistory:
		return "Chat log write failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
