package usecase

import (
	"context"

	"kittydesk/internal/domain"
	"kittydesk/internal/ports"
)

// dispatchText sends a text message (possibly empty, for the initial-load
// sync) and applies the reply.
func (c *ChatController) dispatchText(ctx context.Context, message string, initial bool) (domain.ChatReply, error) {
	c.mu.Lock()
	user := c.user
	mode := c.mode
	c.mu.Unlock()
	if user == "" {
		return domain.ChatReply{}, ErrNotLoggedIn
	}

	reply, err := c.api.SendText(ctx, ports.TextRequest{
		Username:      user,
		Message:       message,
		Mode:          mode,
		IsInitialLoad: initial,
	})
	return c.applyReply(reply, err, -1)
}

// dispatchAudio sends a recorded audio payload. echoIndex is the transcript
// slot holding the voice placeholder; the server-recognized text replaces it.
func (c *ChatController) dispatchAudio(ctx context.Context, payload []byte, echoIndex int) (domain.ChatReply, error) {
	c.mu.Lock()
	user := c.user
	mode := c.mode
	c.mu.Unlock()
	if user == "" {
		return domain.ChatReply{}, ErrNotLoggedIn
	}

	reply, err := c.api.SendAudio(ctx, ports.AudioRequest{
		Username: user,
		Audio:    payload,
		Mode:     mode,
	})
	return c.applyReply(reply, err, echoIndex)
}

// applyReply folds a chat exchange result into coordinator state. Transport
// failures and application failures both land in the transcript as assistant
// lines; only a successful reply moves the activation flag.
func (c *ChatController) applyReply(reply domain.ChatReply, err error, echoIndex int) (domain.ChatReply, error) {
	if err != nil {
		c.appendEntry(domain.TranscriptEntry{Speaker: domain.SpeakerAssistant, Text: networkErrorText})
		c.events.SessionError(domain.ErrorCodeTransport, err.Error())
		return domain.ChatReply{}, err
	}

	if !reply.Success {
		c.appendEntry(domain.TranscriptEntry{Speaker: domain.SpeakerAssistant, Text: "Error: " + reply.Message})
		c.events.SessionError(domain.ErrorCodeApplication, reply.Message)
		return reply, nil
	}

	c.applyActivation(reply.WakeMode)

	if echoIndex >= 0 && reply.RecognizedText != "" {
		c.replaceEntry(echoIndex, domain.TranscriptEntry{Speaker: domain.SpeakerUser, Text: reply.RecognizedText})
	}

	if reply.ResponseText != "" {
		c.appendEntry(domain.TranscriptEntry{Speaker: domain.SpeakerAssistant, Text: reply.ResponseText})
	}

	c.mu.Lock()
	mode := c.mode
	c.mu.Unlock()
	if mode == domain.ModeVoice && reply.AudioData != "" {
		c.player.Play(reply.AudioData, reply.AudioMimeType)
	}
	return reply, nil
}
