// Package api implements the HTTP client for the remote Kitty service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"kittydesk/internal/domain"
	"kittydesk/internal/ports"
)

// Config controls how the Kitty backend is reached.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the four Kitty endpoints. It implements ports.ChatService.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://127.0.0.1:5000"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type loginResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Login exchanges a display name for a session username. A server-side
// rejection comes back as a plain error carrying the server's message.
func (c *Client) Login(ctx context.Context, name string) (string, error) {
	body, err := c.postJSON(ctx, "/api/login", map[string]string{"name": name})
	if err != nil {
		return "", err
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: malformed login response: %v", ports.ErrTransport, err)
	}
	if !resp.Success {
		if resp.Message == "" {
			resp.Message = "login rejected"
		}
		return "", errors.New(resp.Message)
	}
	return resp.Username, nil
}

// SendText posts a text chat message. Application-level failures are returned
// in the reply, not as an error.
func (c *Client) SendText(ctx context.Context, req ports.TextRequest) (domain.ChatReply, error) {
	body, err := c.postJSON(ctx, "/api/chat/text", map[string]any{
		"username":      req.Username,
		"message":       req.Message,
		"responseMode":  string(req.Mode),
		"isInitialLoad": req.IsInitialLoad,
	})
	if err != nil {
		return domain.ChatReply{}, err
	}
	return decodeReply(body)
}

// SendAudio posts a recorded audio payload as multipart form data. The binary
// part is always named audio.webm, matching the capture container.
func (c *Client) SendAudio(ctx context.Context, req ports.AudioRequest) (domain.ChatReply, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	if err := form.WriteField("username", req.Username); err != nil {
		return domain.ChatReply{}, fmt.Errorf("failed to build audio request: %w", err)
	}
	if err := form.WriteField("responseMode", string(req.Mode)); err != nil {
		return domain.ChatReply{}, fmt.Errorf("failed to build audio request: %w", err)
	}
	part, err := form.CreateFormFile("audio", "audio.webm")
	if err != nil {
		return domain.ChatReply{}, fmt.Errorf("failed to build audio request: %w", err)
	}
	if _, err := part.Write(req.Audio); err != nil {
		return domain.ChatReply{}, fmt.Errorf("failed to build audio request: %w", err)
	}
	if err := form.Close(); err != nil {
		return domain.ChatReply{}, fmt.Errorf("failed to build audio request: %w", err)
	}

	body, err := c.post(ctx, "/api/chat/audio", form.FormDataContentType(), &buf)
	if err != nil {
		return domain.ChatReply{}, err
	}
	return decodeReply(body)
}

type resetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Reset clears the server-side conversation state for the user.
func (c *Client) Reset(ctx context.Context, username string) error {
	body, err := c.postJSON(ctx, "/api/reset", map[string]string{"username": username})
	if err != nil {
		return err
	}

	var resp resetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: malformed reset response: %v", ports.ErrTransport, err)
	}
	if !resp.Success {
		if resp.Message == "" {
			resp.Message = "reset rejected"
		}
		return errors.New(resp.Message)
	}
	return nil
}

func decodeReply(body []byte) (domain.ChatReply, error) {
	var reply domain.ChatReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return domain.ChatReply{}, fmt.Errorf("%w: malformed chat response: %v", ports.ErrTransport, err)
	}
	return reply, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.post(ctx, path, "application/json", bytes.NewReader(encoded))
}

// post performs the request and returns the response body. Any failure to
// complete the exchange, including a non-2xx status, wraps ports.ErrTransport.
func (c *Client) post(ctx context.Context, path string, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ports.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: server responded with status %d", ports.ErrTransport, resp.StatusCode)
	}
	return data, nil
}
