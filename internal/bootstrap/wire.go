package bootstrap

import (
	"kittydesk/internal/api"
	"kittydesk/internal/audio"
	"kittydesk/internal/config"
	"kittydesk/internal/history"
	"kittydesk/internal/playback"
	"kittydesk/internal/ports"
	"kittydesk/internal/session"
	"kittydesk/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.ChatController
	Player     *playback.Controller
	Config     config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	player := playback.NewController(audio.NewSink(cfg.Playback.SampleRate))

	controller := usecase.NewChatController(
		api.NewClient(api.Config{
			BaseURL: cfg.Backend.BaseURL,
			Timeout: cfg.Backend.Timeout,
		}),
		session.NewFileVault(cfg.State.VaultPath),
		audio.NewRecorder(cfg.Audio.RecorderCommand),
		player,
		history.NewLogger(cfg.State.ChatLogPath),
		eventSink,
		usecase.Config{
			Audio: ports.AudioConfig{
				Command:     cfg.Audio.RecorderCommand,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
			},
		},
	)

	return Services{Controller: controller, Player: player, Config: cfg}, nil
}
