package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"kittydesk/internal/ports"
)

// startupGrace is how long ffmpeg gets to fail fast (bad device, denied
// permission) before the session is considered live.
const startupGrace = 250 * time.Millisecond

// Recorder captures microphone audio as a WebM/Opus stream using ffmpeg.
type Recorder struct {
	command string
}

func NewRecorder(command string) *Recorder {
	if command == "" {
		command = "ffmpeg"
	}
	return &Recorder{command: command}
}

// Start launches the capture process. Reads on the returned session yield the
// encoded WebM container; Stop interrupts ffmpeg, which flushes the container
// and ends the stream with io.EOF.
//
// Stdout is wired through an explicit os.Pipe rather than cmd.StdoutPipe:
// Wait closes the pipe StdoutPipe hands out as soon as the process exits,
// which would race the drain of the container trailer ffmpeg writes on
// interrupt. The read end of an explicit pipe survives Wait.
func (r *Recorder) Start(ctx context.Context, cfg ports.AudioConfig) (ports.CaptureSession, error) {
	cmd := exec.CommandContext(ctx, r.command, captureArgs(cfg)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, stdoutWriter, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create recorder pipe: %w", err)
	}
	cmd.Stdout = stdoutWriter

	if err := cmd.Start(); err != nil {
		_ = stdout.Close()
		_ = stdoutWriter.Close()
		return nil, fmt.Errorf("failed to start recorder: %w", err)
	}
	// The child holds its own copy of the write end; closing ours makes reads
	// hit EOF once the process exits and the buffered bytes are drained.
	_ = stdoutWriter.Close()

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// An immediate exit means the device could not be opened.
	select {
	case err := <-waitErr:
		_ = stdout.Close()
		detail := trimmed(stderr.String())
		if err != nil {
			return nil, fmt.Errorf("recorder exited before capture started: %w: %s", err, detail)
		}
		return nil, fmt.Errorf("recorder exited before capture started: %s", detail)
	case <-time.After(startupGrace):
	}

	return &recorderSession{
		stdout:  stdout,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

func captureArgs(cfg ports.AudioConfig) []string {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-c:a", "libopus",
		"-f", "webm",
		"-",
	}
}

type recorderSession struct {
	stdout *os.File
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	stopOnce  sync.Once
	stopErr   error
	closeOnce sync.Once
}

func (s *recorderSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Close stops the recorder and releases the read end of the pipe. Any bytes
// not yet drained are discarded, so readers should drain to EOF first.
func (s *recorderSession) Close() error {
	err := s.Stop()
	s.closeOnce.Do(func() {
		_ = s.stdout.Close()
	})
	return err
}

// Stop interrupts ffmpeg so it writes the container trailer and exits. The
// remaining encoded bytes stay readable until EOF. Escalates to a kill if the
// process ignores the interrupt.
func (s *recorderSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = ignoreExitStatus(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			if err, ok := <-s.waitErr; ok {
				s.stopErr = ignoreExitStatus(err)
			}
		}

		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimmed(s.stderr.String()))
		}
	})

	return s.stopErr
}

// ignoreExitStatus drops exec.ExitError: ffmpeg exits non-zero when
// interrupted, which is the expected way to end a capture.
func ignoreExitStatus(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimmed(s string) string {
	return string(bytes.TrimSpace([]byte(s)))
}
