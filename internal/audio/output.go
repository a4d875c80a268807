package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"kittydesk/internal/ports"
)

const outputFrameSize = 1024

// Sink plays decoded audio through the default output device. It implements
// ports.PlaybackDevice; each Play opens its own stream so overlapping
// teardown never blocks a fresh start.
type Sink struct {
	sampleRate int
}

func NewSink(sampleRate int) *Sink {
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	return &Sink{sampleRate: sampleRate}
}

// Play decodes the payload, resamples it to the output rate, and starts
// playback at offset zero. onDone fires only on natural end of playback.
func (s *Sink) Play(data []byte, mimeType string, onDone func()) (ports.Playback, error) {
	samples, sourceRate, err := DecodeSamples(data, mimeType)
	if err != nil {
		return nil, err
	}
	if sourceRate != s.sampleRate {
		samples, err = Resample(samples, sourceRate, s.sampleRate)
		if err != nil {
			return nil, err
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("decoded payload contains no samples")
	}

	if err := DefaultEngine().EnsureStarted(); err != nil {
		return nil, err
	}

	v := &voice{samples: samples, onDone: onDone}
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(s.sampleRate), outputFrameSize, v.fill)
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	v.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("failed to start output stream: %w", err)
	}

	go v.watch()
	return v, nil
}

// voice is one in-flight playback. The portaudio callback drains samples; the
// watch goroutine tears the stream down once the callback reports completion.
type voice struct {
	stream *portaudio.Stream
	onDone func()

	mu          sync.Mutex
	samples     []float32
	position    int
	finished    bool
	interrupted bool
}

func (v *voice) fill(out []float32) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.interrupted {
		for i := range out {
			out[i] = 0
		}
		v.finished = true
		return
	}

	for i := range out {
		if v.position < len(v.samples) {
			out[i] = v.samples[v.position]
			v.position++
		} else {
			out[i] = 0
			v.finished = true
		}
	}
}

// Stop halts playback immediately and suppresses the completion callback.
// Idempotent; stream teardown happens asynchronously in watch.
func (v *voice) Stop() {
	v.mu.Lock()
	v.interrupted = true
	v.finished = true
	v.mu.Unlock()
}

func (v *voice) watch() {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		v.mu.Lock()
		finished := v.finished
		interrupted := v.interrupted
		v.mu.Unlock()

		if !finished {
			continue
		}

		_ = v.stream.Stop()
		_ = v.stream.Close()
		if !interrupted && v.onDone != nil {
			v.onDone()
		}
		return
	}
}
