package usecase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"kittydesk/internal/domain"
	"kittydesk/internal/ports"
)

// recordingSession buffers the encoded chunks of one microphone capture. At
// most one exists at a time; it lives from StartRecording until the stop
// dispatch completes.
type recordingSession struct {
	session ports.CaptureSession
	done    chan struct{}

	mu     sync.Mutex
	chunks [][]byte
}

func newRecordingSession(session ports.CaptureSession) *recordingSession {
	return &recordingSession{session: session, done: make(chan struct{})}
}

// pump reads encoded capture bytes into the chunk buffer until the stream
// ends. Runs on its own goroutine; done is closed when the stream is drained.
// The session is closed here, after the drain, never by Stop: closing earlier
// would discard the container trailer the recorder flushes on interrupt.
func (r *recordingSession) pump(chunkSize int, events ports.EventSink) {
	defer close(r.done)
	defer func() {
		_ = r.session.Close()
	}()

	if chunkSize < 256 {
		chunkSize = 4096
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := r.session.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			r.mu.Lock()
			r.chunks = append(r.chunks, chunk)
			r.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) && !errors.Is(err, io.ErrClosedPipe) {
				events.SessionError(domain.ErrorCodeCapture, fmt.Sprintf("audio capture error: %v", err))
			}
			return
		}
	}
}

// payload concatenates the buffered chunks into the final audio payload and
// clears the buffer.
func (r *recordingSession) payload() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int
	for _, chunk := range r.chunks {
		total += len(chunk)
	}

	out := make([]byte, 0, total)
	for _, chunk := range r.chunks {
		out = append(out, chunk...)
	}
	r.chunks = nil
	return out
}
