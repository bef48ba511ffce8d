package platform

import (
	"context"
	"sync"
	"time"
)

// RecvFunc blocks until some bytes arrive, ctx ends, or the link fails.
type RecvFunc func(ctx context.Context, p []byte) (int, error)

// rxBuffer turns a blocking receive into the non-blocking Buffered/Read pair
// the modem driver polls. A single reader goroutine fills a bounded buffer;
// bytes beyond the bound are dropped and counted.
type rxBuffer struct {
	mu      sync.Mutex
	b       []byte
	max     int
	dropped int

	cancel context.CancelFunc
	done   chan struct{}
}

func newRxBuffer(max int) *rxBuffer {
	if max < 16 {
		max = 16
	}
	if max > 4096 {
		max = 4096
	}
	return &rxBuffer{max: max}
}

// start launches the reader. Any previous reader is stopped first and the
// buffer is cleared.
func (r *rxBuffer) start(ctx context.Context, recv RecvFunc) {
	r.stop()
	r.reset()
	cctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done

	go func() {
		defer close(done)
		buf := make([]byte, 64)
		for {
			if cctx.Err() != nil {
				return
			}
			// Bound the blocking wait to assist shutdown.
			rctx, rcancel := context.WithTimeout(cctx, 250*time.Millisecond)
			n, err := recv(rctx, buf)
			rcancel()
			if n > 0 {
				r.push(buf[:n])
			}
			if err != nil && cctx.Err() == nil && rctx.Err() == nil {
				// Link failure; back off instead of spinning.
				time.Sleep(10 * time.Millisecond)
			}
		}
	}()
}

// stop ends the reader and waits for it.
func (r *rxBuffer) stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel, r.done = nil, nil
}

func (r *rxBuffer) push(p []byte) {
	r.mu.Lock()
	room := r.max - len(r.b)
	if room < len(p) {
		r.dropped += len(p) - room
		p = p[:room]
	}
	r.b = append(r.b, p...)
	r.mu.Unlock()
}

func (r *rxBuffer) reset() {
	r.mu.Lock()
	r.b = r.b[:0]
	r.mu.Unlock()
}

func (r *rxBuffer) Buffered() int {
	r.mu.Lock()
	n := len(r.b)
	r.mu.Unlock()
	return n
}

func (r *rxBuffer) Read(p []byte) (int, error) {
	r.mu.Lock()
	n := copy(p, r.b)
	r.b = r.b[:copy(r.b, r.b[n:])]
	r.mu.Unlock()
	return n, nil
}

// Dropped returns the number of bytes discarded on overflow.
func (r *rxBuffer) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
