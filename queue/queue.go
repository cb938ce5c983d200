// Package queue provides the bounded chunk queues that connect the
// stages of the conversion pipeline.
//
// A queue distinguishes two closure states: a graceful close means no
// more chunks will arrive and the consumer should drain what is left,
// an abort means both ends give up immediately and pending chunks are
// discarded. An abort is observable from both ends so a blocked
// producer or consumer never deadlocks on a partner that already
// stopped.
package queue

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

// ErrAborted is returned by Reader once the underlying queue was
// aborted.
var ErrAborted = errors.New("queue aborted")

// Queue is a bounded FIFO of byte chunks, shared between a single
// producer and a single consumer stage. Push and Pop block when the
// queue is full resp. empty; this blocking is the backpressure that
// throttles faster stages.
type Queue struct {
	chunks    chan []byte
	aborted   chan struct{}
	closeOnce sync.Once
	abortOnce sync.Once
}

// New returns a queue holding at most depth chunks.
func New(depth int) *Queue {
	return &Queue{
		chunks:  make(chan []byte, depth),
		aborted: make(chan struct{}),
	}
}

// Push appends chunk, blocking while the queue is full. It returns
// false once the queue was aborted; the chunk is dropped in that case
// and the producer should stop.
// Push must not be called after Close.
func (q *Queue) Push(chunk []byte) bool {
	select {
	case <-q.aborted:
		return false
	default:
	}
	select {
	case q.chunks <- chunk:
		return true
	case <-q.aborted:
		return false
	}
}

// Pop removes the oldest chunk, blocking while the queue is empty.
// ok is false after the queue was closed and drained, or immediately
// after an abort. Chunks still buffered during an abort are discarded.
func (q *Queue) Pop() (chunk []byte, ok bool) {
	select {
	case <-q.aborted:
		return nil, false
	default:
	}
	select {
	case chunk, ok := <-q.chunks:
		return chunk, ok
	case <-q.aborted:
		return nil, false
	}
}

// Close signals graceful end of input. Only the producer may call
// Close. The consumer keeps draining buffered chunks until Pop
// returns ok == false.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.chunks) })
}

// Abort closes the queue disruptively. Any blocked Push or Pop
// returns immediately, buffered chunks are discarded. Abort may be
// called from either end and more than once.
func (q *Queue) Abort() {
	q.abortOnce.Do(func() { close(q.aborted) })
}

// Aborted reports whether Abort was called.
func (q *Queue) Aborted() bool {
	select {
	case <-q.aborted:
		return true
	default:
		return false
	}
}

// Reader adapts the consumer end of a queue to io.Reader. A graceful
// close surfaces as io.EOF, an abort as ErrAborted. Reader also
// implements io.ByteReader so byte-oriented decoders consume the
// queue without overreading.
type Reader struct {
	q   *Queue
	buf []byte
}

// NewReader returns a Reader draining q.
func NewReader(q *Queue) *Reader {
	return &Reader{q: q}
}

func (r *Reader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		chunk, ok := r.q.Pop()
		if !ok {
			if r.q.Aborted() {
				return 0, ErrAborted
			}
			return 0, io.EOF
		}
		r.buf = chunk
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *Reader) ReadByte() (byte, error) {
	for len(r.buf) == 0 {
		chunk, ok := r.q.Pop()
		if !ok {
			if r.q.Aborted() {
				return 0, ErrAborted
			}
			return 0, io.EOF
		}
		r.buf = chunk
	}
	b := r.buf[0]
	r.buf = r.buf[1:]
	return b, nil
}
