// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.

// Package queue provides the bounded FIFO connecting the capture worker
// to the decoder pool. Any number of producers and consumers may use it
// concurrently; a full queue back-pressures producers instead of
// dropping frames.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/finding-ray/antikythera/pkg/gsmtap"
)

var (
	// ErrTimeout is returned when a Put or Get gives up waiting.
	ErrTimeout = errors.New("queue: timed out")
	// ErrClosed is returned by Get once the queue is closed and drained.
	ErrClosed = errors.New("queue: closed")
)

// Queue is a bounded multi-producer multi-consumer frame FIFO.
type Queue struct {
	ch chan *gsmtap.Frame
}

// New creates a queue holding at most capacity frames.
func New(capacity int) *Queue {
	return &Queue{ch: make(chan *gsmtap.Frame, capacity)}
}

// Put enqueues a frame, blocking up to timeout. It returns ErrTimeout on
// a full queue and the context error if ctx is cancelled first.
func (q *Queue) Put(ctx context.Context, f *gsmtap.Frame, timeout time.Duration) error {
	select {
	case q.ch <- f:
		return nil
	default:
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case q.ch <- f:
		return nil
	case <-t.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get dequeues a frame, blocking up to timeout. It returns ErrTimeout on
// an empty queue, ErrClosed once the queue is closed and empty, and the
// context error if ctx is cancelled first.
func (q *Queue) Get(ctx context.Context, timeout time.Duration) (*gsmtap.Frame, error) {
	select {
	case f, ok := <-q.ch:
		if !ok {
			return nil, ErrClosed
		}
		return f, nil
	default:
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case f, ok := <-q.ch:
		if !ok {
			return nil, ErrClosed
		}
		return f, nil
	case <-t.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryGet dequeues without blocking.
func (q *Queue) TryGet() (*gsmtap.Frame, bool) {
	select {
	case f, ok := <-q.ch:
		if !ok {
			return nil, false
		}
		return f, true
	default:
		return nil, false
	}
}

// Drain empties the queue without blocking and returns the number of
// frames discarded. Used on shutdown to unblock consumers.
func (q *Queue) Drain() int {
	n := 0
	for {
		if _, ok := q.TryGet(); !ok {
			return n
		}
		n++
	}
}

// Close marks the end of the stream. Only the producer may call it, and
// only after its last Put.
func (q *Queue) Close() {
	close(q.ch)
}

// Len is the number of frames currently queued.
func (q *Queue) Len() int { return len(q.ch) }

// Cap is the configured capacity.
func (q *Queue) Cap() int { return cap(q.ch) }
