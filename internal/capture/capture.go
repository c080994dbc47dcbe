// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.

// Package capture feeds the shared queue from the radio interface or a
// replayed capture file.
package capture

import (
	"context"
	"errors"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/finding-ray/antikythera/internal/queue"
	"github.com/finding-ray/antikythera/internal/telemetry"
	"github.com/finding-ray/antikythera/pkg/gsmtap"
	"github.com/finding-ray/antikythera/pkg/log"
)

const (
	// warmup gives the decoder pool time to come up. Losing the first
	// frame would be acceptable; racing a cold consumer is not.
	warmup = 2 * time.Second

	// putTimeout bounds one enqueue attempt against a full queue.
	putTimeout = 10 * time.Second

	// fullRetryDelay is how long a live capture backs off after a full
	// queue before retrying the same frame.
	fullRetryDelay = time.Second
)

// Capture is the ingest worker. Exactly one of Interface and
// CaptureFile must be set.
type Capture struct {
	ID          string
	Interface   string
	CaptureFile string
	ReplayDelay time.Duration

	queue *queue.Queue
}

func New(id string, q *queue.Queue, iface, captureFile string, replayDelay time.Duration) *Capture {
	return &Capture{
		ID:          id,
		Interface:   iface,
		CaptureFile: captureFile,
		ReplayDelay: replayDelay,
		queue:       q,
	}
}

// Run is the worker main loop. It returns nil on a clean end of stream
// or shutdown, and the backend error otherwise. Either way the queue is
// closed before returning; a crashed ingest worker terminates the
// pipeline because no more data arrives.
func (c *Capture) Run(ctx context.Context) error {
	defer func() {
		if ctx.Err() != nil {
			n := c.queue.Drain()
			log.Debugf("%s: flushed %d frames from the queue", c.ID, n)
		}
		c.queue.Close()
		log.Infof("%s: Exiting", c.ID)
	}()

	select {
	case <-time.After(warmup):
	case <-ctx.Done():
		return nil
	}
	log.Debugf("%s: worker started successfully", c.ID)

	live := c.Interface != ""
	if live == (c.CaptureFile != "") {
		return errors.New("capture: exactly one of interface and capture file required")
	}

	var src Source
	var err error
	if live {
		src, err = NewLiveSource(c.Interface)
	} else {
		src, err = NewFileSource(c.CaptureFile)
	}
	if err != nil {
		return err
	}
	defer src.Close()

	var limiter *rate.Limiter
	if !live {
		limiter = rate.NewLimiter(rate.Every(c.ReplayDelay), 1)
	}

	for ctx.Err() == nil {
		frame, err := src.Next(ctx)
		if err == io.EOF {
			log.Infof("%s: Capture terminated", c.ID)
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warnf("%s: capture source failed: %s", c.ID, err.Error())
			return err
		}
		telemetry.FramesCaptured.Inc()

		if !c.enqueue(ctx, frame, live) {
			return nil
		}

		if limiter != nil {
			// Replay pacing; models the arrival rate the rules are
			// evaluated against.
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
		}
	}
	return nil
}

// enqueue pushes one frame, backing off on a full queue until it fits
// or shutdown is requested. Returns false only on shutdown.
func (c *Capture) enqueue(ctx context.Context, frame *gsmtap.Frame, live bool) bool {
	for {
		err := c.queue.Put(ctx, frame, putTimeout)
		if err == nil {
			telemetry.QueueDepth.Set(float64(c.queue.Len()))
			log.Debugf("%s: produced frame %d, queue size is now %d",
				c.ID, frame.Number, c.queue.Len())
			return true
		}
		if !errors.Is(err, queue.ErrTimeout) {
			return false
		}

		telemetry.EnqueueTimeouts.Inc()
		log.Warnf("%s: cannot write to full Queue", c.ID)
		if live {
			select {
			case <-time.After(fullRetryDelay):
			case <-ctx.Done():
				return false
			}
		}
	}
}
