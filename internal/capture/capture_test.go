// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finding-ray/antikythera/internal/queue"
	"github.com/finding-ray/antikythera/pkg/gsmtap"
)

func TestEnqueueWaitsForRoom(t *testing.T) {
	q := queue.New(1)
	c := New("radio", q, "", "capture.pcap", time.Millisecond)
	ctx := context.Background()

	require.NoError(t, q.Put(ctx, &gsmtap.Frame{Number: 1}, time.Second))

	done := make(chan bool, 1)
	go func() {
		done <- c.enqueue(ctx, &gsmtap.Frame{Number: 2}, false)
	}()

	// The producer is blocked on the full queue until a consumer makes
	// room; the frame must not be dropped.
	time.Sleep(50 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("enqueue returned while the queue was full")
	default:
	}

	f, err := q.Get(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Number)

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("enqueue did not finish after room was made")
	}

	f, err = q.Get(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Number)
}

func TestEnqueueAbortsOnShutdown(t *testing.T) {
	q := queue.New(1)
	c := New("radio", q, "", "capture.pcap", time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, q.Put(ctx, &gsmtap.Frame{Number: 1}, time.Second))

	done := make(chan bool, 1)
	go func() {
		done <- c.enqueue(ctx, &gsmtap.Frame{Number: 2}, false)
	}()

	cancel()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("enqueue did not observe shutdown")
	}
}

func TestRunStopsDuringWarmup(t *testing.T) {
	q := queue.New(1)
	c := New("radio", q, "", "capture.pcap", time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.Run(ctx))

	// The queue handle was closed on the way out.
	_, err := q.Get(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, queue.ErrClosed)
}

func TestRunRequiresExactlyOneSource(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the warm-up sleep")
	}

	q := queue.New(1)
	c := New("radio", q, "", "", time.Millisecond)

	err := c.Run(context.Background())
	assert.Error(t, err)
}

func TestRunMissingCaptureFile(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the warm-up sleep")
	}

	q := queue.New(1)
	c := New("radio", q, "", "does-not-exist.pcap", time.Millisecond)

	err := c.Run(context.Background())
	assert.Error(t, err)
}
