// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/finding-ray/antikythera/pkg/schema"
)

func restore(t *testing.T) {
	t.Helper()
	saved := Keys
	t.Cleanup(func() { Keys = saved })
}

func TestValidateExactlyOneSource(t *testing.T) {
	restore(t)

	Keys = schema.ProgramConfig{Threads: 1, QueueSize: 100}
	assert.Error(t, Validate(), "no source configured")

	Keys.Interface = "lo"
	assert.NoError(t, Validate())

	Keys.CaptureFile = "capture.pcap"
	assert.Error(t, Validate(), "both sources configured")

	Keys.Interface = ""
	assert.NoError(t, Validate())
}

func TestValidateWorkerBounds(t *testing.T) {
	restore(t)

	Keys = schema.ProgramConfig{Interface: "lo", Threads: 0, QueueSize: 100}
	assert.Error(t, Validate())

	Keys.Threads = 1
	Keys.QueueSize = 0
	assert.Error(t, Validate())
}

func TestReplayDelay(t *testing.T) {
	restore(t)

	Keys.ReplayDelay = "500ms"
	assert.Equal(t, 500*time.Millisecond, ReplayDelay())

	Keys.ReplayDelay = ""
	assert.Equal(t, DefaultReplayDelay, ReplayDelay())

	Keys.ReplayDelay = "soon"
	assert.Equal(t, DefaultReplayDelay, ReplayDelay())

	Keys.ReplayDelay = "-1s"
	assert.Equal(t, DefaultReplayDelay, ReplayDelay())
}
