// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.

// Package indicator holds the shared threat-level cell. The metric
// engine is its only writer; the indicator front-end and anybody else
// may read it concurrently.
package indicator

import "sync/atomic"

const (
	// InitialLevel is the level published before any metric pass ran.
	InitialLevel = 5
	// MinLevel is the highest threat on the five level scale.
	MinLevel = 1
	// MaxLevel is the lowest threat on the five level scale.
	MaxLevel = 5
)

// Indicator is a single-slot threat-level cell with atomic store/load.
type Indicator struct {
	level atomic.Int32
}

// New creates an indicator at InitialLevel.
func New() *Indicator {
	ind := &Indicator{}
	ind.level.Store(InitialLevel)
	return ind
}

// Set publishes a new threat level, clamped to the 1..5 scale.
func (ind *Indicator) Set(level int) {
	if level < MinLevel {
		level = MinLevel
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	ind.level.Store(int32(level))
}

// Level reads the current threat level.
func (ind *Indicator) Level() int {
	return int(ind.level.Load())
}
