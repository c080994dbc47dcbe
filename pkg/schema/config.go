// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package schema

// Format of the configuration (file). See internal/config for the defaults.
type ProgramConfig struct {
	// Number of decoder workers draining the packet queue.
	Threads int `json:"threads"`

	// Maximum number of frames waiting to be decoded. A full queue
	// back-pressures the capture side.
	QueueSize int `json:"qsize"`

	// Run without the indicator front-end.
	Headless bool `json:"headless"`

	// Name of the radio/network interface to capture from live.
	// Mutually exclusive with CaptureFile.
	Interface string `json:"interface"`

	// Path to a GSMTAP-bearing capture file to replay.
	// Mutually exclusive with Interface.
	CaptureFile string `json:"capture"`

	// Pause between enqueued frames during file replay, as a duration
	// string. Models live arrival pacing.
	ReplayDelay string `json:"replay-delay"`

	// Only 'sqlite3' is supported.
	DBDriver string `json:"db-driver"`

	// Path of the sqlite database file.
	DB string `json:"db"`

	// If not empty, every log line is also appended to this file.
	LogFile string `json:"logfile"`

	// If not empty, serve prometheus metrics on this address.
	MetricsAddr string `json:"metrics-addr"`
}
