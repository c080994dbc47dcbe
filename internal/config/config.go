// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/finding-ray/antikythera/pkg/log"
	"github.com/finding-ray/antikythera/pkg/schema"
)

// DefaultReplayDelay paces file replay to simulate live arrival.
const DefaultReplayDelay = 200 * time.Millisecond

var Keys schema.ProgramConfig = schema.ProgramConfig{
	Threads:     1,
	QueueSize:   100000,
	Headless:    false,
	ReplayDelay: "200ms",
	DBDriver:    "sqlite3",
	DB:          "./var/anti.sqlite3",
}

// Init overlays the defaults with the JSON config bundle, if one exists
// at the given path. Flags are applied on top by the caller.
func Init(flagConfigFile string) {
	raw, err := os.ReadFile(flagConfigFile)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatal(err)
		}
		return
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		log.Fatalf("config: decoding %s failed: %s", flagConfigFile, err.Error())
	}
}

// Validate checks the capture source selection: exactly one of a live
// interface and a capture file must be configured.
func Validate() error {
	if Keys.Interface != "" && Keys.CaptureFile != "" {
		return errors.New("config: -interface and -capture are mutually exclusive")
	}
	if Keys.Interface == "" && Keys.CaptureFile == "" {
		return errors.New("config: no capture method supplied")
	}
	if Keys.Threads < 1 {
		return errors.New("config: at least one decoder thread required")
	}
	if Keys.QueueSize < 1 {
		return errors.New("config: queue size must be positive")
	}
	return nil
}

// ReplayDelay parses the configured replay pacing, falling back to the
// default on a missing or malformed value.
func ReplayDelay() time.Duration {
	if Keys.ReplayDelay == "" {
		log.Warnf("config: no replay delay specified setting to default %s", DefaultReplayDelay)
		return DefaultReplayDelay
	}
	d, err := time.ParseDuration(Keys.ReplayDelay)
	if err != nil || d < 0 {
		log.Warnf("config: invalid replay delay %q setting to default %s", Keys.ReplayDelay, DefaultReplayDelay)
		return DefaultReplayDelay
	}
	return d
}
