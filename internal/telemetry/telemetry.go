// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.

// Package telemetry exposes the pipeline counters as prometheus
// collectors. The listener is opt-in; with no address configured the
// counters only cost an atomic add each.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/finding-ray/antikythera/pkg/log"
)

var (
	FramesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "antikythera_frames_captured_total",
		Help: "Total frames obtained from the capture source.",
	})
	EnqueueTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "antikythera_enqueue_timeouts_total",
		Help: "Total enqueue attempts that timed out on a full queue.",
	})
	FramesDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antikythera_frames_decoded_total",
		Help: "Total frames decoded and stored, by record kind.",
	}, []string{"kind"})
	FramesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antikythera_frames_skipped_total",
		Help: "Total frames dropped by the capture source or a decoder, by reason.",
	}, []string{"reason"})
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "antikythera_queue_depth",
		Help: "Frames currently waiting in the shared queue.",
	})
	RuleFirings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antikythera_rule_firings_total",
		Help: "Total detection rule firings, by rule.",
	}, []string{"rule"})
	ThreatLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "antikythera_threat_level",
		Help: "Threat level most recently published to the indicator.",
	})
)

// Skip reason label constants (stable values to bound cardinality).
const (
	SkipDissect   = "dissect"
	SkipMissing   = "missing_field"
	SkipParse     = "parse"
	SkipDuplicate = "duplicate_hash"
	SkipLayer     = "layer_not_found"
)

// StartHTTP serves the prometheus registry at /metrics on addr.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Infof("telemetry: listening at %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("telemetry: http server failed: %s", err.Error())
		}
	}()
	return srv
}
