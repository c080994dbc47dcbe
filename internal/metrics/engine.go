// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.

// Package metrics periodically evaluates the detection rules over the
// store and publishes the aggregated threat level to the shared
// indicator.
package metrics

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/finding-ray/antikythera/internal/indicator"
	"github.com/finding-ray/antikythera/internal/repository"
	"github.com/finding-ray/antikythera/internal/telemetry"
	"github.com/finding-ray/antikythera/pkg/log"
)

// passInterval is the time between rule evaluation passes.
const passInterval = 3 * time.Second

type rule struct {
	name string
	eval func() (bool, error)
}

// Engine drives the evaluation passes. One pass runs all rules in
// sequence and is not interruptible; shutdown is honored between rules
// and between passes.
type Engine struct {
	ID        string
	repo      *repository.PacketRepository
	indicator *indicator.Indicator
	scheduler gocron.Scheduler
	rules     []rule
}

func NewEngine(id string, ind *indicator.Indicator) *Engine {
	repo := repository.GetPacketRepository()
	e := &Engine{
		ID:        id,
		repo:      repo,
		indicator: ind,
	}
	e.rules = []rule{
		{"imposter_cell", repo.ImposterCell},
		{"inconsistent_lac", repo.InconsistentLac},
		{"lonely_cell_id", repo.LonelyCellID},
	}
	return e
}

// Run evaluates rules every passInterval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	s, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("%s: could not create scheduler: %s", e.ID, err.Error())
	}
	e.scheduler = s

	_, err = s.NewJob(
		gocron.DurationJob(passInterval),
		gocron.NewTask(func() { e.pass(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		log.Fatalf("%s: could not register evaluation job: %s", e.ID, err.Error())
	}

	log.Debugf("%s: worker started successfully", e.ID)
	s.Start()

	<-ctx.Done()
	if err := s.Shutdown(); err != nil {
		log.Warnf("%s: scheduler shutdown: %s", e.ID, err.Error())
	}
	log.Infof("%s: Exiting", e.ID)
}

// pass runs the rules once and publishes the resulting level.
func (e *Engine) pass(ctx context.Context) {
	log.Debugf("%s: metrics loop begin", e.ID)

	fired := 0
	for _, r := range e.rules {
		if ctx.Err() != nil {
			return
		}
		hit, err := r.eval()
		if err != nil {
			log.Errorf("%s: rule %s failed: %s", e.ID, r.name, err.Error())
			continue
		}
		if hit {
			fired++
			telemetry.RuleFirings.WithLabelValues(r.name).Inc()
		}
	}

	e.publish(Level(fired))
}

// Level maps the number of fired rules to the five level scale.
func Level(fired int) int {
	return indicator.MaxLevel - fired
}

func (e *Engine) publish(level int) {
	prev := e.indicator.Level()
	e.indicator.Set(level)
	telemetry.ThreatLevel.Set(float64(level))

	if level != prev {
		log.Warnf("Metrics: Threat level changed to %d", level)
	} else {
		log.Debugf("%s: threat level steady at %d", e.ID, level)
	}
}
