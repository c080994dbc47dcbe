// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.

// antikythera detects fake base stations ("IMSI catchers") by decoding
// GSMTAP-encapsulated GSM signalling, storing the security-relevant
// records and continuously scoring them against a set of detection
// rules. The result is a coarse threat level on a five level scale,
// published through a shared indicator cell.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/finding-ray/antikythera/internal/capture"
	"github.com/finding-ray/antikythera/internal/config"
	"github.com/finding-ray/antikythera/internal/decoder"
	"github.com/finding-ray/antikythera/internal/indicator"
	"github.com/finding-ray/antikythera/internal/metrics"
	"github.com/finding-ray/antikythera/internal/queue"
	"github.com/finding-ray/antikythera/internal/repository"
	"github.com/finding-ray/antikythera/internal/telemetry"
	"github.com/finding-ray/antikythera/pkg/log"
)

const version = "1.0.0"

func main() {
	cliInit()

	if flagVersion {
		fmt.Printf("antikythera %s\n", version)
		return
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("parsing './.env' file failed: %s", err.Error())
	}

	setupLogging()

	config.Init(flagConfigFile)
	applyFlags()

	if flagMigrateDB {
		if err := repository.MigrateDB(config.Keys.DBDriver, config.Keys.DB); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := config.Validate(); err != nil {
		log.Fatal(err)
	}

	if dir := filepath.Dir(config.Keys.DB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("creating data directory %s failed: %s", dir, err.Error())
		}
	}
	log.Infof("Anti: database storage set to %s", config.Keys.DB)

	// Schema creation opens its own short-lived connection and closes
	// it again; the shared handle is only opened afterwards.
	if err := repository.MigrateDB(config.Keys.DBDriver, config.Keys.DB); err != nil {
		log.Fatal(err)
	}
	repository.Connect(config.Keys.DBDriver, config.Keys.DB)

	var metricsSrv interface{ Close() error }
	if config.Keys.MetricsAddr != "" {
		metricsSrv = telemetry.StartHTTP(config.Keys.MetricsAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Print("Anti: received shutdown command")
		cancel()
	}()

	q := queue.New(config.Keys.QueueSize)
	ind := indicator.New()

	var wg sync.WaitGroup

	for i := 0; i < config.Keys.Threads; i++ {
		d := decoder.New(fmt.Sprintf("decoder-%d", i), q)
		log.Infof("Anti: Creating decoder process %s", d.ID)
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Run(ctx)
		}()
	}

	engine := metrics.NewEngine("metrics", ind)
	log.Info("Anti: Creating metric process metrics")
	wg.Add(1)
	go func() {
		defer wg.Done()
		engine.Run(ctx)
	}()

	radio := capture.New("radio", q,
		config.Keys.Interface, config.Keys.CaptureFile, config.ReplayDelay())
	log.Info("Anti: Creating radio process radio")
	var captureErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		captureErr = radio.Run(ctx)
	}()

	if !config.Keys.Headless {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runIndicatorFrontend(ctx, ind)
		}()
	}

	log.Info("Anti: successfully started")
	wg.Wait()

	if metricsSrv != nil {
		metricsSrv.Close()
	}

	if captureErr != nil {
		log.Errorf("Anti: capture failed: %s", captureErr.Error())
		os.Exit(1)
	}
	log.Print("Graceful shutdown completed!")
}

func setupLogging() {
	verbosity := 0
	level := "warning"
	if flagVerbose {
		verbosity++
		level = "info"
	}
	if flagVeryVerbose {
		verbosity++
		level = "debug"
	}
	if flagTrace {
		verbosity++
		level = "trace"
	}
	if verbosity > 1 {
		fmt.Fprintln(os.Stderr, "flags -verbose, -very-verbose and -trace are mutually exclusive")
		os.Exit(2)
	}

	log.SetLogLevel(level)
	log.SetLogDateTime(flagLogDateTime)
	if flagLogFile != "" {
		if err := log.SetLogFile(flagLogFile); err != nil {
			log.Fatalf("opening logfile failed: %s", err.Error())
		}
	}
}

// applyFlags overlays flags that were given on the command line over
// the config bundle.
func applyFlags() {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "threads":
			config.Keys.Threads = flagThreads
		case "qsize":
			config.Keys.QueueSize = flagQsize
		case "headless":
			config.Keys.Headless = flagHeadless
		case "capture":
			config.Keys.CaptureFile = flagCapture
		case "interface":
			config.Keys.Interface = flagInterface
		case "delay":
			config.Keys.ReplayDelay = flagDelay
		case "db":
			config.Keys.DB = flagDB
		case "logfile":
			config.Keys.LogFile = flagLogFile
		case "metrics-addr":
			config.Keys.MetricsAddr = flagMetricsAddr
		}
	})

	if config.Keys.LogFile != "" && flagLogFile == "" {
		// Configured through the bundle instead of the flag.
		if err := log.SetLogFile(config.Keys.LogFile); err != nil {
			log.Fatalf("opening logfile failed: %s", err.Error())
		}
	}
}

// runIndicatorFrontend is the stand-in for the graphical indicator: it
// mirrors every threat level change to stdout.
func runIndicatorFrontend(ctx context.Context, ind *indicator.Indicator) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if level := ind.Level(); level != last {
				fmt.Printf("threat level: %d\n", level)
				last = level
			}
		}
	}
}
