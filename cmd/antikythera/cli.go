// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package main

import "flag"

var (
	flagHeadless, flagVerbose, flagVeryVerbose, flagTrace, flagLogDateTime,
	flagVersion, flagMigrateDB bool
	flagThreads, flagQsize int
	flagCapture, flagInterface, flagDelay, flagConfigFile, flagDB,
	flagLogFile, flagMetricsAddr string
)

func cliInit() {
	flag.IntVar(&flagThreads, "threads", 1, "Number of decoder workers to use")
	flag.IntVar(&flagQsize, "qsize", 100000, "The maximum queue size for frames waiting to be processed")
	flag.BoolVar(&flagHeadless, "headless", false, "Run without the indicator front-end")
	flag.BoolVar(&flagVerbose, "verbose", false, "Set loglevel to INFO")
	flag.BoolVar(&flagVeryVerbose, "very-verbose", false, "Set loglevel to DEBUG")
	flag.BoolVar(&flagTrace, "trace", false, "Set loglevel to TRACE")
	flag.StringVar(&flagCapture, "capture", "", "Path to a capture file to use as input")
	flag.StringVar(&flagInterface, "interface", "", "The identifier of the network interface to use")
	flag.StringVar(&flagDelay, "delay", "", "Pause between enqueued frames during file replay (default 200ms)")
	flag.StringVar(&flagDB, "db", "", "Path of the sqlite database file")
	flag.StringVar(&flagLogFile, "logfile", "", "Append every log line to this file in addition to stderr")
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Specify alternative path to `config.json`")
	flag.BoolVar(&flagLogDateTime, "logdate", false, "Set this flag to add date and time to log messages")
	flag.StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address")
	flag.BoolVar(&flagMigrateDB, "migrate-db", false, "Migrate database to supported version and exit")
	flag.BoolVar(&flagVersion, "version", false, "Show version information and exit")
	flag.Parse()
}
