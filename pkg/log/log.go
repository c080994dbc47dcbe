// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Provides a simple way of logging with different levels.
// Time/Date are not logged by default because systemd adds
// them for us (can be changed by flag '-logdate').
//
// Uses these prefixes: https://www.freedesktop.org/software/systemd/man/sd-daemon.html

var logDateTime bool

var (
	TraceWriter io.Writer = os.Stderr
	DebugWriter io.Writer = os.Stderr
	InfoWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
	FatalWriter io.Writer = os.Stderr
)

var (
	TracePrefix string = "<7>[TRACE]    "
	DebugPrefix string = "<7>[DEBUG]    "
	InfoPrefix  string = "<6>[INFO]     "
	WarnPrefix  string = "<4>[WARNING]  "
	ErrPrefix   string = "<3>[ERROR]    "
	FatalPrefix string = "<2>[FATAL]    "
)

var (
	// No Time/Date
	TraceLog *log.Logger = log.New(TraceWriter, TracePrefix, 0)
	DebugLog *log.Logger = log.New(DebugWriter, DebugPrefix, 0)
	InfoLog  *log.Logger = log.New(InfoWriter, InfoPrefix, 0)
	WarnLog  *log.Logger = log.New(WarnWriter, WarnPrefix, log.Lshortfile)
	ErrLog   *log.Logger = log.New(ErrWriter, ErrPrefix, log.Llongfile)
	FatalLog *log.Logger = log.New(FatalWriter, FatalPrefix, log.Llongfile)
	// Log Time/Date
	TraceTimeLog *log.Logger = log.New(TraceWriter, TracePrefix, log.LstdFlags)
	DebugTimeLog *log.Logger = log.New(DebugWriter, DebugPrefix, log.LstdFlags)
	InfoTimeLog  *log.Logger = log.New(InfoWriter, InfoPrefix, log.LstdFlags)
	WarnTimeLog  *log.Logger = log.New(WarnWriter, WarnPrefix, log.LstdFlags|log.Lshortfile)
	ErrTimeLog   *log.Logger = log.New(ErrWriter, ErrPrefix, log.LstdFlags|log.Llongfile)
	FatalTimeLog *log.Logger = log.New(FatalWriter, FatalPrefix, log.LstdFlags|log.Llongfile)
)

/* CONFIG */

func SetLogLevel(lvl string) {
	switch lvl {
	case "fatal":
		ErrWriter = io.Discard
		fallthrough
	case "err", "error":
		WarnWriter = io.Discard
		fallthrough
	case "warn", "warning":
		InfoWriter = io.Discard
		fallthrough
	case "info":
		DebugWriter = io.Discard
		fallthrough
	case "debug":
		TraceWriter = io.Discard
	case "trace":
		// Nothing to do...
	default:
		fmt.Printf("pkg/log: Flag 'loglevel' has invalid value %#v\npkg/log: Will use default loglevel 'trace'\n", lvl)
		SetLogLevel("trace")
		return
	}
	rebuild()
}

func SetLogDateTime(logdate bool) {
	logDateTime = logdate
}

// SetLogFile tees every level that is still enabled to the given file in
// addition to stderr. The file is created or appended to.
func SetLogFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	tee := func(w io.Writer) io.Writer {
		if w == io.Discard {
			return w
		}
		return io.MultiWriter(w, f)
	}
	TraceWriter = tee(TraceWriter)
	DebugWriter = tee(DebugWriter)
	InfoWriter = tee(InfoWriter)
	WarnWriter = tee(WarnWriter)
	ErrWriter = tee(ErrWriter)
	FatalWriter = tee(FatalWriter)
	rebuild()
	return nil
}

// The package level loggers bind their writer at creation time, so they
// have to be swapped out whenever the writers change.
func rebuild() {
	TraceLog = log.New(TraceWriter, TracePrefix, 0)
	DebugLog = log.New(DebugWriter, DebugPrefix, 0)
	InfoLog = log.New(InfoWriter, InfoPrefix, 0)
	WarnLog = log.New(WarnWriter, WarnPrefix, log.Lshortfile)
	ErrLog = log.New(ErrWriter, ErrPrefix, log.Llongfile)
	FatalLog = log.New(FatalWriter, FatalPrefix, log.Llongfile)
	TraceTimeLog = log.New(TraceWriter, TracePrefix, log.LstdFlags)
	DebugTimeLog = log.New(DebugWriter, DebugPrefix, log.LstdFlags)
	InfoTimeLog = log.New(InfoWriter, InfoPrefix, log.LstdFlags)
	WarnTimeLog = log.New(WarnWriter, WarnPrefix, log.LstdFlags|log.Lshortfile)
	ErrTimeLog = log.New(ErrWriter, ErrPrefix, log.LstdFlags|log.Llongfile)
	FatalTimeLog = log.New(FatalWriter, FatalPrefix, log.LstdFlags|log.Llongfile)
}

/* PRINT */

// Private helper
func printStr(v ...interface{}) string {
	return fmt.Sprint(v...)
}

func Print(v ...interface{}) {
	Info(v...)
}

func Trace(v ...interface{}) {
	if TraceWriter != io.Discard {
		out := printStr(v...)
		if logDateTime {
			TraceTimeLog.Output(2, out)
		} else {
			TraceLog.Output(2, out)
		}
	}
}

func Debug(v ...interface{}) {
	if DebugWriter != io.Discard {
		out := printStr(v...)
		if logDateTime {
			DebugTimeLog.Output(2, out)
		} else {
			DebugLog.Output(2, out)
		}
	}
}

func Info(v ...interface{}) {
	if InfoWriter != io.Discard {
		out := printStr(v...)
		if logDateTime {
			InfoTimeLog.Output(2, out)
		} else {
			InfoLog.Output(2, out)
		}
	}
}

func Warn(v ...interface{}) {
	if WarnWriter != io.Discard {
		out := printStr(v...)
		if logDateTime {
			WarnTimeLog.Output(2, out)
		} else {
			WarnLog.Output(2, out)
		}
	}
}

func Error(v ...interface{}) {
	if ErrWriter != io.Discard {
		out := printStr(v...)
		if logDateTime {
			ErrTimeLog.Output(2, out)
		} else {
			ErrLog.Output(2, out)
		}
	}
}

// Writes fatal log, stops application
func Fatal(v ...interface{}) {
	if FatalWriter != io.Discard {
		out := printStr(v...)
		if logDateTime {
			FatalTimeLog.Output(2, out)
		} else {
			FatalLog.Output(2, out)
		}
	}
	os.Exit(1)
}

// Writes panic stacktrace, keeps application alive
func Panic(v ...interface{}) {
	Error(v...)
	panic("Panic triggered ...")
}

/* PRINT FORMAT*/

// Private helper
func printfStr(format string, v ...interface{}) string {
	return fmt.Sprintf(format, v...)
}

func Printf(format string, v ...interface{}) {
	Infof(format, v...)
}

func Tracef(format string, v ...interface{}) {
	if TraceWriter != io.Discard {
		out := printfStr(format, v...)
		if logDateTime {
			TraceTimeLog.Output(2, out)
		} else {
			TraceLog.Output(2, out)
		}
	}
}

func Debugf(format string, v ...interface{}) {
	if DebugWriter != io.Discard {
		out := printfStr(format, v...)
		if logDateTime {
			DebugTimeLog.Output(2, out)
		} else {
			DebugLog.Output(2, out)
		}
	}
}

func Infof(format string, v ...interface{}) {
	if InfoWriter != io.Discard {
		out := printfStr(format, v...)
		if logDateTime {
			InfoTimeLog.Output(2, out)
		} else {
			InfoLog.Output(2, out)
		}
	}
}

func Warnf(format string, v ...interface{}) {
	if WarnWriter != io.Discard {
		out := printfStr(format, v...)
		if logDateTime {
			WarnTimeLog.Output(2, out)
		} else {
			WarnLog.Output(2, out)
		}
	}
}

func Errorf(format string, v ...interface{}) {
	if ErrWriter != io.Discard {
		out := printfStr(format, v...)
		if logDateTime {
			ErrTimeLog.Output(2, out)
		} else {
			ErrLog.Output(2, out)
		}
	}
}

// Writes fatal log, stops application
func Fatalf(format string, v ...interface{}) {
	if FatalWriter != io.Discard {
		out := printfStr(format, v...)
		if logDateTime {
			FatalTimeLog.Output(2, out)
		} else {
			FatalLog.Output(2, out)
		}
	}
	os.Exit(1)
}

// Writes panic stacktrace, keeps application alive
func Panicf(format string, v ...interface{}) {
	Errorf(format, v...)
	panic("Panic triggered ...")
}
