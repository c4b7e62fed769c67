// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects level and optional rotating log file.
type Options struct {
	Level string // debug, info, warn, error
	File  string // empty: stdout only

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init configures the standard logrus logger. An unknown level falls back to info.
func Init(opts Options) {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "06-01-02 15:04:05",
	})
	log.SetOutput(Writer(opts))
	if err != nil && opts.Level != "" {
		log.Warnf("logging: unknown level %q, using info", opts.Level)
	}
}

// Writer returns stdout, or stdout plus a rotating file when opts.File is set.
func Writer(opts Options) io.Writer {
	if opts.File == "" {
		return os.Stdout
	}
	rotating := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    orDefault(opts.MaxSizeMB, 50),
		MaxBackups: orDefault(opts.MaxBackups, 5),
		MaxAge:     orDefault(opts.MaxAgeDays, 14),
	}
	return io.MultiWriter(os.Stdout, rotating)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
