// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging wraps logrus with the process-wide logger used by every
// package. Nothing is written until Init is called, so library code may log
// freely in tests.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields is an alias for logrus.Fields so callers need not import logrus.
type Fields = logrus.Fields

var (
	mu  sync.RWMutex
	log = newDiscardLogger()

	// file is the log file opened by Init, closed by Close.
	file *os.File
)

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Options configures Init.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	// File receives the log output. Empty means Output is used.
	File string
	// Output is used when File is empty. Nil means stderr.
	Output io.Writer
}

// Init replaces the process logger.
func Init(opts Options) error {
	l := logrus.New()
	l.SetLevel(parseLevel(opts.Level))

	switch strings.ToLower(opts.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	var out io.Writer = os.Stderr
	var f *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		var err error
		f, err = os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = f
	} else if opts.Output != nil {
		out = opts.Output
	}
	l.SetOutput(out)

	mu.Lock()
	old := file
	log = l
	file = f
	mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Close releases the log file, if any, and discards further output.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	log = newDiscardLogger()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// SetLevel changes the level of the current logger.
func SetLevel(level string) {
	mu.RLock()
	defer mu.RUnlock()
	log.SetLevel(parseLevel(level))
}

// Level returns the current level name.
func Level() string {
	mu.RLock()
	defer mu.RUnlock()
	return log.GetLevel().String()
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger returns the current logger.
func Logger() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields Fields) *logrus.Entry {
	return Logger().WithFields(fields)
}

func Debugf(format string, args ...interface{}) {
	Logger().Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	Logger().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger().Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger().Errorf(format, args...)
}
