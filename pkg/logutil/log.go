// Copyright 2024 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package logutil

import (
	"context"
	"strings"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultLogLevel   = "info"
	defaultLogMaxDays = 30
	defaultLogMaxSize = 300 // 300MB
)

const (
	// fieldRunKey identifies all log lines of one pipeline run
	fieldRunKey = "run-id"
	// fieldSampleKey identifies all log lines of one sample chain
	fieldSampleKey = "sample-id"
	// fieldModelKey identifies log lines of one benchmark model
	fieldModelKey = "model"
)

// Config serializes log related config in toml/json.
type Config struct {
	// Log level.
	Level string `toml:"level" json:"level"`
	// Log filename, leave empty to disable file log.
	File string `toml:"file" json:"file"`
	// Max size for a single file, in MB.
	FileMaxSize int `toml:"max-size" json:"max-size"`
	// Max log keep days, default is never deleting.
	FileMaxDays int `toml:"max-days" json:"max-days"`
	// Maximum number of old log files to retain.
	FileMaxBackups int `toml:"max-backups" json:"max-backups"`
}

// Adjust adjusts config
func (cfg *Config) Adjust() {
	if len(cfg.Level) == 0 {
		cfg.Level = defaultLogLevel
	}
	if cfg.Level == "warning" {
		cfg.Level = "warn"
	}
	if cfg.FileMaxSize == 0 {
		cfg.FileMaxSize = defaultLogMaxSize
	}
	if cfg.FileMaxDays == 0 {
		cfg.FileMaxDays = defaultLogMaxDays
	}
}

// SetLogLevel changes the log level dynamically.
func SetLogLevel(level string) error {
	oldLevel := log.GetLevel()
	var lv zapcore.Level
	err := lv.UnmarshalText([]byte(strings.ToLower(level)))
	if err != nil {
		return errors.Trace(err)
	}
	if lv != oldLevel {
		log.SetLevel(lv)
		log.Info("log level changed",
			zap.Stringer("old", oldLevel), zap.Stringer("new", lv))
	}
	return nil
}

// InitLogger initializes logger
func InitLogger(cfg *Config) error {
	cfg.Adjust()
	pclogConfig := &log.Config{
		Level: cfg.Level,
		File: log.FileLogConfig{
			Filename:   cfg.File,
			MaxSize:    cfg.FileMaxSize,
			MaxDays:    cfg.FileMaxDays,
			MaxBackups: cfg.FileMaxBackups,
		},
	}

	lg, props, err := log.InitLogger(pclogConfig)
	if err != nil {
		return errors.Trace(err)
	}
	log.ReplaceGlobals(lg, props)

	// Make the level consistent with the config even if it was unmarshaled
	// with an upper-case spelling.
	return SetLogLevel(cfg.Level)
}

// ZapErrorFilter wraps zap.Error, if err is in given filterErrors, it will be set to nil
func ZapErrorFilter(err error, filterErrors ...error) zap.Field {
	cause := errors.Cause(err)
	for _, ferr := range filterErrors {
		if cause == ferr {
			return zap.Error(nil)
		}
	}
	return zap.Error(err)
}

// ShortError contructs a field which only records the error message without the
// verbose text (i.e. excludes the stack trace).
func ShortError(err error) zap.Field {
	if err == nil {
		return zap.Skip()
	}
	return zap.String("error", err.Error())
}

// NewLogger4Run returns a logger bound to one pipeline run.
func NewLogger4Run(runID string) *zap.Logger {
	return log.L().With(zap.String(fieldRunKey, runID))
}

// NewLogger4Sample returns a logger bound to one sample chain of a run.
func NewLogger4Sample(parent *zap.Logger, sampleID int) *zap.Logger {
	if parent == nil {
		parent = log.L()
	}
	return parent.With(zap.Int(fieldSampleKey, sampleID))
}

// NewLogger4Model returns a logger bound to one benchmark model of a sample.
func NewLogger4Model(parent *zap.Logger, modelName string) *zap.Logger {
	if parent == nil {
		parent = log.L()
	}
	return parent.With(zap.String(fieldModelKey, modelName))
}

type loggerKey struct{}

// NewContextWithLogger returns a new context carrying the logger.
func NewContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger carried by ctx, or the global logger.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
			return logger
		}
	}
	return log.L()
}
