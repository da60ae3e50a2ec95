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

package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/pingcap/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// maxLoggedSQLLen bounds the statement text in logs, a batch insert of
// benchmark rows can be megabytes long.
const maxLoggedSQLLen = 512

type ormLoggerOption struct {
	slowThreshold                time.Duration
	ignoreTraceRecordNotFoundErr bool
}

type ormLoggerOptionFunc func(*ormLoggerOption)

// withSlowThreshold sets the slow statement threshold.
func withSlowThreshold(thres time.Duration) ormLoggerOptionFunc {
	return func(op *ormLoggerOption) {
		op.slowThreshold = thres
	}
}

// withIgnoreRecordNotFound stops reporting 'record not found' as an error.
func withIgnoreRecordNotFound() ormLoggerOptionFunc {
	return func(op *ormLoggerOption) {
		op.ignoreTraceRecordNotFoundErr = true
	}
}

// newOrmLogger returns a gorm logger writing to lg.
func newOrmLogger(lg *zap.Logger, opts ...ormLoggerOptionFunc) logger.Interface {
	var op ormLoggerOption
	for _, opt := range opts {
		opt(&op)
	}
	return &ormLogger{
		op:    op,
		lg:    lg,
		level: logger.Warn,
	}
}

type ormLogger struct {
	op    ormLoggerOption
	lg    *zap.Logger
	level logger.LogLevel
}

func (l *ormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *ormLogger) Info(_ context.Context, format string, args ...interface{}) {
	if l.level >= logger.Info {
		l.lg.Info(fmt.Sprintf(format, args...))
	}
}

func (l *ormLogger) Warn(_ context.Context, format string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.lg.Warn(fmt.Sprintf(format, args...))
	}
}

func (l *ormLogger) Error(_ context.Context, format string, args ...interface{}) {
	if l.level >= logger.Error {
		l.lg.Error(fmt.Sprintf(format, args...))
	}
}

func (l *ormLogger) Trace(
	_ context.Context, begin time.Time, resFunc func() (sql string, rowsAffected int64), err error,
) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := resFunc()
	if len(sql) > maxLoggedSQLLen {
		sql = sql[:maxLoggedSQLLen] + "..."
	}
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("affected-rows", rows),
	}
	if err != nil && (errors.Cause(err) != gorm.ErrRecordNotFound || !l.op.ignoreTraceRecordNotFoundErr) {
		l.lg.Error("sql statement failed", append(fields, zap.Error(err))...)
		return
	}
	if l.op.slowThreshold != 0 && elapsed > l.op.slowThreshold {
		l.lg.Warn("slow sql statement", fields...)
		return
	}
	l.lg.Debug("sql statement", fields...)
}
