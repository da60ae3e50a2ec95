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
	"time"

	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/config"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/logutil"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const sqlSlowThreshold = 200 * time.Millisecond

// BenchmarkRow is the table layout of the sql sink. The row fields vary with
// the generator family and the models, so they are kept as a JSON document.
type BenchmarkRow struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	RunID     string    `gorm:"column:run_id;type:varchar(64);not null;index:idx_run_sample,priority:1"`
	SampleID  int       `gorm:"column:sample_id;not null;index:idx_run_sample,priority:2"`
	ModelName string    `gorm:"column:model_name;type:varchar(256);not null"`
	Fields    string    `gorm:"column:fields;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

type sqlSink struct {
	db        *gorm.DB
	table     string
	batchSize int
	runID     string
}

func openDialector(cfg *config.SQLConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.SQLDriverMySQL, "":
		return mysql.Open(cfg.DSN), nil
	case config.SQLDriverSQLite:
		return sqlite.Open(cfg.DSN), nil
	}
	return nil, cerror.ErrSinkInit.GenWithStackByArgs(config.SinkTypeSQL + " driver " + cfg.Driver)
}

func newSQLSink(ctx context.Context, cfg *config.SQLConfig, runID string) (*sqlSink, error) {
	if cfg == nil {
		return nil, cerror.ErrSinkInit.GenWithStackByArgs(config.SinkTypeSQL)
	}
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger: newOrmLogger(log.L().With(zap.String("component", "sql-sink")),
			withSlowThreshold(sqlSlowThreshold),
			withIgnoreRecordNotFound()),
	})
	if err != nil {
		return nil, cerror.WrapError(cerror.ErrSinkInit, err)
	}
	if err := db.WithContext(ctx).Table(cfg.Table).AutoMigrate(&BenchmarkRow{}); err != nil {
		closeDB(db)
		return nil, cerror.WrapError(cerror.ErrSinkInit, err)
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	log.Info("sql sink created",
		zap.String("driver", cfg.Driver),
		zap.String("dsn", logutil.HideSensitive(cfg.DSN)),
		zap.String("table", cfg.Table))
	return &sqlSink{
		db:        db,
		table:     cfg.Table,
		batchSize: batchSize,
		runID:     runID,
	}, nil
}

func (s *sqlSink) Type() string {
	return config.SinkTypeSQL
}

func (s *sqlSink) WriteRows(ctx context.Context, rows ...*model.Row) (err error) {
	if len(rows) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observeWrite(s.Type(), len(rows), start, err) }()

	records := make([]*BenchmarkRow, 0, len(rows))
	for _, row := range rows {
		fields, err := json.Marshal(row)
		if err != nil {
			return cerror.WrapError(cerror.ErrSinkWrite, err)
		}
		records = append(records, &BenchmarkRow{
			RunID:     s.runID,
			SampleID:  int(row.SampleID),
			ModelName: row.ModelName,
			Fields:    string(fields),
		})
	}
	res := s.db.WithContext(ctx).Table(s.table).CreateInBatches(records, s.batchSize)
	if res.Error != nil {
		return cerror.WrapError(cerror.ErrSinkWrite, res.Error)
	}
	return nil
}

// Flush is a no-op, rows are committed by WriteRows.
func (s *sqlSink) Flush(context.Context) error {
	return nil
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if err != nil {
		log.Warn("close sql sink database failed", zap.Error(err))
	}
}

func (s *sqlSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(sqlDB.Close())
}
