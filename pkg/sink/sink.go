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

	"github.com/pingcap/graphflow/pkg/config"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/graphflow/pkg/storage"
)

// RowSink is the destination of the benchmark rows of a run.
type RowSink interface {
	// WriteRows writes or buffers rows. It may be called many times.
	WriteRows(ctx context.Context, rows ...*model.Row) error
	// Flush makes every written row durable.
	Flush(ctx context.Context) error
	// Close releases the resources of the sink.
	Close() error
	// Type returns the sink type.
	Type() string
}

// New creates the row sink configured by cfg. The file sink writes into
// store, the other sinks tag their rows with runID.
func New(
	ctx context.Context, cfg *config.SinkConfig, store storage.ArtifactStore, runID string,
) (RowSink, error) {
	switch cfg.Type {
	case config.SinkTypeFile, "":
		return newFileSink(store, cfg.FileName, cfg.NumShards), nil
	case config.SinkTypeKafka:
		return newKafkaSink(ctx, cfg.Kafka, runID)
	case config.SinkTypeSQL:
		return newSQLSink(ctx, cfg.SQL, runID)
	}
	return nil, cerror.ErrUnknownSinkType.GenWithStackByArgs(cfg.Type)
}

func observeWrite(sinkType string, rows int, start time.Time, err error) {
	if err != nil {
		sinkWriteErrorCounter.WithLabelValues(sinkType).Inc()
		return
	}
	sinkRowsCounter.WithLabelValues(sinkType).Add(float64(rows))
	sinkWriteDuration.WithLabelValues(sinkType).Observe(time.Since(start).Seconds())
}
