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

package benchmark

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/pingcap/errors"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/logutil"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/graphflow/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const resultArtifactSuffix = "_results"

// Stage runs every bound model against a converted sample.
type Stage struct {
	models      []*BoundModel
	store       storage.ArtifactStore
	concurrency int
}

// NewStage creates a Stage. concurrency bounds the models running at once for
// one sample.
func NewStage(models []*BoundModel, store storage.ArtifactStore, concurrency int) *Stage {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Stage{
		models:      models,
		store:       store,
		concurrency: concurrency,
	}
}

// ResultArtifact returns the result artifact path of (id, m).
func ResultArtifact(id model.SampleID, m *BoundModel) string {
	return storage.ArtifactName(id, m.Slug()+resultArtifactSuffix, "txt")
}

type modelOutcome struct {
	row  *model.Row
	diag *model.Diagnostic
}

// Benchmark implements generator.BenchmarkStage. Rows are ordered by model
// index, a failed model leaves a gap filled by its diagnostic.
func (s *Stage) Benchmark(
	ctx context.Context, conv *model.ConvertedInstance,
) ([]*model.Row, []*model.Diagnostic) {
	if conv == nil || conv.Skipped {
		return nil, nil
	}
	outcomes := make([]modelOutcome, len(s.models))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)
	for i, m := range s.models {
		i, m := i, m
		eg.Go(func() error {
			row, err := s.runModel(egCtx, conv, m)
			if err != nil {
				outcomes[i].diag = &model.Diagnostic{
					SampleID: conv.SampleID,
					Stage:    model.StageBenchmark,
					Model:    m.Slug(),
					Message:  err.Error(),
				}
				return nil
			}
			outcomes[i].row = row
			return nil
		})
	}
	_ = eg.Wait()

	var (
		rows  []*model.Row
		diags []*model.Diagnostic
	)
	for _, o := range outcomes {
		if o.row != nil {
			rows = append(rows, o.row)
		}
		if o.diag != nil {
			diags = append(diags, o.diag)
		}
	}
	return rows, diags
}

func (s *Stage) runModel(
	ctx context.Context, conv *model.ConvertedInstance, m *BoundModel,
) (row *model.Row, err error) {
	lg := logutil.NewLogger4Sample(logutil.FromContext(ctx), int(conv.SampleID))
	lg = logutil.NewLogger4Model(lg, m.Slug())
	defer func() {
		if r := recover(); r != nil {
			err = cerror.ErrBenchmarkModel.GenWithStackByArgs(
				m.Slug(), conv.SampleID, fmt.Sprintf("panic: %v", r))
		}
		if err != nil {
			benchmarkRunCounter.WithLabelValues(m.Kind, resultFailed).Inc()
			lg.Warn("benchmark model failed", logutil.ShortError(err))
			return
		}
		benchmarkRunCounter.WithLabelValues(m.Kind, resultSucceeded).Inc()
	}()

	b, err := m.New()
	if err != nil {
		return nil, cerror.ErrBenchmarkModel.GenWithStackByArgs(m.Slug(), conv.SampleID, err.Error())
	}
	name := m.displayName(b)

	start := time.Now()
	out, err := b.Benchmark(ctx, conv)
	benchmarkDuration.WithLabelValues(m.Kind).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, cerror.ErrBenchmarkModel.GenWithStackByArgs(name, conv.SampleID, err.Error())
	}
	if out == nil {
		return nil, cerror.ErrBenchmarkModel.GenWithStackByArgs(name, conv.SampleID, "no output")
	}

	result := &model.BenchmarkResult{
		SampleID:        conv.SampleID,
		ModelName:       name,
		Losses:          out.Losses,
		TestMetrics:     out.TestMetrics,
		GeneratorConfig: conv.Config,
		GraphMetrics:    conv.Metrics,
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Trace(err)
	}
	path := ResultArtifact(conv.SampleID, m)
	if err = storage.WriteArtifact(ctx, s.store, path, storage.MIMEJSON, data); err != nil {
		return nil, err
	}

	lg.Debug("benchmark model finished",
		zap.String("artifact", path),
		zap.Int("epochs", len(out.Losses)),
		zap.Duration("duration", time.Since(start)))
	return model.NewRow(conv.SampleID, out.TestMetrics, conv.Config, conv.Metrics, name), nil
}
