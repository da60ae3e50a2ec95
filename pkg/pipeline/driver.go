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

package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/benchmark"
	"github.com/pingcap/graphflow/pkg/config"
	"github.com/pingcap/graphflow/pkg/generator"
	"github.com/pingcap/graphflow/pkg/logutil"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/graphflow/pkg/sink"
	"github.com/pingcap/graphflow/pkg/storage"
	"github.com/pingcap/graphflow/pkg/version"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Output files of a run, next to the sample artifacts.
const (
	DiagnosticsFile = "diagnostics.ndjson"
	RunMetadataFile = "run_metadata.json"
)

// Options are the run level settings of a Driver.
type Options struct {
	RunID             string
	NumSamples        int
	SampleConcurrency int
	DatasetPath       string
	// Config and Models are recorded in the run metadata.
	Config *config.Config
	Models []*benchmark.BoundModel
}

// Driver runs the Sample, Persist, Convert and Benchmark stages of every
// sample of a batch.
type Driver struct {
	opts    Options
	handler generator.Handler
	sink    sink.RowSink
	store   storage.ArtifactStore
	lg      *zap.Logger
}

// NewDriver creates a Driver.
func NewDriver(
	handler generator.Handler, rowSink sink.RowSink, store storage.ArtifactStore, opts *Options,
) *Driver {
	o := *opts
	if o.SampleConcurrency <= 0 {
		o.SampleConcurrency = 1
	}
	return &Driver{
		opts:    o,
		handler: handler,
		sink:    rowSink,
		store:   store,
		lg:      logutil.NewLogger4Run(o.RunID),
	}
}

// RunID returns the identifier of the run.
func (d *Driver) RunID() string {
	return d.opts.RunID
}

// Run processes sample ids 0..NumSamples-1. A failing sample chain is
// recorded as a diagnostic and never stops the others. Run returns an error
// only if the context is cancelled or the run outputs cannot be written.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	d.lg.Info("pipeline run started",
		zap.String("family", d.handler.Family()),
		zap.Int("num-samples", d.opts.NumSamples),
		zap.Int("sample-concurrency", d.opts.SampleConcurrency),
		zap.String("output", d.store.URI()))

	ctx = logutil.NewContextWithLogger(ctx, d.lg)
	c := &collector{}
	eg := &errgroup.Group{}
	eg.SetLimit(d.opts.SampleConcurrency)
	for i := 0; i < d.opts.NumSamples; i++ {
		if ctx.Err() != nil {
			break
		}
		id := model.SampleID(i)
		c.started.Inc()
		eg.Go(func() error {
			d.runChain(ctx, id, c)
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		d.lg.Warn("pipeline run cancelled",
			logutil.ZapErrorFilter(err, context.Canceled),
			zap.Int64("started", c.started.Load()),
			zap.Int64("completed", c.completed.Load()),
			zap.Duration("duration", time.Since(start)))
		return c.summary(d.opts.RunID), errors.Trace(err)
	}

	rows := c.allRows()
	if err := d.sink.WriteRows(ctx, rows...); err != nil {
		return nil, errors.Trace(err)
	}
	if err := d.sink.Flush(ctx); err != nil {
		return nil, errors.Trace(err)
	}
	if err := d.writeDiagnostics(ctx, c.sortedDiagnostics()); err != nil {
		return nil, errors.Trace(err)
	}

	summary := c.summary(d.opts.RunID)
	summary.ArtifactBytes = d.artifactBytes(ctx)
	if err := d.writeRunMetadata(ctx, start, time.Now(), summary); err != nil {
		return nil, errors.Trace(err)
	}
	d.lg.Info("pipeline run finished",
		zap.Int("samples", summary.Samples),
		zap.Int("completed", summary.Completed),
		zap.Int("rows", summary.Rows),
		zap.Int("diagnostics", summary.Diagnostics),
		zap.Duration("duration", time.Since(start)))
	return summary, nil
}

// Close closes the row sink.
func (d *Driver) Close() error {
	return d.sink.Close()
}

func (d *Driver) runChain(ctx context.Context, id model.SampleID, c *collector) {
	lg := logutil.NewLogger4Sample(d.lg, int(id))
	start := time.Now()
	runningChainsGauge.Inc()
	defer func() {
		runningChainsGauge.Dec()
		chainDuration.Observe(time.Since(start).Seconds())
	}()

	rec, err := d.handler.SampleStage().Sample(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		lg.Warn("sample stage failed, sample dropped", logutil.ShortError(err))
		samplesCounter.WithLabelValues(string(model.StageSample), resultFailed).Inc()
		c.addDiagnostics(model.StageSample, &model.Diagnostic{
			SampleID: id,
			Stage:    model.StageSample,
			Message:  err.Error(),
		})
		return
	}
	samplesCounter.WithLabelValues(string(model.StageSample), resultSucceeded).Inc()

	rec, diags, err := d.handler.PersistStage().Persist(ctx, rec)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if len(diags) == 0 {
			diags = []*model.Diagnostic{{SampleID: id, Stage: model.StagePersist, Message: err.Error()}}
		}
		lg.Warn("persist stage failed, sample dropped",
			zap.Int("failed-artifacts", len(diags)), logutil.ShortError(err))
		samplesCounter.WithLabelValues(string(model.StagePersist), resultFailed).Inc()
		c.addDiagnostics(model.StagePersist, diags...)
		return
	}
	samplesCounter.WithLabelValues(string(model.StagePersist), resultSucceeded).Inc()
	if ctx.Err() != nil {
		return
	}

	conv := d.handler.ConvertStage().Convert(ctx, rec)
	if conv == nil || conv.Skipped {
		if ctx.Err() != nil {
			return
		}
		msg := "convert stage returned no instance"
		if conv != nil {
			msg = conv.Diagnostic
		}
		lg.Warn("convert stage skipped the sample", zap.String("reason", msg))
		samplesCounter.WithLabelValues(string(model.StageConvert), resultFailed).Inc()
		c.addDiagnostics(model.StageConvert, &model.Diagnostic{
			SampleID: id,
			Stage:    model.StageConvert,
			Message:  msg,
		})
		return
	}
	samplesCounter.WithLabelValues(string(model.StageConvert), resultSucceeded).Inc()

	rows, diags := d.handler.BenchmarkStage().Benchmark(ctx, conv)
	if ctx.Err() != nil {
		return
	}
	c.completed.Inc()
	c.addRows(rows)
	c.addDiagnostics(model.StageBenchmark, diags...)
	result := resultSucceeded
	if len(diags) > 0 {
		result = resultFailed
	}
	samplesCounter.WithLabelValues(string(model.StageBenchmark), result).Inc()
	lg.Debug("sample chain finished",
		zap.Int("rows", len(rows)),
		zap.Int("failed-models", len(diags)),
		zap.Duration("duration", time.Since(start)))
}

func (d *Driver) writeDiagnostics(ctx context.Context, diags []*model.Diagnostic) error {
	var buf bytes.Buffer
	for _, diag := range diags {
		line, err := json.Marshal(diag)
		if err != nil {
			return errors.Trace(err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return storage.WriteArtifact(ctx, d.store, DiagnosticsFile, storage.MIMENDJSON, buf.Bytes())
}

// ModelMetadata describes one bound benchmark model.
type ModelMetadata struct {
	Index   int                    `json:"index"`
	Kind    string                 `json:"kind"`
	Name    string                 `json:"name,omitempty"`
	Slug    string                 `json:"slug"`
	Hparams map[string]interface{} `json:"hparams"`
}

// RunMetadata is the content of the run metadata artifact.
type RunMetadata struct {
	RunID       string          `json:"run_id"`
	Version     string          `json:"version"`
	Semver      string          `json:"semver,omitempty"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Family      string          `json:"family"`
	DatasetPath string          `json:"dataset_path"`
	Output      string          `json:"output"`
	Config      json.RawMessage `json:"config,omitempty"`
	Models      []ModelMetadata `json:"models"`
	Summary     *Summary        `json:"summary"`
}

func (d *Driver) writeRunMetadata(ctx context.Context, start, end time.Time, summary *Summary) error {
	meta := &RunMetadata{
		RunID:       d.opts.RunID,
		Version:     version.ReleaseVersion,
		Semver:      version.ReleaseSemver(),
		StartTime:   start,
		EndTime:     end,
		Family:      d.handler.Family(),
		DatasetPath: d.opts.DatasetPath,
		Output:      d.store.URI(),
		Models:      make([]ModelMetadata, 0, len(d.opts.Models)),
		Summary:     summary,
	}
	if d.opts.Config != nil {
		if cfg := d.opts.Config.String(); cfg != "" {
			meta.Config = json.RawMessage(cfg)
		}
	}
	for _, m := range d.opts.Models {
		meta.Models = append(meta.Models, ModelMetadata{
			Index:   m.Index,
			Kind:    m.Kind,
			Name:    m.Name,
			Slug:    m.Slug(),
			Hparams: m.Hparams.Clone(),
		})
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Trace(err)
	}
	return storage.WriteArtifact(ctx, d.store, RunMetadataFile, storage.MIMEJSON, data)
}

// ReadRunMetadata reads the run metadata artifact back.
func ReadRunMetadata(ctx context.Context, store storage.ArtifactStore) (*RunMetadata, error) {
	data, err := store.ReadFile(ctx, RunMetadataFile)
	if err != nil {
		return nil, err
	}
	meta := &RunMetadata{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, errors.Trace(err)
	}
	return meta, nil
}

func (d *Driver) artifactBytes(ctx context.Context) int64 {
	var total int64
	err := d.store.Walk(ctx, func(_ string, size int64) error {
		total += size
		return nil
	})
	if err != nil {
		d.lg.Warn("walk artifacts failed", logutil.ShortError(err))
	}
	return total
}
