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
	"context"

	"github.com/google/uuid"
	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/benchmark"
	"github.com/pingcap/graphflow/pkg/config"
	"github.com/pingcap/graphflow/pkg/generator"
	// Register the generator families.
	_ "github.com/pingcap/graphflow/pkg/generator/sbm"
	"github.com/pingcap/graphflow/pkg/sink"
	"github.com/pingcap/graphflow/pkg/storage"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

type buildOptions struct {
	runID    string
	generate generator.GenerateFunc
	registry benchmark.Registry
	store    storage.ArtifactStore
}

// BuildOption customizes Build.
type BuildOption func(*buildOptions)

// WithRunID sets the run id instead of a random one.
func WithRunID(runID string) BuildOption {
	return func(o *buildOptions) {
		o.runID = runID
	}
}

// WithGenerateFunc replaces the reference generator of the family.
func WithGenerateFunc(fn generator.GenerateFunc) BuildOption {
	return func(o *buildOptions) {
		o.generate = fn
	}
}

// WithModelRegistry resolves the benchmark models against r.
func WithModelRegistry(r benchmark.Registry) BuildOption {
	return func(o *buildOptions) {
		o.registry = r
	}
}

// WithArtifactStore uses store instead of opening cfg.Output.
func WithArtifactStore(store storage.ArtifactStore) BuildOption {
	return func(o *buildOptions) {
		o.store = store
	}
}

// Build wires a Driver from a validated config: it opens the artifact store,
// binds the benchmark models, selects the generator handler by family and
// creates the row sink.
func Build(ctx context.Context, cfg *config.Config, opts ...BuildOption) (*Driver, error) {
	if err := cfg.ValidateAndAdjust(); err != nil {
		return nil, errors.Trace(err)
	}
	o := &buildOptions{
		runID:    uuid.New().String(),
		registry: benchmark.GlobalRegistry(),
	}
	for _, opt := range opts {
		opt(o)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = storage.NewArtifactStore(ctx, cfg.Output)
		if err != nil {
			return nil, errors.Trace(err)
		}
	}

	models, err := benchmark.Bind(o.registry, benchmark.SpecsFromConfig(cfg.Models))
	if err != nil {
		return nil, errors.Trace(err)
	}
	stage := benchmark.NewStage(models, store, cfg.ModelConcurrency)

	handler, err := generator.NewHandler(ctx, cfg.Generator, &generator.Deps{
		Store:       store,
		DatasetPath: cfg.DatasetPath,
		Seed:        cfg.Seed,
		Convert:     cfg.Convert,
		Benchmark:   stage,
		Generate:    o.generate,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	rowSink, err := sink.New(ctx, cfg.Sink, store, o.runID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Info("pipeline built",
		zap.String("run-id", o.runID),
		zap.String("family", handler.Family()),
		zap.Int("models", len(models)),
		zap.String("sink", rowSink.Type()))

	return NewDriver(handler, rowSink, store, &Options{
		RunID:             o.runID,
		NumSamples:        cfg.NumSamples,
		SampleConcurrency: cfg.SampleConcurrency,
		DatasetPath:       cfg.DatasetPath,
		Config:            cfg,
		Models:            models,
	}), nil
}
