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

package sbm

import (
	"context"

	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/config"
	"github.com/pingcap/graphflow/pkg/generator"
)

func init() {
	generator.Register(config.FamilySBM, NewHandler)
}

type handler struct {
	sample    *sampleStage
	persist   *persistStage
	convert   *convertStage
	benchmark generator.BenchmarkStage
}

// NewHandler creates the stochastic block model handler.
func NewHandler(
	_ context.Context, cfg *config.GeneratorConfig, deps *generator.Deps,
) (generator.Handler, error) {
	if deps.Store == nil {
		return nil, errors.New("sbm handler needs an artifact store")
	}
	if deps.Benchmark == nil {
		return nil, errors.New("sbm handler needs a benchmark stage")
	}
	convertCfg := deps.Convert
	if convertCfg == nil {
		convertCfg = config.GetDefaultConfig().Convert
	}
	generate := deps.Generate
	if generate == nil {
		generate = Simulate
	}
	return &handler{
		sample:    newSampleStage(cfg, deps.Seed, deps.DatasetPath, generate),
		persist:   &persistStage{store: deps.Store},
		convert:   newConvertStage(deps.Store, deps.Seed, convertCfg),
		benchmark: deps.Benchmark,
	}, nil
}

func (h *handler) Family() string {
	return config.FamilySBM
}

func (h *handler) SampleStage() generator.SampleStage {
	return h.sample
}

func (h *handler) PersistStage() generator.PersistStage {
	return h.persist
}

func (h *handler) ConvertStage() generator.ConvertStage {
	return h.convert
}

func (h *handler) BenchmarkStage() generator.BenchmarkStage {
	return h.benchmark
}
