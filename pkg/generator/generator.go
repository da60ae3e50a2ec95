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

package generator

import (
	"context"
	"math/rand"

	"github.com/pingcap/graphflow/pkg/config"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/graphflow/pkg/storage"
)

// GenerateParams is the input of a GenerateFunc.
type GenerateParams struct {
	SampleID    model.SampleID
	Config      *model.GeneratorConfig
	DatasetPath string
}

// GenerateFunc produces one synthetic instance. It must only draw randomness
// from rng so that a sample is reproducible regardless of scheduling.
type GenerateFunc func(ctx context.Context, params *GenerateParams, rng *rand.Rand) (*model.GeneratedInstance, error)

// SampleStage draws the generator config of a sample and generates its instance.
type SampleStage interface {
	// Sample returns an error if the generator fails, the sample is dropped
	// in that case.
	Sample(ctx context.Context, id model.SampleID) (*model.SampleRecord, error)
}

// PersistStage writes the artifacts of a generated sample.
type PersistStage interface {
	// Persist writes every artifact independently. It returns one diagnostic
	// per failed artifact and a non-nil error if any artifact failed. The
	// record is returned unchanged.
	Persist(ctx context.Context, rec *model.SampleRecord) (*model.SampleRecord, []*model.Diagnostic, error)
}

// ConvertStage turns a generated sample into its model-ready form. A failure
// is recorded in the returned instance, Convert never fails.
type ConvertStage interface {
	Convert(ctx context.Context, rec *model.SampleRecord) *model.ConvertedInstance
}

// BenchmarkStage runs every configured model against a converted sample.
type BenchmarkStage interface {
	// Benchmark returns one row per succeeded model and one diagnostic per
	// failed model. A skipped instance yields neither.
	Benchmark(ctx context.Context, conv *model.ConvertedInstance) ([]*model.Row, []*model.Diagnostic)
}

// Handler supplies the four stages of one generator family.
type Handler interface {
	// Family returns the generator family name.
	Family() string
	SampleStage() SampleStage
	PersistStage() PersistStage
	ConvertStage() ConvertStage
	BenchmarkStage() BenchmarkStage
}

// Deps are the run level collaborators a Handler is built with.
type Deps struct {
	Store       storage.ArtifactStore
	DatasetPath string
	Seed        int64
	Convert     *config.ConvertConfig
	// Benchmark is the benchmark stage shared by all families.
	Benchmark BenchmarkStage
	// Generate overrides the family's reference generator if set.
	Generate GenerateFunc
}

// Builder creates a Handler from the family config.
type Builder func(ctx context.Context, cfg *config.GeneratorConfig, deps *Deps) (Handler, error)
