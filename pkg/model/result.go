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

package model

import (
	"github.com/goccy/go-json"
)

// Row keys that are not test metrics, config fields or graph metrics.
const (
	RowKeyModelName = "model_name"
	RowKeySampleID  = "sample_id"
)

// BenchmarkOutput is what a benchmark model returns.
type BenchmarkOutput struct {
	Losses      []float64
	TestMetrics map[string]float64
}

// BenchmarkResult is the persisted outcome of one (sample, model) pair.
type BenchmarkResult struct {
	SampleID        SampleID
	ModelName       string
	Losses          []float64
	TestMetrics     map[string]float64
	GeneratorConfig *GeneratorConfig
	GraphMetrics    *GraphMetrics
}

// MarshalJSON flattens the test metrics into the top level object next to
// sample_id, losses and generator_config.
func (r *BenchmarkResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.TestMetrics)+5)
	for k, v := range r.TestMetrics {
		out[k] = v
	}
	losses := r.Losses
	if losses == nil {
		losses = []float64{}
	}
	out[RowKeySampleID] = int(r.SampleID)
	out["losses"] = losses
	out["generator_config"] = r.GeneratorConfig
	out["graph_metrics"] = r.GraphMetrics
	out[RowKeyModelName] = r.ModelName
	return json.Marshal(out)
}

// Row is one downstream tabular record of a (sample, model) pair.
type Row struct {
	SampleID  SampleID
	ModelName string
	Fields    map[string]interface{}
}

// NewRow merges test metrics, generator config fields, graph metrics and the
// model name, in that order. A later source overwrites an earlier one on key
// collisions.
func NewRow(
	sampleID SampleID,
	testMetrics map[string]float64,
	cfg *GeneratorConfig,
	metrics *GraphMetrics,
	modelName string,
) *Row {
	fields := make(map[string]interface{}, len(testMetrics)+16)
	for k, v := range testMetrics {
		fields[k] = v
	}
	for k, v := range cfg.Fields() {
		fields[k] = v
	}
	for k, v := range metrics.Fields() {
		fields[k] = v
	}
	fields[RowKeyModelName] = modelName
	return &Row{
		SampleID:  sampleID,
		ModelName: modelName,
		Fields:    fields,
	}
}

// MarshalJSON encodes the row fields keyed by sample id.
func (r *Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Fields)+1)
	out[RowKeySampleID] = int(r.SampleID)
	for k, v := range r.Fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// Stage names a pipeline stage.
type Stage string

// Pipeline stages.
const (
	StageSample    Stage = "sample"
	StagePersist   Stage = "persist"
	StageConvert   Stage = "convert"
	StageBenchmark Stage = "benchmark"
)

// Diagnostic records a local failure of one unit of work.
type Diagnostic struct {
	SampleID SampleID `json:"sample_id"`
	Stage    Stage    `json:"stage"`
	Model    string   `json:"model,omitempty"`
	Artifact string   `json:"artifact,omitempty"`
	Message  string   `json:"message"`
}
