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
	"sort"
	"sync"

	"github.com/pingcap/graphflow/pkg/model"
	"go.uber.org/atomic"
)

var stageOrder = map[model.Stage]int{
	model.StageSample:    0,
	model.StagePersist:   1,
	model.StageConvert:   2,
	model.StageBenchmark: 3,
}

// collector gathers the output of all sample chains.
type collector struct {
	mu    sync.Mutex
	rows  []*model.Row
	diags []*model.Diagnostic

	started   atomic.Int64
	completed atomic.Int64
	failed    [4]atomic.Int64
}

func (c *collector) addRows(rows []*model.Row) {
	if len(rows) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, rows...)
}

func (c *collector) addDiagnostics(stage model.Stage, diags ...*model.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	c.failed[stageOrder[stage]].Add(int64(len(diags)))
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, diags...)
}

// sortedDiagnostics orders the diagnostics by sample, stage, model and artifact.
func (c *collector) sortedDiagnostics() []*model.Diagnostic {
	c.mu.Lock()
	diags := append([]*model.Diagnostic(nil), c.diags...)
	c.mu.Unlock()
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.SampleID != b.SampleID {
			return a.SampleID < b.SampleID
		}
		if a.Stage != b.Stage {
			return stageOrder[a.Stage] < stageOrder[b.Stage]
		}
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		return a.Artifact < b.Artifact
	})
	return diags
}

func (c *collector) allRows() []*model.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*model.Row(nil), c.rows...)
}

// Summary describes the outcome of a run.
type Summary struct {
	RunID string `json:"run_id"`
	// Samples is the number of sample chains started.
	Samples int `json:"samples"`
	// Completed is the number of chains that reached the benchmark stage.
	Completed   int `json:"completed"`
	Rows        int `json:"rows"`
	Diagnostics int `json:"diagnostics"`
	// Failed counts the diagnostics of every stage.
	Failed map[model.Stage]int `json:"failed"`
	// ArtifactBytes is the size of all artifacts under the output location.
	ArtifactBytes int64 `json:"artifact_bytes"`
}

func (c *collector) summary(runID string) *Summary {
	c.mu.Lock()
	rows, diags := len(c.rows), len(c.diags)
	c.mu.Unlock()
	failed := make(map[model.Stage]int, len(stageOrder))
	for stage, i := range stageOrder {
		failed[stage] = int(c.failed[i].Load())
	}
	return &Summary{
		RunID:       runID,
		Samples:     int(c.started.Load()),
		Completed:   int(c.completed.Load()),
		Rows:        rows,
		Diagnostics: diags,
		Failed:      failed,
	}
}
