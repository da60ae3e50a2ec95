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
	"testing"

	"github.com/pingcap/graphflow/pkg/model"
	"github.com/stretchr/testify/require"
)

// newTwoClusterInstance builds two cliques of perClass nodes with well
// separated features. Per class the first two nodes are train, the third is
// val and the rest are test.
func newTwoClusterInstance(perClass int) *model.ConvertedInstance {
	n := 2 * perClass
	conv := &model.ConvertedInstance{
		SampleID:   1,
		Config:     model.NewGeneratorConfig(map[string]interface{}{"num_vertices": n}),
		NumNodes:   n,
		NumClasses: 2,
		Labels:     make([]int, n),
		Features:   make([][]float64, n),
		Masks: &model.Masks{
			Train: make([]bool, n),
			Val:   make([]bool, n),
			Test:  make([]bool, n),
		},
	}
	for i := 0; i < n; i++ {
		c := i / perClass
		conv.Labels[i] = c
		offset := float64(i%3) * 0.1
		conv.Features[i] = []float64{float64(c)*10 + offset, float64(c) * 10}
		switch i % perClass {
		case 0, 1:
			conv.Masks.Train[i] = true
		case 2:
			conv.Masks.Val[i] = true
		default:
			conv.Masks.Test[i] = true
		}
	}
	for c := 0; c < 2; c++ {
		for u := c * perClass; u < (c+1)*perClass; u++ {
			for v := c * perClass; v < (c+1)*perClass; v++ {
				if u == v {
					continue
				}
				conv.EdgeIndex[0] = append(conv.EdgeIndex[0], u)
				conv.EdgeIndex[1] = append(conv.EdgeIndex[1], v)
			}
		}
	}
	edges := len(conv.EdgeIndex[0])
	conv.Metrics = &model.GraphMetrics{
		Nodes:             n,
		Edges:             edges,
		AverageNodeDegree: float64(edges) / float64(n),
	}
	return conv
}

func TestReferenceModels(t *testing.T) {
	t.Parallel()

	conv := newTwoClusterInstance(10)
	testCases := []struct {
		kind      string
		hparams   Hparams
		accuracy  float64
		numLosses int
	}{
		{KindMajorityClass, Hparams{}, 0.5, 1},
		{KindNearestCentroid, Hparams{"epochs": int64(5), "learning_rate": 0.05}, 1, 5},
		{KindLabelPropagation, Hparams{"iterations": int64(8), "alpha": 0.8}, 1, 8},
	}
	for _, tc := range testCases {
		b, err := GlobalRegistry().CreateBenchmarker(tc.kind, tc.hparams)
		require.NoError(t, err)
		require.Equal(t, tc.kind, b.ModelName())

		out, err := b.Benchmark(context.Background(), conv)
		require.NoError(t, err, tc.kind)
		require.Len(t, out.Losses, tc.numLosses, tc.kind)
		require.InDelta(t, tc.accuracy, out.TestMetrics[MetricTestAccuracy], 1e-9, tc.kind)
		require.Contains(t, out.TestMetrics, MetricTestMacroF1)
		require.Contains(t, out.TestMetrics, MetricValAccuracy)
	}
}

func TestReferenceModelsDefaults(t *testing.T) {
	t.Parallel()

	conv := newTwoClusterInstance(6)
	for _, kind := range []string{KindNearestCentroid, KindLabelPropagation} {
		b, err := GlobalRegistry().CreateBenchmarker(kind, nil)
		require.NoError(t, err)
		out, err := b.Benchmark(context.Background(), conv)
		require.NoError(t, err)
		require.NotEmpty(t, out.Losses)
	}
}

func TestReferenceModelsInvalidHparams(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		kind    string
		hparams Hparams
		errMsg  string
	}{
		{KindMajorityClass, Hparams{"epochs": 1}, "unknown hyperparameter"},
		{KindNearestCentroid, Hparams{"epochs": 0}, "must be positive"},
		{KindNearestCentroid, Hparams{"epochs": 1.5}, "not an integer"},
		{KindNearestCentroid, Hparams{"learning_rate": 2.0}, "must be in"},
		{KindLabelPropagation, Hparams{"alpha": 1.0}, "must be in"},
		{KindLabelPropagation, Hparams{"alpha": "high"}, "not a number"},
	}
	for _, tc := range testCases {
		_, err := GlobalRegistry().CreateBenchmarker(tc.kind, tc.hparams)
		require.Error(t, err)
		require.Contains(t, err.Error(), tc.errMsg)
		require.Contains(t, err.Error(), "ErrInvalidHparam")
	}
}

func TestReferenceModelsRejectUnlabeledInstance(t *testing.T) {
	t.Parallel()

	b, err := GlobalRegistry().CreateBenchmarker(KindLabelPropagation, nil)
	require.NoError(t, err)
	_, err = b.Benchmark(context.Background(), &model.ConvertedInstance{NumNodes: 3})
	require.ErrorContains(t, err, "no labels or masks")
}

func TestMacroF1(t *testing.T) {
	t.Parallel()

	labels := []int{0, 0, 1, 1}
	mask := []bool{true, true, true, true}
	require.InDelta(t, 1.0, macroF1(labels, []int{0, 0, 1, 1}, mask, 2), 1e-9)
	// class 0: tp=2 fp=2 fn=0, class 1: tp=0 fp=0 fn=2.
	require.InDelta(t, (4.0/6.0)/2, macroF1(labels, []int{0, 0, 0, 0}, mask, 2), 1e-9)
	require.Equal(t, 0.0, macroF1(labels, labels, []bool{false, false, false, false}, 2))
}
