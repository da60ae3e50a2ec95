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
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestSampleIDString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "00000", SampleID(0).String())
	require.Equal(t, "00042", SampleID(42).String())
	require.Equal(t, "123456", SampleID(123456).String())
}

func TestGeneratorConfigIsReadOnly(t *testing.T) {
	t.Parallel()

	params := map[string]interface{}{
		ConfigKeyGeneratorName: "StochasticBlockModel",
		"num_vertices":         100,
	}
	cfg := NewGeneratorConfig(params)
	params["num_vertices"] = 1

	v, ok := cfg.Get("num_vertices")
	require.True(t, ok)
	require.Equal(t, 100, v)

	fields := cfg.Fields()
	fields["num_vertices"] = 2
	v, _ = cfg.Get("num_vertices")
	require.Equal(t, 100, v)

	require.Equal(t, "StochasticBlockModel", cfg.GeneratorName())
	require.Equal(t, []string{ConfigKeyGeneratorName, "num_vertices"}, cfg.Keys())

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	decoded := &GeneratorConfig{}
	require.NoError(t, json.Unmarshal(data, decoded))
	v, _ = decoded.Get("num_vertices")
	require.Equal(t, float64(100), v)
}

func TestGeneratorConfigListValuesAreCopied(t *testing.T) {
	t.Parallel()

	pi := []float64{0.5, 0.5}
	propMat := [][]float64{{10, 1}, {1, 10}}
	cfg := NewGeneratorConfig(map[string]interface{}{
		"pi":       pi,
		"prop_mat": propMat,
		"nested":   []interface{}{[]float64{1}, map[string]interface{}{"k": []int{1}}},
	})
	pi[0] = 0.1
	propMat[1][1] = 5

	v, _ := cfg.Get("prop_mat")
	v.([][]float64)[0][0] = 99
	fields := cfg.Fields()
	fields["pi"].([]float64)[0] = 0.9
	nested := fields["nested"].([]interface{})
	nested[0].([]float64)[0] = 7
	nested[1].(map[string]interface{})["k"].([]int)[0] = 7

	v, _ = cfg.Get("prop_mat")
	require.Equal(t, [][]float64{{10, 1}, {1, 10}}, v)
	v, _ = cfg.Get("pi")
	require.Equal(t, []float64{0.5, 0.5}, v)
	v, _ = cfg.Get("nested")
	require.Equal(t, []interface{}{[]float64{1}, map[string]interface{}{"k": []int{1}}}, v)
}

func TestNewRowMergeOrder(t *testing.T) {
	t.Parallel()

	cfg := NewGeneratorConfig(map[string]interface{}{
		"num_vertices": 100,
		"accuracy":     "shadowed by config",
		"nodes":        "shadowed by graph metrics",
		"model_name":   "shadowed by model name",
	})
	metrics := &GraphMetrics{Nodes: 100, Edges: 400, AverageNodeDegree: 4}
	row := NewRow(3, map[string]float64{"accuracy": 0.5, "f1": 0.25}, cfg, metrics, "GCN")

	require.Equal(t, SampleID(3), row.SampleID)
	require.Equal(t, "GCN", row.ModelName)
	require.Equal(t, map[string]interface{}{
		"accuracy":            "shadowed by config",
		"f1":                  0.25,
		"num_vertices":        100,
		"nodes":               100,
		"edges":               400,
		"average_node_degree": 4.0,
		"model_name":          "GCN",
	}, row.Fields)

	data, err := json.Marshal(row)
	require.NoError(t, err)
	decoded := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, float64(3), decoded[RowKeySampleID])
	require.Equal(t, "GCN", decoded[RowKeyModelName])
}

func TestNewRowWithoutMetrics(t *testing.T) {
	t.Parallel()

	row := NewRow(1, nil, nil, nil, "m")
	require.Equal(t, map[string]interface{}{"model_name": "m"}, row.Fields)
}

func TestBenchmarkResultJSON(t *testing.T) {
	t.Parallel()

	res := &BenchmarkResult{
		SampleID:        7,
		ModelName:       "NearestCentroid",
		Losses:          []float64{3, 2, 1},
		TestMetrics:     map[string]float64{"accuracy": 0.75},
		GeneratorConfig: NewGeneratorConfig(map[string]interface{}{"num_vertices": 10}),
		GraphMetrics:    &GraphMetrics{Nodes: 10, Edges: 20, AverageNodeDegree: 2},
	}
	data, err := json.Marshal(res)
	require.NoError(t, err)

	decoded := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, float64(7), decoded["sample_id"])
	require.Equal(t, 0.75, decoded["accuracy"])
	require.Equal(t, []interface{}{3.0, 2.0, 1.0}, decoded["losses"])
	require.Equal(t, map[string]interface{}{"num_vertices": 10.0}, decoded["generator_config"])
	require.Equal(t, "NearestCentroid", decoded["model_name"])
}

func TestValidateInstance(t *testing.T) {
	t.Parallel()

	valid := func() *GeneratedInstance {
		return &GeneratedInstance{
			Graph:              &Graph{NumVertices: 3, Edges: []Edge{{0, 1}, {1, 2}}},
			GraphMemberships:   []int{0, 1, 1},
			NodeFeatures:       [][]float64{{1}, {2}, {3}},
			FeatureMemberships: []int{0, 0, 1},
			EdgeFeatures: []EdgeFeature{
				{Edge: Edge{0, 1}, Features: []float64{0.5}},
				{Edge: Edge{1, 2}, Features: []float64{0.25}},
			},
		}
	}
	require.NoError(t, valid().Validate())
	require.Equal(t, 2, valid().NumClasses())

	testCases := []struct {
		mutate   func(g *GeneratedInstance)
		expected string
	}{
		{func(g *GeneratedInstance) { g.Graph = nil }, "graph is missing"},
		{func(g *GeneratedInstance) { g.Graph.NumVertices = 0 }, "graph has 0 vertices"},
		{func(g *GeneratedInstance) { g.GraphMemberships = g.GraphMemberships[:2] }, "2 graph memberships"},
		{func(g *GeneratedInstance) { g.NodeFeatures = nil }, "0 node feature rows"},
		{func(g *GeneratedInstance) { g.GraphMemberships[0] = -1 }, "negative membership"},
		{func(g *GeneratedInstance) { g.Graph.Edges[0].Dst = 3 }, "out of range"},
		{func(g *GeneratedInstance) { g.EdgeFeatures[1].Edge = Edge{0, 1} }, "duplicated edge feature key"},
	}
	for _, tc := range testCases {
		g := valid()
		tc.mutate(g)
		err := g.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), tc.expected)
		require.Contains(t, err.Error(), "ErrMalformedInstance")
	}
}

func TestMasks(t *testing.T) {
	t.Parallel()

	m := &Masks{
		Train: []bool{true, false, false},
		Val:   []bool{false, true, false},
		Test:  []bool{false, false, true},
	}
	for _, name := range MaskNames {
		require.Equal(t, 1, m.Count(name))
	}
	require.Nil(t, m.Get("unknown"))
}
