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
	"math/rand"
	"testing"

	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/config"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/generator"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/stretchr/testify/require"
)

func TestHandlerIsRegistered(t *testing.T) {
	t.Parallel()

	require.Contains(t, generator.GlobalRegistry().Families(), config.FamilySBM)
	h := newTestHandler(t, newTestStore(t), nil, nil)
	require.Equal(t, config.FamilySBM, h.Family())
	require.NotNil(t, h.SampleStage())
	require.NotNil(t, h.PersistStage())
	require.NotNil(t, h.ConvertStage())
	require.Equal(t, nopBenchmarkStage{}, h.BenchmarkStage())

	_, err := NewHandler(context.Background(), newTestGeneratorConfig(), &generator.Deps{})
	require.ErrorContains(t, err, "artifact store")
	_, err = NewHandler(context.Background(), newTestGeneratorConfig(), &generator.Deps{Store: newTestStore(t)})
	require.ErrorContains(t, err, "benchmark stage")
}

func TestSampleStage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newTestHandler(t, newTestStore(t), nil, nil)
	cfg := newTestGeneratorConfig()

	rec, err := h.SampleStage().Sample(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, model.SampleID(3), rec.SampleID)
	require.Equal(t, GeneratorName, rec.Config.GeneratorName())

	p, err := ParamsFromConfig(rec.Config)
	require.NoError(t, err)
	require.GreaterOrEqual(t, p.NumVertices, cfg.NumVerticesMin)
	require.Less(t, p.NumVertices, cfg.NumVerticesMax)
	require.GreaterOrEqual(t, p.NumEdges, cfg.NumEdgesMin)
	require.Less(t, p.NumEdges, cfg.NumEdgesMax)
	require.GreaterOrEqual(t, p.FeatureCenterDistance, 0.0)
	require.Less(t, p.FeatureCenterDistance, cfg.FeatureCenterDistanceMax)
	require.Equal(t, [][]float64{{8, 1}, {1, 8}}, p.PropensityMatrix)
	require.Equal(t, []float64{0.5, 0.5}, p.ClusterProportions)
	require.Equal(t, p.NumVertices, rec.Instance.Graph.NumVertices)
	require.NoError(t, rec.Instance.Validate())

	seed, ok := rec.Config.Get(model.ConfigKeySeed)
	require.True(t, ok)
	require.Equal(t, generator.SampleSeed(7, 3, generator.StreamGenerate), seed)
}

func TestSampleStageIsReproducible(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h1 := newTestHandler(t, newTestStore(t), nil, nil)
	h2 := newTestHandler(t, newTestStore(t), nil, nil)

	a, err := h1.SampleStage().Sample(ctx, 5)
	require.NoError(t, err)
	// draw other samples first, the order must not matter
	_, err = h2.SampleStage().Sample(ctx, 4)
	require.NoError(t, err)
	b, err := h2.SampleStage().Sample(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, a.Config.Fields(), b.Config.Fields())
	require.Equal(t, a.Instance, b.Instance)

	c, err := h1.SampleStage().Sample(ctx, 6)
	require.NoError(t, err)
	require.NotEqual(t, a.Config.Fields(), c.Config.Fields())
}

func TestSampleStageGeneratorError(t *testing.T) {
	t.Parallel()

	var seen *generator.GenerateParams
	failing := func(_ context.Context, params *generator.GenerateParams, _ *rand.Rand) (*model.GeneratedInstance, error) {
		seen = params
		return nil, errors.New("singular propensity matrix")
	}
	h := newTestHandler(t, newTestStore(t), failing, nil)
	_, err := h.SampleStage().Sample(context.Background(), 2)
	require.Error(t, err)
	require.True(t, cerror.ErrGenerateSample.Equal(err), err.Error())
	require.Contains(t, err.Error(), "singular propensity matrix")
	require.Equal(t, model.SampleID(2), seen.SampleID)

	nilGenerate := func(context.Context, *generator.GenerateParams, *rand.Rand) (*model.GeneratedInstance, error) {
		return nil, nil
	}
	h = newTestHandler(t, newTestStore(t), nilGenerate, nil)
	_, err = h.SampleStage().Sample(context.Background(), 2)
	require.ErrorContains(t, err, "no instance")
}

func TestSimulate(t *testing.T) {
	t.Parallel()

	cfg := model.NewGeneratorConfig(map[string]interface{}{
		KeyNumVertices:           100,
		KeyNumEdges:              300,
		KeyFeatureDim:            3,
		KeyFeatureCenterDistance: 2.0,
		KeyEdgeCenterDistance:    1.0,
		KeyEdgeFeatureDim:        2,
		KeyClusterProportions:    []float64{0.3, 0.3, 0.4},
		KeyPropensityMatrix:      propensityMatrix(3, 5),
	})
	inst, err := Simulate(context.Background(), &generator.GenerateParams{Config: cfg}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.NoError(t, inst.Validate())

	sizes := make([]int, 3)
	for _, c := range inst.GraphMemberships {
		sizes[c]++
	}
	require.Equal(t, []int{30, 30, 40}, sizes)
	require.Equal(t, inst.GraphMemberships, inst.FeatureMemberships)

	require.LessOrEqual(t, len(inst.Graph.Edges), 300)
	require.Greater(t, len(inst.Graph.Edges), 250)
	seen := make(map[model.Edge]struct{})
	for _, e := range inst.Graph.Edges {
		require.Less(t, e.Src, e.Dst)
		_, dup := seen[e]
		require.False(t, dup)
		seen[e] = struct{}{}
	}
	require.Len(t, inst.EdgeFeatures, len(inst.Graph.Edges))
	for i, ef := range inst.EdgeFeatures {
		require.Equal(t, inst.Graph.Edges[i], ef.Edge)
		require.Len(t, ef.Features, 2)
	}
	for _, row := range inst.NodeFeatures {
		require.Len(t, row, 3)
	}
}

func TestSimulateCapsEdges(t *testing.T) {
	t.Parallel()

	cfg := model.NewGeneratorConfig(map[string]interface{}{
		KeyNumVertices:           5,
		KeyNumEdges:              1000,
		KeyFeatureDim:            1,
		KeyFeatureCenterDistance: 1.0,
		KeyEdgeCenterDistance:    1.0,
		KeyEdgeFeatureDim:        0,
		KeyClusterProportions:    []float64{1},
		KeyPropensityMatrix:      [][]float64{{1}},
	})
	inst, err := Simulate(context.Background(), &generator.GenerateParams{Config: cfg}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, inst.Graph.Edges, 10)
}

func TestParamsFromConfig(t *testing.T) {
	t.Parallel()

	// decoded from JSON, numbers are float64 and lists are []interface{}
	cfg := model.NewGeneratorConfig(map[string]interface{}{
		KeyNumVertices:           float64(10),
		KeyNumEdges:              int64(20),
		KeyFeatureDim:            2,
		KeyFeatureCenterDistance: 1,
		KeyEdgeCenterDistance:    0.5,
		KeyEdgeFeatureDim:        float64(1),
		KeyClusterProportions:    []interface{}{0.5, 0.5},
		KeyPropensityMatrix:      []interface{}{[]interface{}{2.0, 1.0}, []interface{}{1.0, int64(2)}},
	})
	p, err := ParamsFromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, &Params{
		NumVertices:           10,
		NumEdges:              20,
		FeatureDim:            2,
		FeatureCenterDistance: 1,
		EdgeCenterDistance:    0.5,
		EdgeFeatureDim:        1,
		ClusterProportions:    []float64{0.5, 0.5},
		PropensityMatrix:      [][]float64{{2, 1}, {1, 2}},
	}, p)

	bad := cfg.Fields()
	bad[KeyPropensityMatrix] = [][]float64{{1}}
	_, err = ParamsFromConfig(model.NewGeneratorConfig(bad))
	require.ErrorContains(t, err, "propensity matrix")

	delete(bad, KeyNumEdges)
	_, err = ParamsFromConfig(model.NewGeneratorConfig(bad))
	require.ErrorContains(t, err, "has no num_edges")

	bad[KeyNumEdges] = "many"
	_, err = ParamsFromConfig(model.NewGeneratorConfig(bad))
	require.ErrorContains(t, err, "not an integer")
}

func TestSampleStageRecoversGeneratorPanic(t *testing.T) {
	t.Parallel()

	generate := func(_ context.Context, p *generator.GenerateParams, _ *rand.Rand) (*model.GeneratedInstance, error) {
		var counts map[model.SampleID]int
		counts[p.SampleID]++
		return nil, nil
	}
	h := newTestHandler(t, newTestStore(t), generate, nil)
	rec, err := h.SampleStage().Sample(context.Background(), 1)
	require.Nil(t, rec)
	require.Error(t, err)
	require.True(t, cerror.ErrGenerateSample.Equal(err))
	require.Contains(t, err.Error(), "generator panicked")
	require.Contains(t, err.Error(), "nil map")
}
