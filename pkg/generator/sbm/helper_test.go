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

	"github.com/pingcap/graphflow/pkg/config"
	"github.com/pingcap/graphflow/pkg/generator"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/graphflow/pkg/storage"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) storage.ArtifactStore {
	store, err := storage.NewLocalArtifactStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func newTestGeneratorConfig() *config.GeneratorConfig {
	return &config.GeneratorConfig{
		Family:                   config.FamilySBM,
		NumVerticesMin:           40,
		NumVerticesMax:           60,
		NumEdgesMin:              100,
		NumEdgesMax:              200,
		FeatureCenterDistanceMax: 3,
		FeatureDim:               4,
		EdgeCenterDistance:       2,
		EdgeFeatureDim:           2,
		ClusterProportions:       []float64{0.5, 0.5},
		PToQRatio:                8,
	}
}

// newTinyInstance has two classes of sizes 4 and 2.
func newTinyInstance() *model.GeneratedInstance {
	return &model.GeneratedInstance{
		Graph: &model.Graph{
			NumVertices: 6,
			Edges:       []model.Edge{{Src: 0, Dst: 1}, {Src: 1, Dst: 2}, {Src: 2, Dst: 3}, {Src: 4, Dst: 5}, {Src: 0, Dst: 5}},
		},
		GraphMemberships:   []int{0, 0, 0, 0, 1, 1},
		NodeFeatures:       [][]float64{{0.1, 1e-300}, {-2.5, 3}, {0, 0}, {1.0 / 3, 7}, {9, 9}, {8, -8}},
		FeatureMemberships: []int{0, 0, 0, 0, 1, 1},
		EdgeFeatures: []model.EdgeFeature{
			{Edge: model.Edge{Src: 0, Dst: 1}, Features: []float64{0.5}},
			{Edge: model.Edge{Src: 1, Dst: 2}, Features: []float64{-0.25}},
			{Edge: model.Edge{Src: 2, Dst: 3}, Features: []float64{1e10}},
			{Edge: model.Edge{Src: 4, Dst: 5}, Features: []float64{2.0 / 3}},
			{Edge: model.Edge{Src: 0, Dst: 5}, Features: []float64{0}},
		},
	}
}

func fixedGenerate(inst *model.GeneratedInstance) generator.GenerateFunc {
	return func(context.Context, *generator.GenerateParams, *rand.Rand) (*model.GeneratedInstance, error) {
		return inst, nil
	}
}

type nopBenchmarkStage struct{}

func (nopBenchmarkStage) Benchmark(
	context.Context, *model.ConvertedInstance,
) ([]*model.Row, []*model.Diagnostic) {
	return nil, nil
}

func newTestHandler(
	t *testing.T, store storage.ArtifactStore, generate generator.GenerateFunc, convert *config.ConvertConfig,
) generator.Handler {
	h, err := generator.NewHandler(context.Background(), newTestGeneratorConfig(), &generator.Deps{
		Store:     store,
		Seed:      7,
		Convert:   convert,
		Benchmark: nopBenchmarkStage{},
		Generate:  generate,
	})
	require.NoError(t, err)
	return h
}
