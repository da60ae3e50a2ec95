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

	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/config"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/generator"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

type sampleStage struct {
	cfg         *config.GeneratorConfig
	seed        int64
	datasetPath string
	generate    generator.GenerateFunc
	propMat     [][]float64
}

func newSampleStage(
	cfg *config.GeneratorConfig, seed int64, datasetPath string, generate generator.GenerateFunc,
) *sampleStage {
	return &sampleStage{
		cfg:         cfg,
		seed:        seed,
		datasetPath: datasetPath,
		generate:    generate,
		propMat:     propensityMatrix(cfg.NumClusters(), cfg.PToQRatio),
	}
}

// propensityMatrix returns 1 + (pToQ-1)*I.
func propensityMatrix(k int, pToQ float64) [][]float64 {
	m := make([][]float64, k)
	for i := range m {
		m[i] = make([]float64, k)
		for j := range m[i] {
			m[i][j] = 1
		}
		m[i][i] = pToQ
	}
	return m
}

// Sample draws the sample parameters from the sample's own random stream,
// then hands the same stream to the generator.
func (s *sampleStage) Sample(ctx context.Context, id model.SampleID) (*model.SampleRecord, error) {
	sampleSeed := generator.SampleSeed(s.seed, id, generator.StreamGenerate)
	rng := generator.SampleRand(s.seed, id, generator.StreamGenerate)

	numVertices := s.cfg.NumVerticesMin + rng.Intn(s.cfg.NumVerticesMax-s.cfg.NumVerticesMin)
	numEdges := s.cfg.NumEdgesMin + rng.Intn(s.cfg.NumEdgesMax-s.cfg.NumEdgesMin)
	featureCenterDistance := rng.Float64() * s.cfg.FeatureCenterDistanceMax

	propMat := make([][]float64, len(s.propMat))
	for i, row := range s.propMat {
		propMat[i] = append([]float64(nil), row...)
	}
	cfg := model.NewGeneratorConfig(map[string]interface{}{
		model.ConfigKeyGeneratorName: GeneratorName,
		model.ConfigKeySeed:          sampleSeed,
		KeyNumVertices:               numVertices,
		KeyNumEdges:                  numEdges,
		KeyFeatureDim:                s.cfg.FeatureDim,
		KeyFeatureCenterDistance:     featureCenterDistance,
		KeyEdgeCenterDistance:        s.cfg.EdgeCenterDistance,
		KeyEdgeFeatureDim:            s.cfg.EdgeFeatureDim,
		KeyNumClusters:               s.cfg.NumClusters(),
		KeyClusterProportions:        append([]float64(nil), s.cfg.ClusterProportions...),
		KeyPropensityMatrix:          propMat,
	})

	inst, err := s.callGenerate(ctx, &generator.GenerateParams{
		SampleID:    id,
		Config:      cfg,
		DatasetPath: s.datasetPath,
	}, rng)
	if err != nil {
		return nil, cerror.ErrGenerateSample.GenWithStackByArgs(id, err.Error())
	}
	if inst == nil {
		return nil, cerror.ErrGenerateSample.GenWithStackByArgs(id, "generator returned no instance")
	}

	log.Debug("sample generated",
		zap.Int("sample-id", int(id)),
		zap.Int("num-vertices", numVertices),
		zap.Int("num-edges", numEdges),
		zap.Float64("feature-center-distance", featureCenterDistance))
	return &model.SampleRecord{
		SampleID: id,
		Config:   cfg,
		Instance: inst,
	}, nil
}

// callGenerate turns a panic of the generator into an error of this sample.
func (s *sampleStage) callGenerate(
	ctx context.Context, params *generator.GenerateParams, rng *rand.Rand,
) (inst *model.GeneratedInstance, err error) {
	defer func() {
		if r := recover(); r != nil {
			inst, err = nil, errors.Errorf("generator panicked: %v", r)
		}
	}()
	return s.generate(ctx, params, rng)
}
