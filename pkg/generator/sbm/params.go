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
	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/model"
)

// GeneratorName is the generator_name recorded in every sample config.
const GeneratorName = "StochasticBlockModel"

// Generator config keys of the stochastic block model.
const (
	KeyNumVertices           = "num_vertices"
	KeyNumEdges              = "num_edges"
	KeyFeatureDim            = "feature_dim"
	KeyFeatureCenterDistance = "feature_center_distance"
	KeyEdgeCenterDistance    = "edge_center_distance"
	KeyEdgeFeatureDim        = "edge_feature_dim"
	KeyNumClusters           = "num_clusters"
	KeyClusterProportions    = "pi"
	KeyPropensityMatrix      = "prop_mat"
)

// Params are the typed simulation parameters of one sample.
type Params struct {
	NumVertices           int
	NumEdges              int
	FeatureDim            int
	FeatureCenterDistance float64
	EdgeCenterDistance    float64
	EdgeFeatureDim        int
	ClusterProportions    []float64
	PropensityMatrix      [][]float64
}

// ParamsFromConfig reads Params from a sample config. It accepts both the
// values built by the sample stage and the ones decoded from a config artifact.
func ParamsFromConfig(cfg *model.GeneratorConfig) (*Params, error) {
	p := &Params{}
	var err error
	if p.NumVertices, err = getInt(cfg, KeyNumVertices); err != nil {
		return nil, err
	}
	if p.NumEdges, err = getInt(cfg, KeyNumEdges); err != nil {
		return nil, err
	}
	if p.FeatureDim, err = getInt(cfg, KeyFeatureDim); err != nil {
		return nil, err
	}
	if p.EdgeFeatureDim, err = getInt(cfg, KeyEdgeFeatureDim); err != nil {
		return nil, err
	}
	if p.FeatureCenterDistance, err = getFloat(cfg, KeyFeatureCenterDistance); err != nil {
		return nil, err
	}
	if p.EdgeCenterDistance, err = getFloat(cfg, KeyEdgeCenterDistance); err != nil {
		return nil, err
	}
	if p.ClusterProportions, err = getFloats(cfg, KeyClusterProportions); err != nil {
		return nil, err
	}
	if p.PropensityMatrix, err = getMatrix(cfg, KeyPropensityMatrix); err != nil {
		return nil, err
	}
	k := len(p.ClusterProportions)
	if k == 0 || len(p.PropensityMatrix) != k {
		return nil, errors.Errorf("%d cluster proportions and a %d-row propensity matrix",
			k, len(p.PropensityMatrix))
	}
	for _, row := range p.PropensityMatrix {
		if len(row) != k {
			return nil, errors.Errorf("propensity matrix is not %dx%d", k, k)
		}
	}
	return p, nil
}

func get(cfg *model.GeneratorConfig, key string) (interface{}, error) {
	v, ok := cfg.Get(key)
	if !ok {
		return nil, errors.Errorf("generator config has no %s", key)
	}
	return v, nil
}

func getInt(cfg *model.GeneratorConfig, key string) (int, error) {
	v, err := get(cfg, key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, errors.Errorf("generator config %s is %T, not an integer", key, v)
}

func getFloat(cfg *model.GeneratorConfig, key string) (float64, error) {
	v, err := get(cfg, key)
	if err != nil {
		return 0, err
	}
	return toFloat(key, v)
}

func toFloat(key string, v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, errors.Errorf("generator config %s is %T, not a number", key, v)
}

func getFloats(cfg *model.GeneratorConfig, key string) ([]float64, error) {
	v, err := get(cfg, key)
	if err != nil {
		return nil, err
	}
	return toFloats(key, v)
}

func toFloats(key string, v interface{}) ([]float64, error) {
	switch xs := v.(type) {
	case []float64:
		return append([]float64(nil), xs...), nil
	case []interface{}:
		out := make([]float64, 0, len(xs))
		for _, x := range xs {
			f, err := toFloat(key, x)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	}
	return nil, errors.Errorf("generator config %s is %T, not a list", key, v)
}

func getMatrix(cfg *model.GeneratorConfig, key string) ([][]float64, error) {
	v, err := get(cfg, key)
	if err != nil {
		return nil, err
	}
	switch rows := v.(type) {
	case [][]float64:
		out := make([][]float64, 0, len(rows))
		for _, row := range rows {
			out = append(out, append([]float64(nil), row...))
		}
		return out, nil
	case []interface{}:
		out := make([][]float64, 0, len(rows))
		for _, row := range rows {
			r, err := toFloats(key, row)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	}
	return nil, errors.Errorf("generator config %s is %T, not a matrix", key, v)
}
