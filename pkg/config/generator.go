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

package config

import (
	"fmt"
	"math"

	cerror "github.com/pingcap/graphflow/pkg/errors"
)

// FamilySBM is the stochastic block model generator family.
const FamilySBM = "sbm"

// GeneratorConfig holds the parameter ranges a generator family samples from.
type GeneratorConfig struct {
	Family string `toml:"family" json:"family"`

	NumVerticesMin int `toml:"num-vertices-min" json:"num-vertices-min"`
	NumVerticesMax int `toml:"num-vertices-max" json:"num-vertices-max"`
	NumEdgesMin    int `toml:"num-edges-min" json:"num-edges-min"`
	NumEdgesMax    int `toml:"num-edges-max" json:"num-edges-max"`

	FeatureCenterDistanceMax float64 `toml:"feature-center-distance-max" json:"feature-center-distance-max"`
	FeatureDim               int     `toml:"feature-dim" json:"feature-dim"`
	EdgeCenterDistance       float64 `toml:"edge-center-distance" json:"edge-center-distance"`
	EdgeFeatureDim           int     `toml:"edge-feature-dim" json:"edge-feature-dim"`

	// ClusterProportions is the expected share of nodes in every community.
	ClusterProportions []float64 `toml:"cluster-proportions" json:"cluster-proportions"`
	// PToQRatio is the ratio of in-cluster to cross-cluster edge propensity.
	PToQRatio float64 `toml:"p-to-q-ratio" json:"p-to-q-ratio"`
}

func defaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Family:                   FamilySBM,
		NumVerticesMin:           128,
		NumVerticesMax:           512,
		NumEdgesMin:              1024,
		NumEdgesMax:              4096,
		FeatureCenterDistanceMax: 5.0,
		FeatureDim:               16,
		EdgeCenterDistance:       2.0,
		EdgeFeatureDim:           4,
		ClusterProportions:       []float64{0.25, 0.25, 0.25, 0.25},
		PToQRatio:                10.0,
	}
}

// NumClusters returns the number of communities.
func (c *GeneratorConfig) NumClusters() int {
	return len(c.ClusterProportions)
}

// ValidateAndAdjust validates the generator config.
func (c *GeneratorConfig) ValidateAndAdjust() error {
	if c.Family == "" {
		c.Family = FamilySBM
	}
	if c.NumVerticesMin <= 0 || c.NumVerticesMin >= c.NumVerticesMax {
		return invalidRange("num-vertices", c.NumVerticesMin, c.NumVerticesMax)
	}
	if c.NumEdgesMin <= 0 || c.NumEdgesMin >= c.NumEdgesMax {
		return invalidRange("num-edges", c.NumEdgesMin, c.NumEdgesMax)
	}
	if c.FeatureCenterDistanceMax <= 0 {
		return cerror.ErrInvalidConfig.GenWithStackByArgs(
			"feature-center-distance-max must be positive")
	}
	if c.FeatureDim <= 0 || c.EdgeFeatureDim < 0 {
		return cerror.ErrInvalidConfig.GenWithStackByArgs(
			fmt.Sprintf("invalid feature dims %d and %d", c.FeatureDim, c.EdgeFeatureDim))
	}
	if len(c.ClusterProportions) == 0 {
		return cerror.ErrInvalidConfig.GenWithStackByArgs("cluster-proportions is empty")
	}
	sum := 0.0
	for _, p := range c.ClusterProportions {
		if p <= 0 {
			return cerror.ErrInvalidConfig.GenWithStackByArgs(
				fmt.Sprintf("cluster proportion must be positive, got %v", p))
		}
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return cerror.ErrInvalidConfig.GenWithStackByArgs(
			fmt.Sprintf("cluster proportions sum to %v instead of 1", sum))
	}
	if c.PToQRatio <= 0 {
		c.PToQRatio = 1.0
	}
	return nil
}

func invalidRange(name string, lo, hi int) error {
	return cerror.ErrInvalidConfig.GenWithStackByArgs(
		fmt.Sprintf("%s range [%d, %d) is empty or not positive", name, lo, hi))
}
