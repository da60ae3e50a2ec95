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
	"fmt"
	"math"

	"github.com/pingcap/errors"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/model"
)

// Kinds of the reference models.
const (
	KindMajorityClass    = "MajorityClass"
	KindNearestCentroid  = "NearestCentroid"
	KindLabelPropagation = "LabelPropagation"
)

func checkInstance(conv *model.ConvertedInstance) error {
	if conv.Masks == nil || len(conv.Labels) != conv.NumNodes || conv.NumClasses <= 0 {
		return errors.New("converted instance has no labels or masks")
	}
	return nil
}

type majorityClass struct{}

func newMajorityClass(h Hparams) (Benchmarker, error) {
	if err := h.CheckKeys(KindMajorityClass); err != nil {
		return nil, err
	}
	return &majorityClass{}, nil
}

func (m *majorityClass) ModelName() string {
	return KindMajorityClass
}

func (m *majorityClass) Benchmark(
	_ context.Context, conv *model.ConvertedInstance,
) (*model.BenchmarkOutput, error) {
	if err := checkInstance(conv); err != nil {
		return nil, err
	}
	counts := make([]float64, conv.NumClasses)
	for i, sel := range conv.Masks.Train {
		if sel {
			counts[conv.Labels[i]]++
		}
	}
	majority := argmax(counts)
	pred := make([]int, conv.NumNodes)
	for i := range pred {
		pred[i] = majority
	}
	trainErr := 1 - accuracy(conv.Labels, pred, conv.Masks.Train)
	return &model.BenchmarkOutput{
		Losses:      []float64{trainErr},
		TestMetrics: evaluate(conv, pred),
	}, nil
}

// nearestCentroid is a learning vector quantization classifier with one
// prototype per class, initialized at the class mean of the train nodes.
type nearestCentroid struct {
	epochs       int
	learningRate float64
}

func newNearestCentroid(h Hparams) (Benchmarker, error) {
	if err := h.CheckKeys(KindNearestCentroid, "epochs", "learning_rate"); err != nil {
		return nil, err
	}
	epochs, err := h.Int(KindNearestCentroid, "epochs", 10)
	if err != nil {
		return nil, err
	}
	if epochs <= 0 {
		return nil, cerror.ErrInvalidHparam.GenWithStackByArgs(
			"epochs", KindNearestCentroid, fmt.Sprintf("must be positive, got %d", epochs))
	}
	lr, err := h.Float(KindNearestCentroid, "learning_rate", 0.1)
	if err != nil {
		return nil, err
	}
	if lr <= 0 || lr > 1 {
		return nil, cerror.ErrInvalidHparam.GenWithStackByArgs(
			"learning_rate", KindNearestCentroid, fmt.Sprintf("must be in (0, 1], got %v", lr))
	}
	return &nearestCentroid{epochs: epochs, learningRate: lr}, nil
}

func (m *nearestCentroid) ModelName() string {
	return KindNearestCentroid
}

func (m *nearestCentroid) Benchmark(
	ctx context.Context, conv *model.ConvertedInstance,
) (*model.BenchmarkOutput, error) {
	if err := checkInstance(conv); err != nil {
		return nil, err
	}
	if len(conv.Features) != conv.NumNodes || conv.NumNodes == 0 {
		return nil, errors.New("converted instance has no features")
	}
	dim := len(conv.Features[0])

	centroids := make([][]float64, conv.NumClasses)
	counts := make([]int, conv.NumClasses)
	for c := range centroids {
		centroids[c] = make([]float64, dim)
	}
	for i, sel := range conv.Masks.Train {
		if !sel {
			continue
		}
		c := conv.Labels[i]
		counts[c]++
		for d, x := range conv.Features[i] {
			centroids[c][d] += x
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for d := range centroids[c] {
			centroids[c][d] /= float64(counts[c])
		}
	}

	nearest := func(x []float64) int {
		best, bestDist := -1, math.Inf(1)
		for c, centroid := range centroids {
			if counts[c] == 0 {
				continue
			}
			if d := squaredDistance(x, centroid); d < bestDist {
				best, bestDist = c, d
			}
		}
		return best
	}
	move := func(c int, x []float64, step float64) {
		for d := range centroids[c] {
			centroids[c][d] += step * (x[d] - centroids[c][d])
		}
	}

	losses := make([]float64, 0, m.epochs)
	for epoch := 0; epoch < m.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		total, wrong := 0, 0
		for i, sel := range conv.Masks.Train {
			if !sel {
				continue
			}
			total++
			label := conv.Labels[i]
			c := nearest(conv.Features[i])
			if c == label {
				move(c, conv.Features[i], m.learningRate)
				continue
			}
			wrong++
			move(label, conv.Features[i], m.learningRate)
			if c >= 0 {
				move(c, conv.Features[i], -m.learningRate)
			}
		}
		losses = append(losses, float64(wrong)/float64(total))
	}

	pred := make([]int, conv.NumNodes)
	for i := range pred {
		pred[i] = nearest(conv.Features[i])
	}
	return &model.BenchmarkOutput{
		Losses:      losses,
		TestMetrics: evaluate(conv, pred),
	}, nil
}

// labelPropagation spreads the one-hot train labels over the row normalized
// adjacency, F = alpha*S*F + (1-alpha)*Y.
type labelPropagation struct {
	iterations int
	alpha      float64
}

func newLabelPropagation(h Hparams) (Benchmarker, error) {
	if err := h.CheckKeys(KindLabelPropagation, "iterations", "alpha"); err != nil {
		return nil, err
	}
	iterations, err := h.Int(KindLabelPropagation, "iterations", 20)
	if err != nil {
		return nil, err
	}
	if iterations <= 0 {
		return nil, cerror.ErrInvalidHparam.GenWithStackByArgs(
			"iterations", KindLabelPropagation, fmt.Sprintf("must be positive, got %d", iterations))
	}
	alpha, err := h.Float(KindLabelPropagation, "alpha", 0.9)
	if err != nil {
		return nil, err
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, cerror.ErrInvalidHparam.GenWithStackByArgs(
			"alpha", KindLabelPropagation, fmt.Sprintf("must be in (0, 1), got %v", alpha))
	}
	return &labelPropagation{iterations: iterations, alpha: alpha}, nil
}

func (m *labelPropagation) ModelName() string {
	return KindLabelPropagation
}

func (m *labelPropagation) Benchmark(
	ctx context.Context, conv *model.ConvertedInstance,
) (*model.BenchmarkOutput, error) {
	if err := checkInstance(conv); err != nil {
		return nil, err
	}
	n, k := conv.NumNodes, conv.NumClasses
	adj := conv.Neighbors()

	seed := make([][]float64, n)
	f := make([][]float64, n)
	for i := 0; i < n; i++ {
		seed[i] = make([]float64, k)
		if conv.Masks.Train[i] {
			seed[i][conv.Labels[i]] = 1
		}
		f[i] = append([]float64(nil), seed[i]...)
	}

	losses := make([]float64, 0, m.iterations)
	next := make([][]float64, n)
	for i := range next {
		next[i] = make([]float64, k)
	}
	for it := 0; it < m.iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		delta := 0.0
		for i := 0; i < n; i++ {
			if len(adj[i]) == 0 {
				copy(next[i], f[i])
				continue
			}
			for c := 0; c < k; c++ {
				sum := 0.0
				for _, j := range adj[i] {
					sum += f[j][c]
				}
				next[i][c] = m.alpha*sum/float64(len(adj[i])) + (1-m.alpha)*seed[i][c]
				delta += math.Abs(next[i][c] - f[i][c])
			}
		}
		f, next = next, f
		losses = append(losses, delta/float64(n))
	}

	pred := make([]int, n)
	for i := range pred {
		pred[i] = argmax(f[i])
	}
	return &model.BenchmarkOutput{
		Losses:      losses,
		TestMetrics: evaluate(conv, pred),
	}, nil
}
