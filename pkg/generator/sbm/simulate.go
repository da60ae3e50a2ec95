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
	"math"
	"math/rand"
	"sort"

	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/generator"
	"github.com/pingcap/graphflow/pkg/model"
)

// maxEdgeAttemptsFactor bounds the number of edge draws to this many times
// the requested edge count.
const maxEdgeAttemptsFactor = 20

// Simulate is the reference stochastic block model generator. Vertices are
// split into communities by the cluster proportions, edges are drawn between
// community pairs in proportion to the propensity matrix, and node and edge
// features are Gaussian around per-community centers.
func Simulate(
	ctx context.Context, params *generator.GenerateParams, rng *rand.Rand,
) (*model.GeneratedInstance, error) {
	p, err := ParamsFromConfig(params.Config)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if p.NumVertices <= 0 {
		return nil, errors.Errorf("num_vertices must be positive, got %d", p.NumVertices)
	}

	memberships := drawMemberships(p.NumVertices, p.ClusterProportions, rng)
	edges, err := drawEdges(ctx, p, memberships, rng)
	if err != nil {
		return nil, err
	}

	k := len(p.ClusterProportions)
	featureCenters := drawCenters(k, p.FeatureDim, p.FeatureCenterDistance, rng)
	nodeFeatures := make([][]float64, p.NumVertices)
	for v := range nodeFeatures {
		nodeFeatures[v] = drawAround(featureCenters[memberships[v]], rng)
	}

	edgeCenters := drawCenters(k*k, p.EdgeFeatureDim, p.EdgeCenterDistance, rng)
	edgeFeatures := make([]model.EdgeFeature, 0, len(edges))
	for _, e := range edges {
		a, b := memberships[e.Src], memberships[e.Dst]
		if a > b {
			a, b = b, a
		}
		edgeFeatures = append(edgeFeatures, model.EdgeFeature{
			Edge:     e,
			Features: drawAround(edgeCenters[a*k+b], rng),
		})
	}

	return &model.GeneratedInstance{
		Graph: &model.Graph{
			NumVertices: p.NumVertices,
			Edges:       edges,
		},
		GraphMemberships:   memberships,
		NodeFeatures:       nodeFeatures,
		FeatureMemberships: append([]int(nil), memberships...),
		EdgeFeatures:       edgeFeatures,
	}, nil
}

// drawMemberships assigns floor(pi_k * n) vertices to every community, hands
// the remainder out round robin and shuffles the result.
func drawMemberships(n int, pi []float64, rng *rand.Rand) []int {
	memberships := make([]int, 0, n)
	for c, share := range pi {
		size := int(math.Floor(share * float64(n)))
		for i := 0; i < size && len(memberships) < n; i++ {
			memberships = append(memberships, c)
		}
	}
	for c := 0; len(memberships) < n; c = (c + 1) % len(pi) {
		memberships = append(memberships, c)
	}
	rng.Shuffle(n, func(i, j int) {
		memberships[i], memberships[j] = memberships[j], memberships[i]
	})
	return memberships
}

func drawEdges(
	ctx context.Context, p *Params, memberships []int, rng *rand.Rand,
) ([]model.Edge, error) {
	k := len(p.ClusterProportions)
	members := make([][]int, k)
	for v, c := range memberships {
		members[c] = append(members[c], v)
	}

	// cumulative weight of every community pair (a <= b)
	type pair struct{ a, b int }
	var (
		pairs   []pair
		weights []float64
		total   float64
	)
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			na, nb := float64(len(members[a])), float64(len(members[b]))
			possible := na * nb
			if a == b {
				possible = na * (na - 1) / 2
			}
			w := p.PropensityMatrix[a][b] * possible
			if w <= 0 {
				continue
			}
			total += w
			pairs = append(pairs, pair{a, b})
			weights = append(weights, total)
		}
	}

	n := p.NumVertices
	target := p.NumEdges
	if maxEdges := n * (n - 1) / 2; target > maxEdges {
		target = maxEdges
	}
	edges := make([]model.Edge, 0, target)
	if total == 0 || target <= 0 {
		return edges, nil
	}

	seen := make(map[model.Edge]struct{}, target)
	for attempt := 0; len(edges) < target && attempt < maxEdgeAttemptsFactor*target; attempt++ {
		if attempt%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Trace(err)
			}
		}
		idx := sort.SearchFloat64s(weights, rng.Float64()*total)
		if idx >= len(pairs) {
			idx = len(pairs) - 1
		}
		pr := pairs[idx]
		u := members[pr.a][rng.Intn(len(members[pr.a]))]
		v := members[pr.b][rng.Intn(len(members[pr.b]))]
		if u == v {
			continue
		}
		if u > v {
			u, v = v, u
		}
		e := model.Edge{Src: u, Dst: v}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		edges = append(edges, e)
	}
	return edges, nil
}

func drawCenters(count, dim int, distance float64, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, count)
	for i := range centers {
		centers[i] = make([]float64, dim)
		for d := range centers[i] {
			centers[i][d] = rng.NormFloat64() * distance
		}
	}
	return centers
}

func drawAround(center []float64, rng *rand.Rand) []float64 {
	x := make([]float64, len(center))
	for d := range x {
		x[d] = center[d] + rng.NormFloat64()
	}
	return x
}
