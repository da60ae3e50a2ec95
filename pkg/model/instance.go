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
	"fmt"

	cerror "github.com/pingcap/graphflow/pkg/errors"
)

// Edge is an undirected edge between two vertices.
type Edge struct {
	Src int
	Dst int
}

// EdgeFeature is the feature vector of one edge.
type EdgeFeature struct {
	Edge     Edge
	Features []float64
}

// Graph is a simple undirected graph stored as an edge list.
type Graph struct {
	NumVertices int
	Edges       []Edge
}

// GeneratedInstance is the output of a generator function. It is never
// mutated after the generator returns it.
type GeneratedInstance struct {
	Graph *Graph
	// GraphMemberships is the community of every vertex.
	GraphMemberships []int
	// NodeFeatures has one row per vertex.
	NodeFeatures [][]float64
	// FeatureMemberships is the feature cluster of every vertex.
	FeatureMemberships []int
	// EdgeFeatures has unique edge keys.
	EdgeFeatures []EdgeFeature
}

// NumClasses returns the number of communities in GraphMemberships.
func (g *GeneratedInstance) NumClasses() int {
	max := -1
	for _, m := range g.GraphMemberships {
		if m > max {
			max = m
		}
	}
	return max + 1
}

// Validate checks the structural consistency of the instance.
func (g *GeneratedInstance) Validate() error {
	if g == nil || g.Graph == nil {
		return cerror.ErrMalformedInstance.GenWithStackByArgs("graph is missing")
	}
	n := g.Graph.NumVertices
	if n <= 0 {
		return cerror.ErrMalformedInstance.GenWithStackByArgs(
			fmt.Sprintf("graph has %d vertices", n))
	}
	if len(g.GraphMemberships) != n {
		return cerror.ErrMalformedInstance.GenWithStackByArgs(
			fmt.Sprintf("%d graph memberships for %d vertices", len(g.GraphMemberships), n))
	}
	if len(g.NodeFeatures) != n {
		return cerror.ErrMalformedInstance.GenWithStackByArgs(
			fmt.Sprintf("%d node feature rows for %d vertices", len(g.NodeFeatures), n))
	}
	for _, m := range g.GraphMemberships {
		if m < 0 {
			return cerror.ErrMalformedInstance.GenWithStackByArgs(
				fmt.Sprintf("negative membership %d", m))
		}
	}
	for _, e := range g.Graph.Edges {
		if e.Src < 0 || e.Src >= n || e.Dst < 0 || e.Dst >= n {
			return cerror.ErrMalformedInstance.GenWithStackByArgs(
				fmt.Sprintf("edge (%d, %d) out of range", e.Src, e.Dst))
		}
	}
	seen := make(map[Edge]struct{}, len(g.EdgeFeatures))
	for _, ef := range g.EdgeFeatures {
		if _, ok := seen[ef.Edge]; ok {
			return cerror.ErrMalformedInstance.GenWithStackByArgs(
				fmt.Sprintf("duplicated edge feature key (%d, %d)", ef.Edge.Src, ef.Edge.Dst))
		}
		seen[ef.Edge] = struct{}{}
	}
	return nil
}
