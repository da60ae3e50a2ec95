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

// Graph metric keys, they are part of every benchmark row.
const (
	MetricKeyNodes             = "nodes"
	MetricKeyEdges             = "edges"
	MetricKeyAverageNodeDegree = "average_node_degree"
)

// GraphMetrics are graph level statistics of a converted sample.
type GraphMetrics struct {
	Nodes             int     `json:"nodes"`
	Edges             int     `json:"edges"`
	AverageNodeDegree float64 `json:"average_node_degree"`
}

// Fields returns the metrics as row fields.
func (m *GraphMetrics) Fields() map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{
		MetricKeyNodes:             m.Nodes,
		MetricKeyEdges:             m.Edges,
		MetricKeyAverageNodeDegree: m.AverageNodeDegree,
	}
}

// Mask names, in the order they are persisted.
const (
	MaskTrain = "train"
	MaskVal   = "val"
	MaskTest  = "test"
)

// MaskNames lists the masks in persisted order.
var MaskNames = []string{MaskTrain, MaskVal, MaskTest}

// Masks are disjoint node selectors.
type Masks struct {
	Train []bool
	Val   []bool
	Test  []bool
}

// Get returns the mask with the given name.
func (m *Masks) Get(name string) []bool {
	switch name {
	case MaskTrain:
		return m.Train
	case MaskVal:
		return m.Val
	case MaskTest:
		return m.Test
	}
	return nil
}

// Count returns the number of selected nodes in the named mask.
func (m *Masks) Count(name string) int {
	cnt := 0
	for _, b := range m.Get(name) {
		if b {
			cnt++
		}
	}
	return cnt
}

// ConvertedInstance is the model-ready form of a sample. When Skipped is
// true the conversion failed at some step, the fields filled before the
// failure are kept and Diagnostic tells what went wrong.
type ConvertedInstance struct {
	SampleID SampleID
	Config   *GeneratorConfig

	Metrics *GraphMetrics

	NumNodes int
	// EdgeIndex is the COO edge list, both directions of every undirected edge.
	EdgeIndex [2][]int
	// EdgeAttr has one row per column of EdgeIndex.
	EdgeAttr   [][]float64
	Features   [][]float64
	Labels     []int
	NumClasses int

	Masks *Masks

	Skipped    bool
	Diagnostic string
}

// Neighbors returns the adjacency lists built from EdgeIndex.
func (c *ConvertedInstance) Neighbors() [][]int {
	adj := make([][]int, c.NumNodes)
	for i := range c.EdgeIndex[0] {
		src, dst := c.EdgeIndex[0][i], c.EdgeIndex[1][i]
		adj[src] = append(adj[src], dst)
	}
	return adj
}
