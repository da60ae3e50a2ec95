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
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/model"
)

// Artifact names of a sample, `{id:05d}_{artifact}.txt`.
const (
	ArtifactConfig            = "config"
	ArtifactGraph             = "graph"
	ArtifactGraphMemberships  = "graph_memberships"
	ArtifactNodeFeatures      = "node_features"
	ArtifactFeatureMembership = "feature_membership"
	ArtifactEdgeFeatures      = "edge_features"
	ArtifactGraphStats        = "graph_stats"
	ArtifactMasks             = "masks"

	artifactExt = "txt"
)

const graphHeaderPrefix = "# vertices "

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeFloats(buf *bytes.Buffer, xs []float64) {
	for i, x := range xs {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(formatFloat(x))
	}
}

func encodeGraph(g *model.Graph) []byte {
	var buf bytes.Buffer
	buf.WriteString(graphHeaderPrefix)
	buf.WriteString(strconv.Itoa(g.NumVertices))
	buf.WriteByte('\n')
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "%d %d\n", e.Src, e.Dst)
	}
	return buf.Bytes()
}

func encodeInts(xs []int) []byte {
	var buf bytes.Buffer
	for _, x := range xs {
		buf.WriteString(strconv.Itoa(x))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func encodeMatrix(rows [][]float64) []byte {
	var buf bytes.Buffer
	for _, row := range rows {
		writeFloats(&buf, row)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func encodeEdgeFeatures(efs []model.EdgeFeature) []byte {
	var buf bytes.Buffer
	for _, ef := range efs {
		fmt.Fprintf(&buf, "%d,%d,", ef.Edge.Src, ef.Edge.Dst)
		writeFloats(&buf, ef.Features)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// encodeMasks writes one row per mask, `0`/`1` separated by spaces.
func encodeMasks(m *model.Masks) []byte {
	var buf bytes.Buffer
	for _, name := range model.MaskNames {
		for i, sel := range m.Get(name) {
			if i > 0 {
				buf.WriteByte(' ')
			}
			if sel {
				buf.WriteByte('1')
			} else {
				buf.WriteByte('0')
			}
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func lines(data []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Trace(err)
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeGraph(data []byte) (*model.Graph, error) {
	ls := lines(data)
	if len(ls) == 0 || !strings.HasPrefix(ls[0], graphHeaderPrefix) {
		return nil, errors.New("graph artifact has no vertex header")
	}
	n, err := strconv.Atoi(strings.TrimPrefix(ls[0], graphHeaderPrefix))
	if err != nil {
		return nil, errors.Trace(err)
	}
	g := &model.Graph{NumVertices: n, Edges: make([]model.Edge, 0, len(ls)-1)}
	for _, l := range ls[1:] {
		var e model.Edge
		if _, err := fmt.Sscanf(l, "%d %d", &e.Src, &e.Dst); err != nil {
			return nil, errors.Annotatef(err, "bad edge line %q", l)
		}
		g.Edges = append(g.Edges, e)
	}
	return g, nil
}

func decodeInts(data []byte) ([]int, error) {
	ls := lines(data)
	out := make([]int, 0, len(ls))
	for _, l := range ls {
		v, err := strconv.Atoi(strings.TrimSpace(l))
		if err != nil {
			return nil, errors.Trace(err)
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeMatrix(data []byte) ([][]float64, error) {
	ls := lines(data)
	out := make([][]float64, 0, len(ls))
	for _, l := range ls {
		row, err := parseFloats(l)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func decodeEdgeFeatures(data []byte) ([]model.EdgeFeature, error) {
	ls := lines(data)
	out := make([]model.EdgeFeature, 0, len(ls))
	for _, l := range ls {
		parts := strings.SplitN(l, ",", 3)
		if len(parts) != 3 {
			return nil, errors.Errorf("bad edge feature line %q", l)
		}
		src, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, errors.Trace(err)
		}
		dst, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errors.Trace(err)
		}
		features, err := parseFloats(parts[2])
		if err != nil {
			return nil, err
		}
		out = append(out, model.EdgeFeature{
			Edge:     model.Edge{Src: src, Dst: dst},
			Features: features,
		})
	}
	return out, nil
}

// DecodeMasks parses a masks artifact.
func DecodeMasks(data []byte) (*model.Masks, error) {
	ls := lines(data)
	if len(ls) != len(model.MaskNames) {
		return nil, errors.Errorf("masks artifact has %d rows", len(ls))
	}
	rows := make([][]bool, len(ls))
	for i, l := range ls {
		for _, f := range strings.Fields(l) {
			switch f {
			case "0":
				rows[i] = append(rows[i], false)
			case "1":
				rows[i] = append(rows[i], true)
			default:
				return nil, errors.Errorf("bad mask value %q", f)
			}
		}
	}
	return &model.Masks{Train: rows[0], Val: rows[1], Test: rows[2]}, nil
}
