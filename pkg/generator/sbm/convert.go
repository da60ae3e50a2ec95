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
	"fmt"

	"github.com/goccy/go-json"
	"github.com/pingcap/graphflow/pkg/config"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/generator"
	"github.com/pingcap/graphflow/pkg/logutil"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/graphflow/pkg/storage"
	"go.uber.org/zap"
)

type convertStage struct {
	store  storage.ArtifactStore
	seed   int64
	kTrain int
	kVal   int
}

func newConvertStage(store storage.ArtifactStore, seed int64, cfg *config.ConvertConfig) *convertStage {
	return &convertStage{
		store:  store,
		seed:   seed,
		kTrain: cfg.KTrain,
		kVal:   cfg.KVal,
	}
}

// Convert runs the graph conversion and then the mask derivation. Each step
// marks the instance skipped on failure and the result built so far is kept.
func (s *convertStage) Convert(ctx context.Context, rec *model.SampleRecord) *model.ConvertedInstance {
	lg := logutil.NewLogger4Sample(logutil.FromContext(ctx), int(rec.SampleID))
	conv := &model.ConvertedInstance{
		SampleID: rec.SampleID,
		Config:   rec.Config,
	}

	if err := s.convertGraph(ctx, rec, conv); err != nil {
		conv.Skipped = true
		conv.Diagnostic = err.Error()
		lg.Warn("convert graph failed, sample skipped", logutil.ShortError(err))
		return conv
	}
	if err := s.deriveMasks(ctx, conv); err != nil {
		conv.Skipped = true
		conv.Diagnostic = err.Error()
		lg.Warn("derive masks failed, sample skipped", logutil.ShortError(err))
		return conv
	}
	lg.Debug("sample converted",
		zap.Int("nodes", conv.Metrics.Nodes),
		zap.Int("edges", conv.Metrics.Edges),
		zap.Int("train", conv.Masks.Count(model.MaskTrain)),
		zap.Int("val", conv.Masks.Count(model.MaskVal)),
		zap.Int("test", conv.Masks.Count(model.MaskTest)))
	return conv
}

// convertGraph builds the COO form with both directions of every edge and
// persists the graph stats.
func (s *convertStage) convertGraph(
	ctx context.Context, rec *model.SampleRecord, conv *model.ConvertedInstance,
) error {
	inst := rec.Instance
	if err := inst.Validate(); err != nil {
		return cerror.ErrConvertGraph.GenWithStackByArgs(rec.SampleID, err.Error())
	}

	edgeFeatures := make(map[model.Edge][]float64, len(inst.EdgeFeatures))
	for _, ef := range inst.EdgeFeatures {
		edgeFeatures[ef.Edge] = ef.Features
	}
	numDirected := 2 * len(inst.Graph.Edges)
	src := make([]int, 0, numDirected)
	dst := make([]int, 0, numDirected)
	var attrs [][]float64
	if len(edgeFeatures) > 0 {
		attrs = make([][]float64, 0, numDirected)
	}
	for _, e := range inst.Graph.Edges {
		src = append(src, e.Src, e.Dst)
		dst = append(dst, e.Dst, e.Src)
		if attrs == nil {
			continue
		}
		f, ok := edgeFeatures[e]
		if !ok {
			f, ok = edgeFeatures[model.Edge{Src: e.Dst, Dst: e.Src}]
		}
		if !ok {
			return cerror.ErrConvertGraph.GenWithStackByArgs(rec.SampleID,
				fmt.Sprintf("edge (%d, %d) has no features", e.Src, e.Dst))
		}
		attrs = append(attrs, f, f)
	}

	n := inst.Graph.NumVertices
	conv.NumNodes = n
	conv.EdgeIndex = [2][]int{src, dst}
	conv.EdgeAttr = attrs
	conv.Features = inst.NodeFeatures
	conv.Labels = inst.GraphMemberships
	conv.NumClasses = inst.NumClasses()
	conv.Metrics = &model.GraphMetrics{
		Nodes:             n,
		Edges:             numDirected,
		AverageNodeDegree: float64(numDirected) / float64(n),
	}

	data, err := json.Marshal(conv.Metrics)
	if err != nil {
		return cerror.ErrConvertGraph.GenWithStackByArgs(rec.SampleID, err.Error())
	}
	path := storage.ArtifactName(rec.SampleID, ArtifactGraphStats, artifactExt)
	if err = storage.WriteArtifact(ctx, s.store, path, storage.MIMEJSON, data); err != nil {
		return cerror.ErrConvertGraph.GenWithStackByArgs(rec.SampleID, err.Error())
	}
	return nil
}

// deriveMasks draws k-train train nodes and k-val val nodes from every class,
// the other nodes are test nodes. It fails if a class is empty or too small
// to keep at least one test node.
func (s *convertStage) deriveMasks(ctx context.Context, conv *model.ConvertedInstance) error {
	members := make([][]int, conv.NumClasses)
	for v, c := range conv.Labels {
		members[c] = append(members[c], v)
	}
	need := s.kTrain + s.kVal + 1
	for c, nodes := range members {
		if len(nodes) == 0 {
			return cerror.ErrDeriveMasks.GenWithStackByArgs(conv.SampleID,
				fmt.Sprintf("class %d is empty", c))
		}
		if len(nodes) < need {
			return cerror.ErrDeriveMasks.GenWithStackByArgs(conv.SampleID,
				fmt.Sprintf("class %d has %d nodes, needs at least %d", c, len(nodes), need))
		}
	}

	rng := generator.SampleRand(s.seed, conv.SampleID, generator.StreamMasks)
	masks := &model.Masks{
		Train: make([]bool, conv.NumNodes),
		Val:   make([]bool, conv.NumNodes),
		Test:  make([]bool, conv.NumNodes),
	}
	for _, nodes := range members {
		for i, p := range rng.Perm(len(nodes)) {
			v := nodes[p]
			switch {
			case i < s.kTrain:
				masks.Train[v] = true
			case i < s.kTrain+s.kVal:
				masks.Val[v] = true
			default:
				masks.Test[v] = true
			}
		}
	}

	path := storage.ArtifactName(conv.SampleID, ArtifactMasks, artifactExt)
	if err := storage.WriteArtifact(ctx, s.store, path, storage.MIMEText, encodeMasks(masks)); err != nil {
		return cerror.ErrDeriveMasks.GenWithStackByArgs(conv.SampleID, err.Error())
	}
	conv.Masks = masks
	return nil
}
