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

	"github.com/goccy/go-json"
	"github.com/pingcap/errors"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/graphflow/pkg/storage"
)

// ReadInstance reads back the config and the instance the persist stage wrote
// for id.
func ReadInstance(
	ctx context.Context, store storage.ArtifactStore, id model.SampleID,
) (*model.GeneratorConfig, *model.GeneratedInstance, error) {
	read := func(name string) ([]byte, error) {
		return store.ReadFile(ctx, storage.ArtifactName(id, name, artifactExt))
	}
	annotate := func(err error, name string) error {
		return errors.Annotate(err, storage.ArtifactName(id, name, artifactExt))
	}

	data, err := read(ArtifactConfig)
	if err != nil {
		return nil, nil, err
	}
	cfg := &model.GeneratorConfig{}
	if err = json.Unmarshal(data, cfg); err != nil {
		return nil, nil, cerror.WrapError(cerror.ErrArtifactRead, err)
	}

	inst := &model.GeneratedInstance{}
	if data, err = read(ArtifactGraph); err != nil {
		return nil, nil, err
	}
	if inst.Graph, err = decodeGraph(data); err != nil {
		return nil, nil, annotate(err, ArtifactGraph)
	}
	if data, err = read(ArtifactGraphMemberships); err != nil {
		return nil, nil, err
	}
	if inst.GraphMemberships, err = decodeInts(data); err != nil {
		return nil, nil, annotate(err, ArtifactGraphMemberships)
	}
	if data, err = read(ArtifactNodeFeatures); err != nil {
		return nil, nil, err
	}
	if inst.NodeFeatures, err = decodeMatrix(data); err != nil {
		return nil, nil, annotate(err, ArtifactNodeFeatures)
	}
	if data, err = read(ArtifactFeatureMembership); err != nil {
		return nil, nil, err
	}
	if inst.FeatureMemberships, err = decodeInts(data); err != nil {
		return nil, nil, annotate(err, ArtifactFeatureMembership)
	}
	if data, err = read(ArtifactEdgeFeatures); err != nil {
		return nil, nil, err
	}
	if inst.EdgeFeatures, err = decodeEdgeFeatures(data); err != nil {
		return nil, nil, annotate(err, ArtifactEdgeFeatures)
	}
	return cfg, inst, nil
}

// ReadGraphMetrics reads the graph stats artifact of id.
func ReadGraphMetrics(
	ctx context.Context, store storage.ArtifactStore, id model.SampleID,
) (*model.GraphMetrics, error) {
	data, err := store.ReadFile(ctx, storage.ArtifactName(id, ArtifactGraphStats, artifactExt))
	if err != nil {
		return nil, err
	}
	m := &model.GraphMetrics{}
	if err = json.Unmarshal(data, m); err != nil {
		return nil, cerror.WrapError(cerror.ErrArtifactRead, err)
	}
	return m, nil
}

// ReadMasks reads the masks artifact of id.
func ReadMasks(
	ctx context.Context, store storage.ArtifactStore, id model.SampleID,
) (*model.Masks, error) {
	data, err := store.ReadFile(ctx, storage.ArtifactName(id, ArtifactMasks, artifactExt))
	if err != nil {
		return nil, err
	}
	return DecodeMasks(data)
}
