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
	"strings"
	"testing"

	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/graphflow/pkg/storage"
	"github.com/stretchr/testify/require"
)

func TestPersistRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	h := newTestHandler(t, store, nil, nil)

	for _, id := range []model.SampleID{0, 1, 12} {
		rec, err := h.SampleStage().Sample(ctx, id)
		require.NoError(t, err)
		out, diags, err := h.PersistStage().Persist(ctx, rec)
		require.NoError(t, err)
		require.Empty(t, diags)
		require.Same(t, rec, out)

		cfg, inst, err := ReadInstance(ctx, store, id)
		require.NoError(t, err)
		require.Equal(t, rec.Instance, inst)

		expected, err := ParamsFromConfig(rec.Config)
		require.NoError(t, err)
		actual, err := ParamsFromConfig(cfg)
		require.NoError(t, err)
		require.Equal(t, expected, actual)
		require.Equal(t, rec.Config.Keys(), cfg.Keys())
	}
}

func TestPersistRoundTripIsBitExact(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	inst := newTinyInstance()
	h := newTestHandler(t, store, fixedGenerate(inst), nil)

	rec, err := h.SampleStage().Sample(ctx, 9)
	require.NoError(t, err)
	_, _, err = h.PersistStage().Persist(ctx, rec)
	require.NoError(t, err)

	_, read, err := ReadInstance(ctx, store, 9)
	require.NoError(t, err)
	require.Equal(t, inst, read)

	data, err := store.ReadFile(ctx, "00009_graph.txt")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "# vertices 6\n0 1\n"))
	data, err = store.ReadFile(ctx, "00009_edge_features.txt")
	require.NoError(t, err)
	require.Contains(t, string(data), "2,3,1e+10\n")
}

func TestPersistArtifactPathsDoNotCollide(t *testing.T) {
	t.Parallel()

	seen := make(map[string]model.SampleID)
	for id := model.SampleID(0); id < 200; id++ {
		for _, name := range SampleArtifactNames(id) {
			prev, dup := seen[name]
			require.False(t, dup, "%s written by %d and %d", name, prev, id)
			seen[name] = id
		}
	}
	require.Equal(t, []string{
		"00007_config.txt",
		"00007_graph.txt",
		"00007_graph_memberships.txt",
		"00007_node_features.txt",
		"00007_feature_membership.txt",
		"00007_edge_features.txt",
	}, SampleArtifactNames(7))
}

func TestPersistReportsEveryFailedArtifact(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := newTestStore(t)
	store := storage.NewFaultyStore(inner, func(path string) bool {
		return strings.HasSuffix(path, "_graph.txt") || strings.HasSuffix(path, "_node_features.txt")
	})
	h := newTestHandler(t, store, fixedGenerate(newTinyInstance()), nil)

	rec, err := h.SampleStage().Sample(ctx, 1)
	require.NoError(t, err)
	out, diags, err := h.PersistStage().Persist(ctx, rec)
	require.Error(t, err)
	require.True(t, cerror.ErrPersistArtifact.Equal(err), err.Error())
	require.Same(t, rec, out)

	require.Len(t, diags, 2)
	require.Equal(t, "00001_graph.txt", diags[0].Artifact)
	require.Equal(t, "00001_node_features.txt", diags[1].Artifact)
	for _, d := range diags {
		require.Equal(t, model.StagePersist, d.Stage)
		require.Equal(t, model.SampleID(1), d.SampleID)
		require.Contains(t, d.Message, "injected artifact failure")
	}

	// the other artifacts are still written
	for _, name := range []string{
		"00001_config.txt", "00001_graph_memberships.txt",
		"00001_feature_membership.txt", "00001_edge_features.txt",
	} {
		ok, err := inner.FileExists(ctx, name)
		require.NoError(t, err)
		require.True(t, ok, name)
	}
}

func TestPersistWithoutInstance(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, newTestStore(t), nil, nil)
	_, diags, err := h.PersistStage().Persist(context.Background(), &model.SampleRecord{SampleID: 3})
	require.Error(t, err)
	require.Len(t, diags, 1)
	require.Empty(t, diags[0].Artifact)
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	_, err := decodeGraph([]byte("0 1\n"))
	require.ErrorContains(t, err, "vertex header")
	_, err = decodeGraph([]byte("# vertices 2\n0 x\n"))
	require.Error(t, err)
	_, err = decodeEdgeFeatures([]byte("0 1 0.5\n"))
	require.ErrorContains(t, err, "bad edge feature line")
	_, err = DecodeMasks([]byte("1 0\n0 1\n"))
	require.ErrorContains(t, err, "2 rows")
	_, err = DecodeMasks([]byte("1 0\n0 2\n0 0\n"))
	require.ErrorContains(t, err, "bad mask value")
}
