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

package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/stretchr/testify/require"
)

func TestArtifactName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "00000_config.txt", ArtifactName(0, "config", "txt"))
	require.Equal(t, "00012_graph_stats.txt", ArtifactName(12, "graph_stats", ".txt"))

	seen := make(map[string]struct{})
	for id := model.SampleID(0); id < 100; id++ {
		for _, artifact := range []string{"config", "graph", "masks"} {
			name := ArtifactName(id, artifact, "txt")
			_, dup := seen[name]
			require.False(t, dup, name)
			seen[name] = struct{}{}
		}
	}
}

func TestWriteAndReadArtifact(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewArtifactStore(ctx, dir)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(store.URI(), dir))

	require.NoError(t, WriteArtifact(ctx, store, "00001_config.txt", MIMEJSON, []byte(`{"a":1}`)))
	require.NoError(t, WriteArtifact(ctx, store, "00001_graph.txt", MIMEText, []byte("0 1\n")))

	data, err := store.ReadFile(ctx, "00001_config.txt")
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(data))

	onDisk, err := os.ReadFile(filepath.Join(dir, "00001_graph.txt"))
	require.NoError(t, err)
	require.Equal(t, "0 1\n", string(onDisk))

	ok, err := store.FileExists(ctx, "00001_graph.txt")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = store.FileExists(ctx, "00002_graph.txt")
	require.NoError(t, err)
	require.False(t, ok)

	var names []string
	require.NoError(t, store.Walk(ctx, func(path string, _ int64) error {
		names = append(names, filepath.Base(path))
		return nil
	}))
	sort.Strings(names)
	require.Equal(t, []string{"00001_config.txt", "00001_graph.txt"}, names)
}

func TestReadMissingArtifact(t *testing.T) {
	t.Parallel()

	store, err := NewLocalArtifactStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.ReadFile(context.Background(), "00000_missing.txt")
	require.Error(t, err)
	require.True(t, cerror.Is(err, cerror.ErrArtifactRead), err.Error())
}

func TestFaultyStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner, err := NewLocalArtifactStore(t.TempDir())
	require.NoError(t, err)
	store := NewFaultyStore(inner, func(path string) bool {
		return strings.HasSuffix(path, "_masks.txt")
	})

	require.NoError(t, WriteArtifact(ctx, store, "00000_graph.txt", MIMEText, []byte("x")))
	err = WriteArtifact(ctx, store, "00000_masks.txt", MIMEText, []byte("x"))
	require.Error(t, err)
	require.True(t, cerror.Is(err, cerror.ErrArtifactWrite), err.Error())
	require.Equal(t, []string{"00000_graph.txt"}, store.Created())

	ok, err := inner.FileExists(ctx, "00000_masks.txt")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewArtifactStoreInvalidURI(t *testing.T) {
	t.Parallel()

	_, err := NewArtifactStore(context.Background(), "unknown-scheme://bucket/prefix")
	require.Error(t, err)
	require.True(t, cerror.Is(err, cerror.ErrStorageInit), err.Error())
}
