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

package sink

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/config"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/graphflow/pkg/storage"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// ShardName returns the name of shard i of n, `{name}-{i:05d}-of-{n:05d}`.
func ShardName(name string, i, n int) string {
	return fmt.Sprintf("%s-%05d-of-%05d", name, i, n)
}

// fileSink buffers rows and writes them as NDJSON shards on Flush.
type fileSink struct {
	store     storage.ArtifactStore
	fileName  string
	numShards int

	mu   sync.Mutex
	rows []*model.Row
}

func newFileSink(store storage.ArtifactStore, fileName string, numShards int) *fileSink {
	if numShards <= 0 {
		numShards = 1
	}
	return &fileSink{
		store:     store,
		fileName:  fileName,
		numShards: numShards,
	}
}

func (s *fileSink) Type() string {
	return config.SinkTypeFile
}

func (s *fileSink) WriteRows(_ context.Context, rows ...*model.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
	return nil
}

// Flush writes every shard, empty ones included. Rows are sorted by sample id
// and model name and dealt round robin, so a rerun produces the same shards.
func (s *fileSink) Flush(ctx context.Context) (err error) {
	start := time.Now()
	s.mu.Lock()
	rows := append([]*model.Row(nil), s.rows...)
	s.mu.Unlock()
	defer func() { observeWrite(s.Type(), len(rows), start, err) }()

	lines := make([][]byte, len(rows))
	for i, row := range rows {
		if lines[i], err = json.Marshal(row); err != nil {
			return cerror.WrapError(cerror.ErrSinkWrite, err)
		}
	}
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := rows[order[a]], rows[order[b]]
		if ra.SampleID != rb.SampleID {
			return ra.SampleID < rb.SampleID
		}
		if ra.ModelName != rb.ModelName {
			return ra.ModelName < rb.ModelName
		}
		return bytes.Compare(lines[order[a]], lines[order[b]]) < 0
	})

	shards := make([]bytes.Buffer, s.numShards)
	for i, idx := range order {
		buf := &shards[i%s.numShards]
		buf.Write(lines[idx])
		buf.WriteByte('\n')
	}
	for i := range shards {
		path := ShardName(s.fileName, i, s.numShards)
		if err = storage.WriteArtifact(ctx, s.store, path, storage.MIMENDJSON, shards[i].Bytes()); err != nil {
			return cerror.WrapError(cerror.ErrSinkWrite, err)
		}
	}
	log.Info("rows written to file shards",
		zap.String("file-name", s.fileName),
		zap.Int("shards", s.numShards),
		zap.Int("rows", len(rows)))
	return nil
}

func (s *fileSink) Close() error {
	return nil
}

// ReadShards reads back every row the file sink wrote as generic objects.
func ReadShards(
	ctx context.Context, store storage.ArtifactStore, fileName string, numShards int,
) ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	for i := 0; i < numShards; i++ {
		data, err := store.ReadFile(ctx, ShardName(fileName, i, numShards))
		if err != nil {
			return nil, err
		}
		for _, line := range bytes.Split(data, []byte{'\n'}) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			obj := make(map[string]interface{})
			if err := json.Unmarshal(line, &obj); err != nil {
				return nil, errors.Trace(err)
			}
			out = append(out, obj)
		}
	}
	return out, nil
}
