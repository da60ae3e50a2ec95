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
	"fmt"
	"strings"

	"github.com/pingcap/errors"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/log"
	brstorage "github.com/pingcap/tidb/br/pkg/storage"
	"go.uber.org/zap"
)

// MIME hints of the artifacts written by the pipeline.
const (
	MIMEText   = "text/plain"
	MIMEJSON   = "application/json"
	MIMENDJSON = "application/x-ndjson"
)

// ArtifactWriter supports two methods:
// - Write: classical IO API.
// - Close: close the artifact and completes the upload if needed.
type ArtifactWriter interface {
	Write(ctx context.Context, p []byte) (int, error)
	Close(ctx context.Context) error
}

// ArtifactStore creates and reads artifacts under one storage root.
type ArtifactStore interface {
	// Create opens path for writing. mime is a hint of the artifact content.
	Create(ctx context.Context, path, mime string) (ArtifactWriter, error)
	// ReadFile reads the whole artifact at path.
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// FileExists reports whether path exists.
	FileExists(ctx context.Context, path string) (bool, error)
	// Walk calls fn for every artifact under the root.
	Walk(ctx context.Context, fn func(path string, size int64) error) error
	// URI returns the storage root.
	URI() string
}

// NewArtifactStore creates an ArtifactStore from a storage URI, a local path
// or one of file://, s3://, gcs://, azure://, noop://.
func NewArtifactStore(ctx context.Context, uri string) (ArtifactStore, error) {
	backend, err := brstorage.ParseBackend(uri, nil)
	if err != nil {
		return nil, cerror.WrapError(cerror.ErrStorageInit, errors.Annotate(err, uri))
	}
	s, err := brstorage.New(ctx, backend, &brstorage.ExternalStorageOptions{})
	if err != nil {
		return nil, cerror.WrapError(cerror.ErrStorageInit, errors.Annotate(err, uri))
	}
	log.Info("artifact storage opened", zap.String("uri", s.URI()))
	return NewArtifactStoreWithStorage(s), nil
}

// NewArtifactStoreWithStorage wraps an opened external storage.
func NewArtifactStoreWithStorage(s brstorage.ExternalStorage) ArtifactStore {
	return &artifactStore{storage: s}
}

type artifactStore struct {
	storage brstorage.ExternalStorage
}

func (s *artifactStore) Create(ctx context.Context, path, mime string) (ArtifactWriter, error) {
	w, err := s.storage.Create(ctx, path, &brstorage.WriterOption{})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &artifactWriter{
		ExternalFileWriter: w,
		path:               path,
		mime:               mime,
	}, nil
}

func (s *artifactStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, err := s.storage.ReadFile(ctx, path)
	if err != nil {
		return nil, cerror.WrapError(cerror.ErrArtifactRead, errors.Annotate(err, path))
	}
	return data, nil
}

func (s *artifactStore) FileExists(ctx context.Context, path string) (bool, error) {
	ok, err := s.storage.FileExists(ctx, path)
	return ok, errors.Trace(err)
}

func (s *artifactStore) Walk(ctx context.Context, fn func(path string, size int64) error) error {
	return errors.Trace(s.storage.WalkDir(ctx, &brstorage.WalkOption{}, fn))
}

func (s *artifactStore) URI() string {
	return s.storage.URI()
}

type artifactWriter struct {
	brstorage.ExternalFileWriter
	path    string
	mime    string
	written int64
}

func (w *artifactWriter) Write(ctx context.Context, p []byte) (int, error) {
	n, err := w.ExternalFileWriter.Write(ctx, p)
	w.written += int64(n)
	return n, err
}

func (w *artifactWriter) Close(ctx context.Context) error {
	if err := w.ExternalFileWriter.Close(ctx); err != nil {
		artifactWriteCounter.WithLabelValues(w.mime, resultFailed).Inc()
		return errors.Trace(err)
	}
	artifactWriteCounter.WithLabelValues(w.mime, resultSucceeded).Inc()
	artifactBytesCounter.WithLabelValues(w.mime).Add(float64(w.written))
	return nil
}

// ArtifactName derives the artifact path of a sample, `{id:05d}_{artifact}.{ext}`.
func ArtifactName(id model.SampleID, artifact, ext string) string {
	return fmt.Sprintf("%s_%s.%s", id, artifact, strings.TrimPrefix(ext, "."))
}

// WriteArtifact writes data to path in one shot. The writer is closed even if
// the write fails.
func WriteArtifact(ctx context.Context, store ArtifactStore, path, mime string, data []byte) error {
	w, err := store.Create(ctx, path, mime)
	if err != nil {
		artifactWriteCounter.WithLabelValues(mime, resultFailed).Inc()
		return cerror.WrapError(cerror.ErrArtifactWrite, errors.Annotate(err, path))
	}
	if _, err = w.Write(ctx, data); err != nil {
		_ = w.Close(ctx)
		return cerror.WrapError(cerror.ErrArtifactWrite, errors.Annotate(err, path))
	}
	if err = w.Close(ctx); err != nil {
		return cerror.WrapError(cerror.ErrArtifactWrite, errors.Annotate(err, path))
	}
	return nil
}
