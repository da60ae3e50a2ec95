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
	"sync"

	"github.com/pingcap/errors"
	brstorage "github.com/pingcap/tidb/br/pkg/storage"
)

// ErrInjected is returned by a FaultyStore for the paths it fails.
var ErrInjected = errors.New("injected artifact failure")

// NewLocalArtifactStore creates an ArtifactStore over a local directory.
func NewLocalArtifactStore(dir string) (ArtifactStore, error) {
	s, err := brstorage.NewLocalStorage(dir)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewArtifactStoreWithStorage(s), nil
}

// FaultyStore wraps an ArtifactStore and fails the creation of every path
// accepted by FailOn. It is used in tests.
type FaultyStore struct {
	ArtifactStore
	FailOn func(path string) bool

	mu      sync.Mutex
	created []string
}

// NewFaultyStore creates a FaultyStore.
func NewFaultyStore(inner ArtifactStore, failOn func(path string) bool) *FaultyStore {
	return &FaultyStore{ArtifactStore: inner, FailOn: failOn}
}

// Create implements ArtifactStore.
func (s *FaultyStore) Create(ctx context.Context, path, mime string) (ArtifactWriter, error) {
	if s.FailOn != nil && s.FailOn(path) {
		return nil, errors.Annotate(ErrInjected, path)
	}
	s.mu.Lock()
	s.created = append(s.created, path)
	s.mu.Unlock()
	return s.ArtifactStore.Create(ctx, path, mime)
}

// Created returns the paths successfully opened for writing.
func (s *FaultyStore) Created() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.created...)
}
