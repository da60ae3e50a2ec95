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

package benchmark

import (
	"sort"
	"sync"

	"github.com/pingcap/errors"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Registry maps model kinds to factories.
type Registry interface {
	MustRegister(kind string, factory Factory)
	Register(kind string, factory Factory) (ok bool)
	CreateBenchmarker(kind string, hparams Hparams) (Benchmarker, error)
	Lookup(kind string) (Factory, bool)
	Kinds() []string
}

type registryImpl struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() Registry {
	return &registryImpl{
		factories: make(map[string]Factory),
	}
}

func (r *registryImpl) MustRegister(kind string, factory Factory) {
	if ok := r.Register(kind, factory); !ok {
		log.Panic("duplicate benchmark model kind", zap.String("kind", kind))
	}
}

func (r *registryImpl) Register(kind string, factory Factory) (ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return false
	}
	r.factories[kind] = factory
	return true
}

func (r *registryImpl) CreateBenchmarker(kind string, hparams Hparams) (Benchmarker, error) {
	factory, ok := r.Lookup(kind)
	if !ok {
		return nil, cerror.ErrUnknownModelKind.GenWithStackByArgs(kind)
	}
	b, err := factory(hparams)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return b, nil
}

func (r *registryImpl) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func (r *registryImpl) Lookup(kind string) (factory Factory, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok = r.factories[kind]
	return
}

var globalRegistry = newRegistryWithReferenceModels()

// GlobalRegistry returns the registry holding the reference models.
func GlobalRegistry() Registry {
	return globalRegistry
}

// Register registers a model kind into the global registry. It panics on a
// duplicated kind.
func Register(kind string, factory Factory) {
	globalRegistry.MustRegister(kind, factory)
}

func newRegistryWithReferenceModels() Registry {
	r := NewRegistry()
	LoadReferenceModels(r)
	return r
}

// LoadReferenceModels registers the reference models into r.
func LoadReferenceModels(r Registry) {
	r.MustRegister(KindMajorityClass, newMajorityClass)
	r.MustRegister(KindNearestCentroid, newNearestCentroid)
	r.MustRegister(KindLabelPropagation, newLabelPropagation)
}
