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

package generator

import (
	"context"
	"sort"
	"sync"

	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/config"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Registry maps generator family names to handler builders.
type Registry interface {
	MustRegister(family string, builder Builder)
	Register(family string, builder Builder) (ok bool)
	NewHandler(ctx context.Context, cfg *config.GeneratorConfig, deps *Deps) (Handler, error)
	Families() []string
}

type registryImpl struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty Registry.
func NewRegistry() Registry {
	return &registryImpl{
		builders: make(map[string]Builder),
	}
}

func (r *registryImpl) MustRegister(family string, builder Builder) {
	if ok := r.Register(family, builder); !ok {
		log.Panic("duplicate generator family", zap.String("family", family))
	}
}

func (r *registryImpl) Register(family string, builder Builder) (ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[family]; exists {
		return false
	}
	r.builders[family] = builder
	return true
}

func (r *registryImpl) NewHandler(
	ctx context.Context, cfg *config.GeneratorConfig, deps *Deps,
) (Handler, error) {
	builder, ok := r.getBuilder(cfg.Family)
	if !ok {
		return nil, cerror.ErrUnknownGenerator.GenWithStackByArgs(cfg.Family)
	}
	h, err := builder(ctx, cfg, deps)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return h, nil
}

func (r *registryImpl) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	families := make([]string, 0, len(r.builders))
	for f := range r.builders {
		families = append(families, f)
	}
	sort.Strings(families)
	return families
}

func (r *registryImpl) getBuilder(family string) (builder Builder, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	builder, ok = r.builders[family]
	return
}

var globalRegistry = NewRegistry()

// GlobalRegistry returns the registry generator families register into.
func GlobalRegistry() Registry {
	return globalRegistry
}

// Register registers a family into the global registry. It panics on a
// duplicated family.
func Register(family string, builder Builder) {
	globalRegistry.MustRegister(family, builder)
}

// NewHandler creates the handler of cfg.Family from the global registry.
func NewHandler(ctx context.Context, cfg *config.GeneratorConfig, deps *Deps) (Handler, error) {
	return globalRegistry.NewHandler(ctx, cfg, deps)
}
