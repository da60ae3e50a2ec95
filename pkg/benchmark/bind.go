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
	"fmt"
	"strings"

	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/config"
	cerror "github.com/pingcap/graphflow/pkg/errors"
)

// ModelSpec is one configured (model kind, hyperparameters) pair.
type ModelSpec struct {
	Kind string
	// Name overrides the model name of the benchmarker if not empty.
	Name    string
	Hparams Hparams
}

// BoundModel is a ModelSpec resolved to its factory. It is created once per
// run and shared by every sample.
type BoundModel struct {
	Index   int
	Kind    string
	Name    string
	Hparams Hparams

	factory Factory
}

// NewBoundModel binds a factory directly, bypassing the registry.
func NewBoundModel(index int, spec ModelSpec, factory Factory) *BoundModel {
	return &BoundModel{
		Index:   index,
		Kind:    spec.Kind,
		Name:    spec.Name,
		Hparams: spec.Hparams.Clone(),
		factory: factory,
	}
}

// Slug identifies the model within the run, `{index}-{kind}`. It stays
// distinct when the same kind is configured twice.
func (m *BoundModel) Slug() string {
	return fmt.Sprintf("%d-%s", m.Index, strings.ToLower(m.Kind))
}

// New instantiates the benchmarker.
func (m *BoundModel) New() (Benchmarker, error) {
	return m.factory(m.Hparams.Clone())
}

func (m *BoundModel) displayName(b Benchmarker) string {
	if m.Name != "" {
		return m.Name
	}
	return b.ModelName()
}

// Bind resolves every spec against the registry. A benchmarker is built once
// per spec so invalid hyperparameters fail the run before any sample starts.
func Bind(r Registry, specs []ModelSpec) ([]*BoundModel, error) {
	bound := make([]*BoundModel, 0, len(specs))
	for i, spec := range specs {
		factory, ok := r.Lookup(spec.Kind)
		if !ok {
			return nil, cerror.ErrUnknownModelKind.GenWithStackByArgs(spec.Kind)
		}
		m := NewBoundModel(i, spec, factory)
		if _, err := m.New(); err != nil {
			return nil, errors.Annotatef(err, "models[%d]", i)
		}
		bound = append(bound, m)
	}
	return bound, nil
}

// SpecsFromConfig converts the configured models into specs.
func SpecsFromConfig(models []*config.ModelConfig) []ModelSpec {
	specs := make([]ModelSpec, 0, len(models))
	for _, m := range models {
		specs = append(specs, ModelSpec{
			Kind:    m.Kind,
			Name:    m.Name,
			Hparams: Hparams(m.Hparams),
		})
	}
	return specs
}
