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
	"context"
	"fmt"
	"math"
	"sort"

	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/model"
)

// Benchmarker trains and evaluates one model on a converted sample.
type Benchmarker interface {
	Benchmark(ctx context.Context, conv *model.ConvertedInstance) (*model.BenchmarkOutput, error)
	ModelName() string
}

// Factory creates a Benchmarker from its hyperparameters.
type Factory func(hparams Hparams) (Benchmarker, error)

// Hparams is the hyperparameter mapping of one configured model. Values come
// from TOML, so integers may be int64 and floats float64.
type Hparams map[string]interface{}

// Int returns the integer hyperparameter key, or def if it is absent.
func (h Hparams) Int(modelKind, key string, def int) (int, error) {
	v, ok := h[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	}
	return 0, cerror.ErrInvalidHparam.GenWithStackByArgs(
		key, modelKind, fmt.Sprintf("%v is not an integer", v))
}

// Float returns the float hyperparameter key, or def if it is absent.
func (h Hparams) Float(modelKind, key string, def float64) (float64, error) {
	v, ok := h[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, cerror.ErrInvalidHparam.GenWithStackByArgs(
		key, modelKind, fmt.Sprintf("%v is not a number", v))
}

// CheckKeys returns an error for the first key not in allowed.
func (h Hparams) CheckKeys(modelKind string, allowed ...string) error {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
outer:
	for _, k := range keys {
		for _, a := range allowed {
			if k == a {
				continue outer
			}
		}
		return cerror.ErrInvalidHparam.GenWithStackByArgs(k, modelKind, "unknown hyperparameter")
	}
	return nil
}

// Clone returns a copy of h.
func (h Hparams) Clone() Hparams {
	cp := make(Hparams, len(h))
	for k, v := range h {
		cp[k] = v
	}
	return cp
}
