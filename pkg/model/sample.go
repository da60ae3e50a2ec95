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

package model

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// SampleID identifies one sample of a run. It is unique within a run.
type SampleID int

// String returns the fixed-width form used to derive artifact names.
func (id SampleID) String() string {
	return fmt.Sprintf("%05d", int(id))
}

// Generator config keys shared by all generator families.
const (
	ConfigKeyGeneratorName = "generator_name"
	ConfigKeySeed          = "seed"
)

// GeneratorConfig holds the parameters drawn for one sample. It is built once
// by the sample stage and read-only afterwards, all accessors return deep
// copies of list and map values.
type GeneratorConfig struct {
	params map[string]interface{}
}

// NewGeneratorConfig creates a GeneratorConfig from a deep copy of params.
func NewGeneratorConfig(params map[string]interface{}) *GeneratorConfig {
	return &GeneratorConfig{params: cloneParams(params)}
}

func cloneParams(params map[string]interface{}) map[string]interface{} {
	cp := make(map[string]interface{}, len(params))
	for k, v := range params {
		cp[k] = cloneValue(v)
	}
	return cp
}

// cloneValue copies the list and map values a config can hold, scalars are
// returned as is.
func cloneValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []float64:
		return append([]float64(nil), x...)
	case []int:
		return append([]int(nil), x...)
	case []string:
		return append([]string(nil), x...)
	case [][]float64:
		out := make([][]float64, len(x))
		for i, row := range x {
			out[i] = append([]float64(nil), row...)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]interface{}:
		return cloneParams(x)
	}
	return v
}

// Get returns the value of the named parameter.
func (c *GeneratorConfig) Get(key string) (interface{}, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.params[key]
	return cloneValue(v), ok
}

// GeneratorName returns the generator family name recorded in the config.
func (c *GeneratorConfig) GeneratorName() string {
	v, _ := c.Get(ConfigKeyGeneratorName)
	s, _ := v.(string)
	return s
}

// Keys returns the sorted parameter names.
func (c *GeneratorConfig) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.params))
	for k := range c.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fields returns a deep copy of all parameters.
func (c *GeneratorConfig) Fields() map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	return cloneParams(c.params)
}

// MarshalJSON implements json.Marshaler.
func (c *GeneratorConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Fields())
}

// UnmarshalJSON implements json.Unmarshaler. Numbers are decoded as float64.
func (c *GeneratorConfig) UnmarshalJSON(data []byte) error {
	params := make(map[string]interface{})
	if err := json.Unmarshal(data, &params); err != nil {
		return err
	}
	c.params = params
	return nil
}

// SampleRecord is what the sample stage emits and the persist stage passes
// through unchanged.
type SampleRecord struct {
	SampleID SampleID
	Config   *GeneratorConfig
	Instance *GeneratedInstance
}
