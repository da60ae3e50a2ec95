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

package config

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/logutil"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

const (
	defaultNumSamples        = 10
	defaultSampleConcurrency = 4
	defaultModelConcurrency  = 2
	defaultOutput            = "/tmp/graphflow"
	defaultSeed              = 1
)

// Config is the configuration of one pipeline run.
type Config struct {
	Log *logutil.Config `toml:"log" json:"log"`

	// NumSamples is the size of the batch, sample ids are 0..NumSamples-1.
	NumSamples int `toml:"num-samples" json:"num-samples"`
	// SampleConcurrency bounds the number of sample chains in flight.
	SampleConcurrency int `toml:"sample-concurrency" json:"sample-concurrency"`
	// ModelConcurrency bounds the number of models benchmarked at once for a
	// single sample.
	ModelConcurrency int `toml:"model-concurrency" json:"model-concurrency"`
	// Seed is the run seed, every sample derives its own random stream from it.
	Seed int64 `toml:"seed" json:"seed"`

	// Output is the artifact storage URI, a local path or s3://, gcs://, azure://.
	Output string `toml:"output" json:"output"`
	// DatasetPath is passed through to the generator handler.
	DatasetPath string `toml:"dataset-path" json:"dataset-path"`

	Generator *GeneratorConfig `toml:"generator" json:"generator"`
	Convert   *ConvertConfig   `toml:"convert" json:"convert"`
	Models    []*ModelConfig   `toml:"models" json:"models"`
	Sink      *SinkConfig      `toml:"sink" json:"sink"`
}

// GetDefaultConfig returns the default pipeline config. It has no benchmark
// models, at least one must come from the config file.
func GetDefaultConfig() *Config {
	return &Config{
		Log: &logutil.Config{
			Level: "info",
		},
		NumSamples:        defaultNumSamples,
		SampleConcurrency: defaultSampleConcurrency,
		ModelConcurrency:  defaultModelConcurrency,
		Seed:              defaultSeed,
		Output:            defaultOutput,
		Generator:         defaultGeneratorConfig(),
		Convert:           defaultConvertConfig(),
		Sink:              defaultSinkConfig(),
	}
}

// ValidateAndAdjust validates the config and fills the zero values with defaults.
func (c *Config) ValidateAndAdjust() error {
	if c.Log == nil {
		c.Log = &logutil.Config{}
	}
	c.Log.Adjust()

	if c.NumSamples <= 0 {
		return cerror.ErrInvalidConfig.GenWithStackByArgs(
			fmt.Sprintf("num-samples must be positive, got %d", c.NumSamples))
	}
	if c.SampleConcurrency <= 0 {
		c.SampleConcurrency = defaultSampleConcurrency
	}
	if c.ModelConcurrency <= 0 {
		c.ModelConcurrency = defaultModelConcurrency
	}
	if c.Output == "" {
		return cerror.ErrInvalidConfig.GenWithStackByArgs("output is empty")
	}

	if c.Generator == nil {
		c.Generator = defaultGeneratorConfig()
	}
	if err := c.Generator.ValidateAndAdjust(); err != nil {
		return err
	}
	if c.Convert == nil {
		c.Convert = defaultConvertConfig()
	}
	if err := c.Convert.ValidateAndAdjust(); err != nil {
		return err
	}

	if len(c.Models) == 0 {
		return cerror.ErrInvalidConfig.GenWithStackByArgs("no benchmark model is configured")
	}
	for i, m := range c.Models {
		if m == nil || strings.TrimSpace(m.Kind) == "" {
			return cerror.ErrInvalidConfig.GenWithStackByArgs(
				fmt.Sprintf("models[%d] has an empty kind", i))
		}
		if m.Hparams == nil {
			m.Hparams = make(map[string]interface{})
		}
	}

	if c.Sink == nil {
		c.Sink = defaultSinkConfig()
	}
	return c.Sink.ValidateAndAdjust()
}

// String returns the json representation of the config with the sensitive
// fields hidden.
func (c *Config) String() string {
	cfg, err := json.Marshal(c)
	if err != nil {
		log.Error("marshal config to json", zap.Reflect("config", c), logutil.ShortError(err))
	}
	return logutil.HideSensitive(string(cfg))
}

// ConvertConfig configures how samples are converted into model-ready data.
type ConvertConfig struct {
	// KTrain is the number of train nodes drawn from every class.
	KTrain int `toml:"k-train" json:"k-train"`
	// KVal is the number of validation nodes drawn from every class.
	KVal int `toml:"k-val" json:"k-val"`
}

func defaultConvertConfig() *ConvertConfig {
	return &ConvertConfig{
		KTrain: 5,
		KVal:   5,
	}
}

// ValidateAndAdjust validates the convert config.
func (c *ConvertConfig) ValidateAndAdjust() error {
	if c.KTrain <= 0 || c.KVal < 0 {
		return cerror.ErrInvalidConfig.GenWithStackByArgs(
			fmt.Sprintf("convert needs k-train > 0 and k-val >= 0, got %d and %d", c.KTrain, c.KVal))
	}
	return nil
}

// ModelConfig is one (model kind, hyperparameter set) pair.
type ModelConfig struct {
	// Kind selects the benchmarker implementation.
	Kind string `toml:"kind" json:"kind"`
	// Name overrides the model name reported in rows.
	Name string `toml:"name" json:"name,omitempty"`
	// Hparams is passed to the benchmarker factory as is.
	Hparams map[string]interface{} `toml:"hparams" json:"hparams"`
}
