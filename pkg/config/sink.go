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
	"time"

	cerror "github.com/pingcap/graphflow/pkg/errors"
)

// Sink types.
const (
	SinkTypeFile  = "file"
	SinkTypeKafka = "kafka"
	SinkTypeSQL   = "sql"
)

// SQL drivers supported by the sql sink.
const (
	SQLDriverMySQL  = "mysql"
	SQLDriverSQLite = "sqlite"
)

const (
	defaultNumShards      = 10
	defaultResultFileName = "results.ndjson"
	defaultSQLTable       = "benchmark_rows"
	defaultSQLBatchSize   = 256
	defaultKafkaTimeout   = 10 * time.Second
)

// SinkConfig configures where the benchmark rows go.
type SinkConfig struct {
	Type string `toml:"type" json:"type"`

	// NumShards and FileName apply to the file sink.
	NumShards int    `toml:"num-shards" json:"num-shards"`
	FileName  string `toml:"file-name" json:"file-name"`

	Kafka *KafkaConfig `toml:"kafka" json:"kafka,omitempty"`
	SQL   *SQLConfig   `toml:"sql" json:"sql,omitempty"`
}

// KafkaConfig configures the kafka sink.
type KafkaConfig struct {
	Brokers      []string `toml:"brokers" json:"brokers"`
	Topic        string   `toml:"topic" json:"topic"`
	ClientID     string   `toml:"client-id" json:"client-id"`
	Version      string   `toml:"version" json:"version"`
	SASLUser     string   `toml:"sasl-user" json:"sasl-user"`
	SASLPassword string   `toml:"sasl-password" json:"sasl-password"`
	// DialTimeout is a duration string such as "10s".
	DialTimeout string `toml:"dial-timeout" json:"dial-timeout"`

	DialTimeoutDuration time.Duration `toml:"-" json:"-"`
}

// SQLConfig configures the sql sink.
type SQLConfig struct {
	Driver    string `toml:"driver" json:"driver"`
	DSN       string `toml:"dsn" json:"dsn"`
	Table     string `toml:"table" json:"table"`
	BatchSize int    `toml:"batch-size" json:"batch-size"`
}

func defaultSinkConfig() *SinkConfig {
	return &SinkConfig{
		Type:      SinkTypeFile,
		NumShards: defaultNumShards,
		FileName:  defaultResultFileName,
	}
}

// ValidateAndAdjust validates the sink config.
func (c *SinkConfig) ValidateAndAdjust() error {
	if c.Type == "" {
		c.Type = SinkTypeFile
	}
	switch c.Type {
	case SinkTypeFile:
		if c.NumShards <= 0 {
			c.NumShards = defaultNumShards
		}
		if c.FileName == "" {
			c.FileName = defaultResultFileName
		}
	case SinkTypeKafka:
		if c.Kafka == nil || len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			return cerror.ErrInvalidConfig.GenWithStackByArgs("kafka sink needs brokers and topic")
		}
		c.Kafka.DialTimeoutDuration = defaultKafkaTimeout
		if c.Kafka.DialTimeout != "" {
			d, err := time.ParseDuration(c.Kafka.DialTimeout)
			if err != nil {
				return cerror.ErrInvalidConfig.GenWithStackByArgs(
					fmt.Sprintf("invalid kafka dial-timeout %q", c.Kafka.DialTimeout))
			}
			c.Kafka.DialTimeoutDuration = d
		}
		if c.Kafka.ClientID == "" {
			c.Kafka.ClientID = "graphflow"
		}
	case SinkTypeSQL:
		if c.SQL == nil || c.SQL.DSN == "" {
			return cerror.ErrInvalidConfig.GenWithStackByArgs("sql sink needs a dsn")
		}
		if c.SQL.Driver == "" {
			c.SQL.Driver = SQLDriverMySQL
		}
		if c.SQL.Driver != SQLDriverMySQL && c.SQL.Driver != SQLDriverSQLite {
			return cerror.ErrInvalidConfig.GenWithStackByArgs(
				fmt.Sprintf("unsupported sql driver %q", c.SQL.Driver))
		}
		if c.SQL.Table == "" {
			c.SQL.Table = defaultSQLTable
		}
		if c.SQL.BatchSize <= 0 {
			c.SQL.BatchSize = defaultSQLBatchSize
		}
	default:
		return cerror.ErrUnknownSinkType.GenWithStackByArgs(c.Type)
	}
	return nil
}
