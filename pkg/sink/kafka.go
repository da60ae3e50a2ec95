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
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/config"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

const (
	defaultKafkaVersion = "2.4.0"
	runIDHeader         = "graphflow-run-id"
)

// newSaramaConfig builds the producer config of the kafka sink.
func newSaramaConfig(cfg *config.KafkaConfig) (*sarama.Config, error) {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID

	v := cfg.Version
	if v == "" {
		v = defaultKafkaVersion
	}
	version, err := sarama.ParseKafkaVersion(v)
	if err != nil {
		return nil, cerror.WrapError(cerror.ErrSinkInit, err)
	}
	sc.Version = version

	sc.Metadata.Retry.Max = 10
	sc.Metadata.Retry.Backoff = 200 * time.Millisecond
	sc.Metadata.Timeout = 2 * time.Minute

	// rows are sent once, a failed batch fails the run
	sc.Producer.Retry.Max = 3
	sc.Producer.Retry.Backoff = 100 * time.Millisecond

	if cfg.DialTimeoutDuration > 0 {
		sc.Net.DialTimeout = cfg.DialTimeoutDuration
	}
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.RequiredAcks = sarama.WaitForAll

	if cfg.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		sc.Net.SASL.User = cfg.SASLUser
		sc.Net.SASL.Password = cfg.SASLPassword
	}
	return sc, nil
}

// kafkaSink sends every row as one message keyed by its sample id.
type kafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	runID    string
}

func newKafkaSink(_ context.Context, cfg *config.KafkaConfig, runID string) (*kafkaSink, error) {
	if cfg == nil {
		return nil, cerror.ErrSinkInit.GenWithStackByArgs(config.SinkTypeKafka)
	}
	sc, err := newSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, cerror.WrapError(cerror.ErrSinkInit, err)
	}
	log.Info("kafka sink created",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.String("client-id", cfg.ClientID))
	return newKafkaSinkWithProducer(producer, cfg.Topic, runID), nil
}

func newKafkaSinkWithProducer(producer sarama.SyncProducer, topic, runID string) *kafkaSink {
	return &kafkaSink{producer: producer, topic: topic, runID: runID}
}

func (s *kafkaSink) Type() string {
	return config.SinkTypeKafka
}

func (s *kafkaSink) WriteRows(ctx context.Context, rows ...*model.Row) (err error) {
	if len(rows) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	start := time.Now()
	defer func() { observeWrite(s.Type(), len(rows), start, err) }()

	msgs := make([]*sarama.ProducerMessage, 0, len(rows))
	for _, row := range rows {
		value, err := json.Marshal(row)
		if err != nil {
			return cerror.WrapError(cerror.ErrSinkWrite, err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: s.topic,
			Key:   sarama.StringEncoder(row.SampleID.String()),
			Value: sarama.ByteEncoder(value),
			Headers: []sarama.RecordHeader{
				{Key: []byte(runIDHeader), Value: []byte(s.runID)},
			},
		})
	}
	if err = s.producer.SendMessages(msgs); err != nil {
		return cerror.WrapError(cerror.ErrSinkWrite, err)
	}
	return nil
}

// Flush is a no-op, WriteRows waits for the broker acks.
func (s *kafkaSink) Flush(context.Context) error {
	return nil
}

func (s *kafkaSink) Close() error {
	return errors.Trace(s.producer.Close())
}
