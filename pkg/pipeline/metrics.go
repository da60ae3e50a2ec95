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

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSucceeded = "succeeded"
	resultFailed    = "failed"
)

var (
	samplesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "graphflow",
			Subsystem: "pipeline",
			Name:      "samples_total",
			Help:      "Total count of samples that left a stage, by stage and result.",
		}, []string{"stage", "result"})

	chainDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "graphflow",
			Subsystem: "pipeline",
			Name:      "chain_duration_seconds",
			Help:      "Bucketed histogram of the duration of one sample chain.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
		})

	runningChainsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "graphflow",
			Subsystem: "pipeline",
			Name:      "running_chains",
			Help:      "The number of sample chains in flight.",
		})
)

// InitMetrics registers all metrics in this file.
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(samplesCounter)
	registry.MustRegister(chainDuration)
	registry.MustRegister(runningChainsGauge)
}
