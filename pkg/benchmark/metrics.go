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
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSucceeded = "succeeded"
	resultFailed    = "failed"
)

var (
	benchmarkDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "graphflow",
			Subsystem: "benchmark",
			Name:      "duration_seconds",
			Help:      "Bucketed histogram of the time a model takes to benchmark one sample.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 18), // 1ms~131s
		}, []string{"model"})

	benchmarkRunCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "graphflow",
			Subsystem: "benchmark",
			Name:      "runs_total",
			Help:      "The count of (sample, model) benchmark runs.",
		}, []string{"model", "result"})
)

// InitMetrics registers all metrics in this file.
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(benchmarkDuration)
	registry.MustRegister(benchmarkRunCounter)
}
