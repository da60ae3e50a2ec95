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
	"github.com/prometheus/client_golang/prometheus"
)

var (
	sinkRowsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "graphflow",
			Subsystem: "sink",
			Name:      "rows_total",
			Help:      "Total count of benchmark rows written to the sink.",
		}, []string{"type"})

	sinkWriteErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "graphflow",
			Subsystem: "sink",
			Name:      "write_errors_total",
			Help:      "Total count of failed sink writes.",
		}, []string{"type"})

	sinkWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "graphflow",
			Subsystem: "sink",
			Name:      "write_duration_seconds",
			Help:      "Bucketed histogram of the duration of one sink write.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		}, []string{"type"})
)

// InitMetrics registers all metrics in this file.
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(sinkRowsCounter)
	registry.MustRegister(sinkWriteErrorCounter)
	registry.MustRegister(sinkWriteDuration)
}
