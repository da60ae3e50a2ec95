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

package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/benchmark"
	"github.com/pingcap/graphflow/pkg/pipeline"
	"github.com/pingcap/graphflow/pkg/sink"
	"github.com/pingcap/graphflow/pkg/storage"
	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())

	storage.InitMetrics(registry)
	benchmark.InitMetrics(registry)
	sink.InitMetrics(registry)
	pipeline.InitMetrics(registry)
}

// Registry returns the registry every graphflow metric is registered in.
func Registry() *prometheus.Registry {
	return registry
}

// Handler returns the http handler exposing the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

const shutdownTimeout = 5 * time.Second

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("metrics server started", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Trace(err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Cause(err) == http.ErrServerClosed {
			return nil
		}
		return errors.Trace(err)
	}
}
