// Copyright (c) 2025 Sebastian Cikes
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package http reports runtime metrics and status via HTTP.
//
// endpoints:
//
//	/metrics - prometheus registry
//	/status  - worker status log and per-service metric snapshots
//	/healthz - liveness probe
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/logging"
	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/metrics"
	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/scheduler"
	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Reporter serves the prometheus registry and the scheduler's status over HTTP
type Reporter struct {
	logger zerolog.Logger

	port      int
	scheduler *scheduler.Scheduler

	httpServer *http.Server
}

// NewReporter creates a reporter listening on the given port
func NewReporter(port int, sched *scheduler.Scheduler) *Reporter {
	return &Reporter{
		logger:    logging.NewPackageLogger("metrics.http"),
		port:      port,
		scheduler: sched,
	}
}

// Handler builds the reporter's route table
func (a *Reporter) Handler() http.Handler {
	router := chi.NewRouter()
	router.Get("/metrics", promhttp.HandlerFor(
		metrics.Registry,
		promhttp.HandlerOpts{
			ErrorLog:      a,
			ErrorHandling: promhttp.ContinueOnError,
		},
	).ServeHTTP)
	router.Get("/status", a.status)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return router
}

// Start launches the HTTP server. Listen errors are logged, not returned -
// a dead reporter never takes the runtime down with it.
func (a *Reporter) Start() {
	a.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler(),
	}
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error().Str(logging.FUNC, "Start").Err(err).Msg("")
		}
	}()
	a.logger.Info().Str(logging.FUNC, "Start").Int("port", a.port).Msg("")
}

// Stop shuts the HTTP server down, waiting up to 30s for in-flight requests
func (a *Reporter) Stop() {
	if a.httpServer == nil {
		return
	}
	shutdownContext, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownContext); err != nil {
		a.logger.Error().Str(logging.FUNC, "Stop").Err(err).Msg("")
	}
	a.httpServer = nil
}

type statusReport struct {
	Workers  map[string]string                    `json:"workers"`
	Services map[string]scheduler.MetricsSnapshot `json:"services"`
}

func (a *Reporter) status(w http.ResponseWriter, r *http.Request) {
	report := statusReport{
		Workers:  a.scheduler.StatusLog(),
		Services: a.scheduler.AllMetrics(),
	}
	data, err := json.Marshal(report)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// Println implements promhttp.Logger.
// It is used to log any errors reported by the prometheus http handler
func (a *Reporter) Println(v ...interface{}) {
	a.logger.Error().Msg(fmt.Sprint(v...))
}
