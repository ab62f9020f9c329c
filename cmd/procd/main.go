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

// procd runs the service runtime from a config file.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/commons"
	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/config"
	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/logging"
	metricshttp "github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/metrics/http"
	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/scheduler"
	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/services"
	"github.com/spf13/cobra"
)

var logger = logging.NewPackageLogger("main")

var (
	configPath string
	reapEvery  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "procd",
	Short: "in-process service runtime",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run the service runtime until interrupted",
	RunE:  run,
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (.json, .yaml)")
	runCmd.Flags().DurationVar(&reapEvery, "reap-every", time.Second, "interval between completed-service sweeps")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(cfg.MaxWorkers)
	for _, w := range sched.Workers() {
		w.SetTickPeriodMillis(cfg.TickMillis)
		w.SetErrorThreshold(cfg.ErrorThreshold)
	}

	for i := range cfg.Services {
		sc := &cfg.Services[i]
		if !sc.Enabled {
			logger.Info().Str(logging.SERVICE, sc.Name).Msg("service disabled - skipped")
			continue
		}
		svc := buildService(sc)
		if svc == nil {
			logger.Warn().Str(logging.SERVICE, sc.Name).Msg("unknown service - skipped")
			continue
		}
		if err := sched.Register(svc, sc.Preferred()); err != nil {
			return err
		}
	}

	sched.StartAll()

	var reporter *metricshttp.Reporter
	if cfg.Metrics.Enabled {
		reporter = metricshttp.NewReporter(cfg.Metrics.HTTPPort, sched)
		reporter.Start()
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(reapEvery)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				sched.ReapCompleted()
			}
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-signals
	logger.Info().Msgf("%v signal received - shutting down", sig)

	commons.CloseQuietly(done)
	if reporter != nil {
		reporter.Stop()
	}
	sched.StopAll()
	sched.ReapCompleted()
	return nil
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		logger.Info().Msg("no config file - using defaults")
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// buildService maps a configured service name to its constructor. The
// parser forwards its output to the recorder.
func buildService(sc *config.ServiceConfig) *scheduler.Service {
	switch sc.Name {
	case "parser":
		return services.NewParser(sc.Name, "recorder", sc.PeriodMillis)
	case "recorder":
		return services.NewRecorder(sc.Name, os.Stdout, sc.PeriodMillis).Service
	default:
		return nil
	}
}
