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

package run

import (
	"context"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pingcap/errors"
	"github.com/pingcap/graphflow/pkg/cmd/util"
	"github.com/pingcap/graphflow/pkg/config"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/logutil"
	"github.com/pingcap/graphflow/pkg/metrics"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/graphflow/pkg/pipeline"
	"github.com/pingcap/graphflow/pkg/version"
	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// options defines flags for the `run` command.
type options struct {
	configFilePath string
	metricsAddr    string
	jsonSummary    bool

	// flag values, they override the config file only when set.
	datasetPath       string
	output            string
	logLevel          string
	logFile           string
	sampleConcurrency int
	numSamples        int
}

// newOptions creates new options for the `run` command.
func newOptions() *options {
	return &options{}
}

// addFlags binds the flags of the `run` command.
func (o *options) addFlags(cmd *cobra.Command) {
	defaultConfig := config.GetDefaultConfig()
	cmd.Flags().StringVar(&o.configFilePath, "config", "", "Path of the configuration file")
	cmd.Flags().StringVar(&o.datasetPath, "dataset-path", defaultConfig.DatasetPath, "Path passed to the generator")
	cmd.Flags().StringVar(&o.output, "output", defaultConfig.Output, "Artifact storage URI, a local path or s3://, gcs://, azure://")
	cmd.Flags().StringVar(&o.logLevel, "log-level", defaultConfig.Log.Level, "log level (etc: debug|info|warn|error)")
	cmd.Flags().StringVar(&o.logFile, "log-file", defaultConfig.Log.File, "log file path")
	cmd.Flags().IntVar(&o.sampleConcurrency, "sample-concurrency", defaultConfig.SampleConcurrency, "Number of samples processed at once")
	cmd.Flags().IntVar(&o.numSamples, "num-samples", defaultConfig.NumSamples, "Number of samples of the batch")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "Expose prometheus metrics on this address, disabled if empty")
	cmd.Flags().BoolVar(&o.jsonSummary, "json", false, "Print the run summary as JSON")
}

func (o *options) loadAndVerifyConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.GetDefaultConfig()
	if len(o.configFilePath) > 0 {
		if err := util.StrictDecodeFile(o.configFilePath, cfg); err != nil {
			return nil, err
		}
	}
	cmd.Flags().Visit(func(flag *pflag.Flag) {
		switch flag.Name {
		case "dataset-path":
			cfg.DatasetPath = o.datasetPath
		case "output":
			cfg.Output = o.output
		case "log-level":
			cfg.Log.Level = o.logLevel
		case "log-file":
			cfg.Log.File = o.logFile
		case "sample-concurrency":
			cfg.SampleConcurrency = o.sampleConcurrency
		case "num-samples":
			cfg.NumSamples = o.numSamples
		case "config", "metrics-addr", "json":
			// do nothing
		default:
			log.Panic("unknown flag, please report a bug", zap.String("flagName", flag.Name))
		}
	})
	if err := cfg.ValidateAndAdjust(); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

func (o *options) run(cmd *cobra.Command) error {
	cfg, err := o.loadAndVerifyConfig(cmd)
	if err != nil {
		return errors.Trace(err)
	}

	ctx, cancel := util.InitCmd(cmd, cfg.Log)
	defer cancel()
	util.InitSignalHandling(cancel)

	version.LogVersionInfo()
	util.LogHTTPProxies()
	log.Info("pipeline config", zap.String("config", cfg.String()))

	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	var eg errgroup.Group
	if o.metricsAddr != "" {
		eg.Go(func() error {
			return metrics.Serve(metricsCtx, o.metricsAddr)
		})
	}

	summary, runErr := o.runPipeline(ctx, cfg)
	stopMetrics()
	if err := eg.Wait(); err != nil {
		log.Warn("metrics server exited with error", logutil.ShortError(err))
	}

	if runErr != nil {
		if cerror.IsContextCanceledError(runErr) && summary != nil {
			warn := newColor(cmd.OutOrStdout(), color.FgHiYellow)
			cmd.Print(warn.Sprintf("[WARN] run %s cancelled after %d samples\n",
				summary.RunID, summary.Samples))
			return errors.Annotate(runErr, "run cancelled")
		}
		log.Error("run pipeline", zap.String("error", errors.ErrorStack(runErr)))
		return errors.Annotate(runErr, "run pipeline")
	}
	if o.jsonSummary {
		return util.JSONPrint(cmd, summary)
	}
	printSummary(cmd, summary)
	return nil
}

func (o *options) runPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Summary, error) {
	driver, err := pipeline.Build(ctx, cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.Warn("close row sink failed", logutil.ShortError(err))
		}
	}()
	return driver.Run(ctx)
}

// newColor returns a printer for attr that emits plain text unless w is a
// terminal.
func newColor(w io.Writer, attr color.Attribute) *color.Color {
	c := color.New(attr)
	if !isTerminal(w) {
		c.DisableColor()
	}
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printSummary(cmd *cobra.Command, s *pipeline.Summary) {
	w := cmd.OutOrStdout()
	cmd.Printf("%s run %s finished\n", newColor(w, color.FgGreen).Sprint("[OK]"), s.RunID)
	cmd.Printf("samples: %d, completed: %d, rows: %d, artifacts: %s\n",
		s.Samples, s.Completed, s.Rows, humanize.Bytes(uint64(s.ArtifactBytes)))
	if s.Diagnostics == 0 {
		return
	}
	cmd.Print(newColor(w, color.FgHiYellow).Sprintf("[WARN] %d diagnostics (sample: %d, persist: %d, convert: %d, benchmark: %d), see %s\n",
		s.Diagnostics,
		s.Failed[model.StageSample], s.Failed[model.StagePersist],
		s.Failed[model.StageConvert], s.Failed[model.StageBenchmark],
		pipeline.DiagnosticsFile))
}

// NewCmdRun creates the `run` command.
func NewCmdRun() *cobra.Command {
	o := newOptions()

	command := &cobra.Command{
		Use:   "run",
		Short: "Generate a batch of synthetic graphs and benchmark models on them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}
	o.addFlags(command)

	return command
}
