// Copyright 2026 gorse Project Authors
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

package main

import (
	"net/http"

	"github.com/gorse-io/mfkit/common/log"
	"github.com/gorse-io/mfkit/common/monitor"
	"github.com/gorse-io/mfkit/config"
	"github.com/gorse-io/mfkit/model"
	"github.com/juju/errors"
	"github.com/klauspost/cpuid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// app holds the state shared by subcommands once the root command has set up.
type app struct {
	config  *config.Config
	metrics *monitor.Metrics
	server  *http.Server
}

func newRootCommand() *cobra.Command {
	a := new(app)
	rootCommand := &cobra.Command{
		Use:          "mfkit",
		Short:        "Train GloVe embeddings and BPR recommenders by parallel SGD.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Flags())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.shutdown()
		},
	}
	flags := rootCommand.PersistentFlags()
	log.AddFlags(flags)
	flags.Bool("debug", false, "use debug log mode")
	flags.StringP("config", "c", "", "configuration file path")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :8088")
	flags.Int("epochs", 0, "number of epochs (overrides config)")
	flags.IntP("jobs", "j", 0, "number of jobs for model fitting, 0 uses every CPU (overrides config)")
	flags.Int("verbose", 0, "verbose period (overrides config)")
	flags.Int("top-k", 0, "length of recommendation list (overrides config)")
	rootCommand.AddCommand(newGloVeCommand(a), newBPRCommand(a), newEvaluateCommand(a))
	return rootCommand
}

func (a *app) setup(flags *pflag.FlagSet) error {
	debug, _ := flags.GetBool("debug")
	log.SetLogger(flags, debug)
	log.Logger().Info("start mfkit",
		zap.String("cpu", cpuid.CPU.BrandName),
		zap.Int("physical_cores", cpuid.CPU.PhysicalCores),
		zap.Int("logical_cores", cpuid.CPU.LogicalCores),
		zap.Strings("features", cpuid.CPU.FeatureSet()))

	configPath, _ := flags.GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return errors.Trace(err)
	}
	if err = applyFlags(flags, conf); err != nil {
		return errors.Trace(err)
	}
	a.config = conf
	if values, err := conf.ToMap(); err == nil {
		log.Logger().Info("config", zap.Any("config", values))
	}

	if addr, _ := flags.GetString("metrics-addr"); addr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		a.metrics = monitor.NewMetrics(registry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		a.server = &http.Server{Addr: addr, Handler: mux}
		go func() {
			log.Logger().Info("start metrics server", zap.String("address", addr))
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Logger().Error("failed to serve metrics", zap.Error(err))
			}
		}()
	}
	return nil
}

func (a *app) shutdown() error {
	if a.server == nil {
		return nil
	}
	return errors.Trace(a.server.Close())
}

// observer collects the per epoch observers of a fit: metrics if served, followed by extra.
func (a *app) observer(name string, extra ...model.Observer) model.Observer {
	var list []model.Observer
	if a.metrics != nil {
		list = append(list, a.metrics.Observer(name))
	}
	return model.Observers(append(list, extra...)...)
}

// applyFlags overwrites config values with the flags set on the command line.
func applyFlags(flags *pflag.FlagSet, conf *config.Config) error {
	if flags.Changed("epochs") {
		conf.Fit.Epochs, _ = flags.GetInt("epochs")
	}
	if flags.Changed("jobs") {
		conf.Fit.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("verbose") {
		conf.Fit.Verbose, _ = flags.GetInt("verbose")
	}
	if flags.Changed("top-k") {
		conf.Fit.TopK, _ = flags.GetInt("top-k")
	}
	return conf.Validate()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
