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

// Package config reads the training configuration from a TOML file and MFKIT_*
// environment variables.
package config

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gorse-io/mfkit/model"
	"github.com/gorse-io/mfkit/model/bpr"
	"github.com/gorse-io/mfkit/model/glove"
	"github.com/gorse-io/mfkit/model/optimizer"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "MFKIT"

// Config is the configuration of all commands.
type Config struct {
	GloVe GloVeConfig `mapstructure:"glove"`
	BPR   BPRConfig   `mapstructure:"bpr"`
	Fit   FitConfig   `mapstructure:"fit"`
}

type GloVeConfig struct {
	NFactors    int     `mapstructure:"n_factors" validate:"gt=0"`
	Lr          float32 `mapstructure:"lr" validate:"gt=0"`
	Alpha       float32 `mapstructure:"alpha" validate:"gt=0"`
	XMax        float32 `mapstructure:"x_max" validate:"gt=0"`
	Optimizer   string  `mapstructure:"optimizer" validate:"oneof=adagrad adam"`
	RandomState int64   `mapstructure:"random_state"`
}

func (c *GloVeConfig) Params() model.Params {
	return model.Params{
		model.NFactors:    c.NFactors,
		model.Lr:          c.Lr,
		model.Alpha:       c.Alpha,
		model.XMax:        c.XMax,
		model.Optimizer:   c.Optimizer,
		model.RandomState: c.RandomState,
	}
}

type BPRConfig struct {
	NFactors    int     `mapstructure:"n_factors" validate:"gt=0"`
	Lr          float32 `mapstructure:"lr" validate:"gt=0"`
	Reg         float32 `mapstructure:"reg" validate:"gte=0"`
	Optimizer   string  `mapstructure:"optimizer" validate:"oneof=adagrad adam"`
	RandomState int64   `mapstructure:"random_state"`
}

func (c *BPRConfig) Params() model.Params {
	return model.Params{
		model.NFactors:    c.NFactors,
		model.Lr:          c.Lr,
		model.Reg:         c.Reg,
		model.Optimizer:   c.Optimizer,
		model.RandomState: c.RandomState,
	}
}

type FitConfig struct {
	Epochs  int `mapstructure:"epochs" validate:"gte=0"`
	Jobs    int `mapstructure:"jobs"`
	Verbose int `mapstructure:"verbose" validate:"gte=0"`
	TopK    int `mapstructure:"top_k" validate:"gt=0"`
}

// ToFitConfig converts to fit options. Matrices and observers are set by the caller.
func (c *FitConfig) ToFitConfig() *model.FitConfig {
	return model.NewFitConfig().
		SetEpochs(c.Epochs).
		SetJobs(c.Jobs).
		SetVerbose(c.Verbose).
		SetTopK(c.TopK)
}

func GetDefaultConfig() *Config {
	return &Config{
		GloVe: GloVeConfig{
			NFactors:  glove.DefaultNFactors,
			Lr:        glove.DefaultLr,
			Alpha:     glove.DefaultAlpha,
			XMax:      glove.DefaultXMax,
			Optimizer: optimizer.AdaGradName,
		},
		BPR: BPRConfig{
			NFactors:  bpr.DefaultNFactors,
			Lr:        bpr.DefaultLr,
			Reg:       bpr.DefaultReg,
			Optimizer: optimizer.AdamName,
		},
		Fit: FitConfig{
			Epochs:  10,
			Jobs:    0,
			Verbose: 1,
			TopK:    10,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [glove]
	v.SetDefault("glove.n_factors", defaultConfig.GloVe.NFactors)
	v.SetDefault("glove.lr", defaultConfig.GloVe.Lr)
	v.SetDefault("glove.alpha", defaultConfig.GloVe.Alpha)
	v.SetDefault("glove.x_max", defaultConfig.GloVe.XMax)
	v.SetDefault("glove.optimizer", defaultConfig.GloVe.Optimizer)
	v.SetDefault("glove.random_state", defaultConfig.GloVe.RandomState)
	// [bpr]
	v.SetDefault("bpr.n_factors", defaultConfig.BPR.NFactors)
	v.SetDefault("bpr.lr", defaultConfig.BPR.Lr)
	v.SetDefault("bpr.reg", defaultConfig.BPR.Reg)
	v.SetDefault("bpr.optimizer", defaultConfig.BPR.Optimizer)
	v.SetDefault("bpr.random_state", defaultConfig.BPR.RandomState)
	// [fit]
	v.SetDefault("fit.epochs", defaultConfig.Fit.Epochs)
	v.SetDefault("fit.jobs", defaultConfig.Fit.Jobs)
	v.SetDefault("fit.verbose", defaultConfig.Fit.Verbose)
	v.SetDefault("fit.top_k", defaultConfig.Fit.TopK)
}

// LoadConfig reads the config file at path, or only defaults and environment variables
// if path is empty.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}
	var config Config
	if err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.DecodeHookFuncKind(normalizeStringHook),
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &config, nil
}

// normalizeStringHook trims and lowercases string values, e.g. " Adam" becomes "adam".
func normalizeStringHook(from reflect.Kind, to reflect.Kind, data interface{}) (interface{}, error) {
	if from == reflect.String && to == reflect.String {
		return strings.ToLower(strings.TrimSpace(data.(string))), nil
	}
	return data, nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks value ranges.
func (config *Config) Validate() error {
	if err := getValidator().Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	return nil
}

// ToMap flattens the config for logging.
func (config *Config) ToMap() (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := mapstructure.Decode(config, &result); err != nil {
		return nil, errors.Trace(err)
	}
	return result, nil
}
