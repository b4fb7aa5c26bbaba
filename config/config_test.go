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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gorse-io/mfkit/model"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configText = `
[glove]
n_factors = 100
lr = 0.025
alpha = 0.5
x_max = 10
optimizer = " Adam"
random_state = 7

[bpr]
n_factors = 32
lr = 0.01
reg = 0.001
optimizer = "adagrad"

[fit]
epochs = 25
jobs = 4
verbose = 5
top_k = 5
`

func writeConfig(t *testing.T, text string) string {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, configText))
	require.NoError(t, err)
	// [glove]
	assert.Equal(t, 100, config.GloVe.NFactors)
	assert.Equal(t, float32(0.025), config.GloVe.Lr)
	assert.Equal(t, float32(0.5), config.GloVe.Alpha)
	assert.Equal(t, float32(10), config.GloVe.XMax)
	assert.Equal(t, "adam", config.GloVe.Optimizer)
	assert.Equal(t, int64(7), config.GloVe.RandomState)
	// [bpr]
	assert.Equal(t, 32, config.BPR.NFactors)
	assert.Equal(t, float32(0.01), config.BPR.Lr)
	assert.Equal(t, float32(0.001), config.BPR.Reg)
	assert.Equal(t, "adagrad", config.BPR.Optimizer)
	// [fit]
	assert.Equal(t, 25, config.Fit.Epochs)
	assert.Equal(t, 4, config.Fit.Jobs)
	assert.Equal(t, 5, config.Fit.Verbose)
	assert.Equal(t, 5, config.Fit.TopK)
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)

	config, err = LoadConfig(writeConfig(t, "[bpr]\nn_factors = 8\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, config.BPR.NFactors)
	assert.Equal(t, GetDefaultConfig().GloVe, config.GloVe)
	assert.Equal(t, GetDefaultConfig().Fit, config.Fit)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("MFKIT_BPR_N_FACTORS", "64")
	t.Setenv("MFKIT_FIT_EPOCHS", "3")
	t.Setenv("MFKIT_GLOVE_LR", "0.2")
	config, err := LoadConfig(writeConfig(t, configText))
	require.NoError(t, err)
	assert.Equal(t, 64, config.BPR.NFactors)
	assert.Equal(t, 3, config.Fit.Epochs)
	assert.Equal(t, float32(0.2), config.GloVe.Lr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "[bpr]\noptimizer = \"sgd\"\n"))
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = LoadConfig(writeConfig(t, "[glove]\nn_factors = 0\n"))
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = LoadConfig(writeConfig(t, "[fit]\ntop_k = -1\n"))
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestConfig_Params(t *testing.T) {
	config := GetDefaultConfig()
	params := config.BPR.Params()
	assert.Equal(t, 20, params.GetInt(model.NFactors, 0))
	assert.Equal(t, "adam", params.GetString(model.Optimizer, ""))
	params = config.GloVe.Params()
	assert.Equal(t, float32(100), params.GetFloat32(model.XMax, 0))
	assert.Equal(t, "adagrad", params.GetString(model.Optimizer, ""))

	fitConfig := config.Fit.ToFitConfig()
	assert.Equal(t, 10, fitConfig.Epochs)
	assert.Equal(t, 0, fitConfig.Jobs)
	assert.Positive(t, fitConfig.ResolveJobs())
	assert.Equal(t, 10, fitConfig.TopK)
}

func TestConfig_ToMap(t *testing.T) {
	m, err := GetDefaultConfig().ToMap()
	require.NoError(t, err)
	assert.Contains(t, m, "glove")
	assert.Contains(t, m, "bpr")
	assert.Contains(t, m, "fit")
}
