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

package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSetLogger(t *testing.T) {
	temp := t.TempDir()
	path := filepath.Join(temp, "mfkit.log")
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	assert.NoError(t, flagSet.Parse([]string{"--log-path", path}))
	// production mode writes JSON lines to the file sink
	SetLogger(flagSet, false)
	Logger().Info("fit glove", zap.Int("epoch", 1))
	_ = Logger().Sync()
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"fit glove"`)
	assert.Contains(t, string(data), `"epoch":1`)
	// debug messages are dropped in production mode
	Logger().Debug("hidden message")
	_ = Logger().Sync()
	data, err = os.ReadFile(path)
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "hidden message")
	// debug mode enables debug level
	SetLogger(flagSet, true)
	assert.True(t, Logger().Core().Enabled(zap.DebugLevel))
}

func TestModelLogger(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	path := filepath.Join(t.TempDir(), "mfkit.log")
	assert.NoError(t, flagSet.Parse([]string{"--log-path", path}))
	SetLogger(flagSet, false)
	ModelLogger("bpr").Info("fit bpr complete")
	_ = Logger().Sync()
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"model":"bpr"`)
}
