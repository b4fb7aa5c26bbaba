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
	"github.com/gorse-io/mfkit/model"
	"github.com/spf13/pflag"
)

/* Flags for parameters */

const (
	intFlag = iota
	int64Flag
	float32Flag
	stringFlag
)

type paramFlag struct {
	Type int
	Key  model.ParamName
	Name string
	Help string
}

var gloveParamFlags = []paramFlag{
	{intFlag, model.NFactors, "n-factors", "Number of factors"},
	{float32Flag, model.Lr, "lr", "Learning rate"},
	{float32Flag, model.Alpha, "alpha", "Exponent of the co-occurrence weight"},
	{float32Flag, model.XMax, "x-max", "Co-occurrence count of full weight"},
	{stringFlag, model.Optimizer, "optimizer", "Optimizer (adagrad or adam)"},
	{int64Flag, model.RandomState, "random-state", "Random seed"},
}

var bprParamFlags = []paramFlag{
	{intFlag, model.NFactors, "n-factors", "Number of factors"},
	{float32Flag, model.Lr, "lr", "Learning rate"},
	{float32Flag, model.Reg, "reg", "Regularization strength"},
	{stringFlag, model.Optimizer, "optimizer", "Optimizer (adagrad or adam)"},
	{int64Flag, model.RandomState, "random-state", "Random seed"},
}

func addParamFlags(flagSet *pflag.FlagSet, paramFlags []paramFlag) {
	for _, paramFlag := range paramFlags {
		switch paramFlag.Type {
		case intFlag:
			flagSet.Int(paramFlag.Name, 0, paramFlag.Help)
		case int64Flag:
			flagSet.Int64(paramFlag.Name, 0, paramFlag.Help)
		case float32Flag:
			flagSet.Float32(paramFlag.Name, 0, paramFlag.Help)
		case stringFlag:
			flagSet.String(paramFlag.Name, "", paramFlag.Help)
		}
	}
}

// parseParamFlags collects the parameters set on the command line.
func parseParamFlags(flagSet *pflag.FlagSet, paramFlags []paramFlag) model.Params {
	params := make(model.Params)
	for _, paramFlag := range paramFlags {
		if !flagSet.Changed(paramFlag.Name) {
			continue
		}
		switch paramFlag.Type {
		case intFlag:
			params[paramFlag.Key], _ = flagSet.GetInt(paramFlag.Name)
		case int64Flag:
			params[paramFlag.Key], _ = flagSet.GetInt64(paramFlag.Name)
		case float32Flag:
			params[paramFlag.Key], _ = flagSet.GetFloat32(paramFlag.Name)
		case stringFlag:
			params[paramFlag.Key], _ = flagSet.GetString(paramFlag.Name)
		}
	}
	return params
}
