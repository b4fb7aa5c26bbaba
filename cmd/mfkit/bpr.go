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
	"context"

	"github.com/gorse-io/mfkit/common/log"
	"github.com/gorse-io/mfkit/dataset"
	"github.com/gorse-io/mfkit/model"
	"github.com/gorse-io/mfkit/model/bpr"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBPRCommand(a *app) *cobra.Command {
	command := &cobra.Command{
		Use:   "bpr",
		Short: "Train a BPR recommender on implicit feedback.",
		Long: `Train a BPR recommender on "user item" lines. Users and items are
0-based indices. The test set, if given, is scored after every epoch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := make(map[string]string)
			for _, name := range []string{"train", "validation", "test", "exclude"} {
				paths[name], _ = cmd.Flags().GetString(name)
			}
			userOutput, _ := cmd.Flags().GetString("user-output")
			itemOutput, _ := cmd.Flags().GetString("item-output")

			// load data
			sets := make(map[string]*dataset.COO)
			for name, path := range paths {
				if path == "" {
					continue
				}
				m, err := readTriples(path)
				if err != nil {
					return errors.Trace(err)
				}
				sets[name] = m
			}
			if err := reshape(false, sets["train"], sets["validation"], sets["test"], sets["exclude"]); err != nil {
				return errors.Trace(err)
			}

			// fit model
			m := bpr.NewBPR(a.config.BPR.Params().Overwrite(parseParamFlags(cmd.Flags(), bprParamFlags)))
			fitConfig := a.config.Fit.ToFitConfig()
			if validation, ok := sets["validation"]; ok {
				fitConfig.SetValidation(validation)
			}
			if test, ok := sets["test"]; ok {
				fitConfig.SetTest(test)
			}
			if exclude, ok := sets["exclude"]; ok {
				fitConfig.SetExclude(exclude)
			}
			var records []model.Record
			_, err := trace(cmd.Context(), cmd.ErrOrStderr(), "bpr", func(ctx context.Context, observer model.Observer) error {
				var fitErr error
				records, fitErr = m.Fit(ctx, sets["train"], fitConfig.SetObserver(a.observer("bpr", observer)))
				return fitErr
			})
			if err != nil {
				return errors.Trace(err)
			}
			if err = renderRecords(cmd.OutOrStdout(), records); err != nil {
				return errors.Trace(err)
			}

			// save factors
			if userOutput != "" {
				if err = writeVectors(userOutput, m.UserFactor, nil); err != nil {
					return errors.Trace(err)
				}
				log.Logger().Info("save user factors", zap.String("path", userOutput))
			}
			if itemOutput != "" {
				if err = writeVectors(itemOutput, m.ItemFactor, nil); err != nil {
					return errors.Trace(err)
				}
				log.Logger().Info("save item factors", zap.String("path", itemOutput))
			}
			return nil
		},
	}
	command.Flags().String("train", "", "training feedback file")
	command.Flags().String("validation", "", "validation feedback file")
	command.Flags().String("test", "", "test feedback file")
	command.Flags().String("exclude", "", "feedback never sampled as negatives nor recommended")
	command.Flags().String("user-output", "", "user factor file")
	command.Flags().String("item-output", "", "item factor file")
	addParamFlags(command.Flags(), bprParamFlags)
	_ = command.MarkFlagRequired("train")
	return command
}
