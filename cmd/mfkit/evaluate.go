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
	"github.com/gorse-io/mfkit/common/log"
	"github.com/gorse-io/mfkit/model/ranking"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newEvaluateCommand(a *app) *cobra.Command {
	command := &cobra.Command{
		Use:   "evaluate",
		Short: "Score exported user and item factors on a test set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			usersPath, _ := cmd.Flags().GetString("users")
			itemsPath, _ := cmd.Flags().GetString("items")
			testPath, _ := cmd.Flags().GetString("test")
			excludePath, _ := cmd.Flags().GetString("exclude")

			users, _, err := readVectors(usersPath)
			if err != nil {
				return errors.Trace(err)
			}
			items, _, err := readVectors(itemsPath)
			if err != nil {
				return errors.Trace(err)
			}
			nUsers, _ := users.Shape()
			nItems, _ := items.Shape()
			test, err := readTriples(testPath)
			if err != nil {
				return errors.Trace(err)
			}
			if err = test.Reshape(nUsers, nItems); err != nil {
				return errors.Annotate(err, "test")
			}
			fitConfig := a.config.Fit.ToFitConfig()
			opts := []ranking.Option{ranking.WithJobs(fitConfig.ResolveJobs())}
			if excludePath != "" {
				exclude, err := readTriples(excludePath)
				if err != nil {
					return errors.Trace(err)
				}
				if err = exclude.Reshape(nUsers, nItems); err != nil {
					return errors.Annotate(err, "exclude")
				}
				opts = append(opts, ranking.WithExclude(exclude.ToCSR()))
			}

			log.Logger().Info("evaluate factors",
				zap.Int("n_users", nUsers),
				zap.Int("n_items", nItems),
				zap.Int("test_set_size", test.NNZ()),
				zap.Int("top_k", fitConfig.TopK))
			score, err := ranking.Evaluate(users, items, test, fitConfig.TopK, opts...)
			if err != nil {
				return errors.Trace(err)
			}
			return renderScores(cmd.OutOrStdout(), score.Metrics())
		},
	}
	command.Flags().String("users", "", "user factor file")
	command.Flags().String("items", "", "item factor file")
	command.Flags().String("test", "", "test feedback file")
	command.Flags().String("exclude", "", "feedback removed from the candidates, usually the training set")
	_ = command.MarkFlagRequired("users")
	_ = command.MarkFlagRequired("items")
	_ = command.MarkFlagRequired("test")
	return command
}
