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
	"github.com/gorse-io/mfkit/model/glove"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newGloVeCommand(a *app) *cobra.Command {
	command := &cobra.Command{
		Use:   "glove",
		Short: "Train word vectors on a co-occurrence file.",
		Long: `Train word vectors on a co-occurrence file of "token token count" lines,
or "row col count" lines with --numeric, and write one vector per token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			output, _ := cmd.Flags().GetString("output")
			validationPath, _ := cmd.Flags().GetString("validation")
			numeric, _ := cmd.Flags().GetBool("numeric")

			// load data
			var (
				dict              *dataset.FreqDict
				train, validation *dataset.COO
				err               error
			)
			read := readTriples
			if !numeric {
				dict = dataset.NewFreqDict()
				read = func(path string) (*dataset.COO, error) {
					return readCooccurrence(path, dict)
				}
			}
			if train, err = read(input); err != nil {
				return errors.Trace(err)
			}
			if validationPath != "" {
				if validation, err = read(validationPath); err != nil {
					return errors.Trace(err)
				}
			}
			if err = reshape(true, train, validation); err != nil {
				return errors.Trace(err)
			}
			if dict != nil {
				log.Logger().Info("load vocabulary", vocabularyFields(dict)...)
			}

			// fit model
			m := glove.NewGloVe(a.config.GloVe.Params().Overwrite(parseParamFlags(cmd.Flags(), gloveParamFlags)))
			fitConfig := a.config.Fit.ToFitConfig()
			if validation != nil {
				fitConfig.SetValidation(validation)
			}
			var vectors *model.Matrix
			_, err = trace(cmd.Context(), cmd.ErrOrStderr(), "glove", func(ctx context.Context, observer model.Observer) error {
				var fitErr error
				vectors, fitErr = m.Fit(ctx, train, fitConfig.SetObserver(a.observer("glove", observer)))
				return fitErr
			})
			if err != nil {
				return errors.Trace(err)
			}
			if err = renderRecords(cmd.OutOrStdout(), m.History); err != nil {
				return errors.Trace(err)
			}

			// save vectors
			if err = writeVectors(output, vectors, dict); err != nil {
				return errors.Trace(err)
			}
			log.Logger().Info("save vectors", zap.String("path", output), zap.Int("n_factors", vectors.Cols))
			return nil
		},
	}
	command.Flags().StringP("input", "i", "", "co-occurrence file")
	command.Flags().StringP("output", "o", "", "vector file")
	command.Flags().String("validation", "", "validation co-occurrence file")
	command.Flags().Bool("numeric", false, "read \"row col count\" lines instead of tokens")
	addParamFlags(command.Flags(), gloveParamFlags)
	_ = command.MarkFlagRequired("input")
	_ = command.MarkFlagRequired("output")
	return command
}

// vocabularyFields describes the vocabulary size and its most frequent token.
func vocabularyFields(dict *dataset.FreqDict) []zap.Field {
	fields := []zap.Field{zap.Int("vocabulary_size", dict.Count())}
	if dict.Count() > 0 {
		top := lo.MaxBy(lo.Range(dict.Count()), func(a, b int) bool {
			return dict.Freq(a) > dict.Freq(b)
		})
		fields = append(fields,
			zap.String("most_frequent", dict.Token(top)),
			zap.Int("most_frequent_count", dict.Freq(top)))
	}
	return fields
}
