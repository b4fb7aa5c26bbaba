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
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/gorse-io/mfkit/dataset"
	"github.com/gorse-io/mfkit/model"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func readTriples(path string) (*dataset.COO, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	m, err := dataset.ReadTriples(file)
	return m, errors.Annotatef(err, "read %s", path)
}

func readCooccurrence(path string, dict *dataset.FreqDict) (*dataset.COO, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	m, err := dataset.ReadCooccurrence(file, dict)
	return m, errors.Annotatef(err, "read %s", path)
}

func readVectors(path string) (*dataset.Dense, *dataset.FreqDict, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	defer file.Close()
	m, dict, err := dataset.ReadVectors(file)
	return m, dict, errors.Annotatef(err, "read %s", path)
}

func writeVectors(path string, vectors dataset.Vectors, dict *dataset.FreqDict) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	if err = dataset.WriteVectors(file, vectors, dict); err != nil {
		_ = file.Close()
		return errors.Annotatef(err, "write %s", path)
	}
	return errors.Trace(file.Close())
}

// reshape grows every matrix to the largest number of rows and columns among them.
func reshape(square bool, matrices ...*dataset.COO) error {
	matrices = lo.Compact(matrices)
	var rows, cols int
	for _, m := range matrices {
		r, c := m.Shape()
		rows, cols = max(rows, r), max(cols, c)
	}
	if square {
		rows = max(rows, cols)
		cols = rows
	}
	for _, m := range matrices {
		if err := m.Reshape(rows, cols); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// renderRecords prints one row per epoch.
func renderRecords(w io.Writer, records []model.Record) error {
	hasValidation := lo.SomeBy(records, func(r model.Record) bool {
		return r.HasValidation
	})
	metrics := lo.Uniq(lo.FlatMap(records, func(r model.Record, _ int) []string {
		return r.MetricNames()
	}))
	sort.Strings(metrics)

	header := []string{"epoch", "loss"}
	if hasValidation {
		header = append(header, "validation loss")
	}
	header = append(header, metrics...)
	header = append(header, "fit time", "eval time")
	rows := lo.Map(records, func(r model.Record, _ int) []string {
		row := []string{fmt.Sprint(r.Epoch), fmt.Sprint(r.Loss)}
		if hasValidation {
			row = append(row, fmt.Sprint(r.ValidationLoss))
		}
		for _, name := range metrics {
			row = append(row, fmt.Sprint(r.Metrics[name]))
		}
		return append(row, r.FitTime.String(), r.EvalTime.String())
	})

	table := tablewriter.NewWriter(w)
	table.Header(lo.ToAnySlice(header)...)
	if err := table.Bulk(rows); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(table.Render())
}

// renderScores prints metrics in lexical order.
func renderScores(w io.Writer, scores map[string]float32) error {
	names := lo.Keys(scores)
	sort.Strings(names)
	table := tablewriter.NewWriter(w)
	table.Header("metric", "value")
	if err := table.Bulk(lo.Map(names, func(name string, _ int) []string {
		return []string{name, fmt.Sprint(scores[name])}
	})); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(table.Render())
}
