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

package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// ReadTriples reads "row col [value]" lines separated by whitespace. A missing value
// counts as 1. Empty lines and lines starting with '#' are skipped. The shape is the
// smallest one containing every entry.
func ReadTriples(r io.Reader) (*COO, error) {
	coo := NewCOO(0, 0)
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		fields, ok := splitLine(scanner.Text())
		if !ok {
			continue
		}
		if len(fields) < 2 || len(fields) > 3 {
			return nil, errors.NotValidf("line %d: expected 2 or 3 fields, got %d", lineNumber, len(fields))
		}
		row, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Annotatef(err, "line %d", lineNumber)
		}
		col, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, errors.Annotatef(err, "line %d", lineNumber)
		}
		if row < 0 || col < 0 {
			return nil, errors.NotValidf("line %d: negative index", lineNumber)
		}
		if row > math.MaxInt32 || col > math.MaxInt32 {
			return nil, errors.NotValidf("line %d: index out of int32 range", lineNumber)
		}
		value, err := parseValue(fields, 2)
		if err != nil {
			return nil, errors.Annotatef(err, "line %d", lineNumber)
		}
		coo.Add(row, col, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return coo, nil
}

// ReadCooccurrence reads "token token [count]" lines. Tokens are mapped through dict,
// which may already hold a vocabulary. The result is square over the vocabulary.
func ReadCooccurrence(r io.Reader, dict *FreqDict) (*COO, error) {
	coo := NewCOO(0, 0)
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		fields, ok := splitLine(scanner.Text())
		if !ok {
			continue
		}
		if len(fields) < 2 || len(fields) > 3 {
			return nil, errors.NotValidf("line %d: expected 2 or 3 fields, got %d", lineNumber, len(fields))
		}
		value, err := parseValue(fields, 2)
		if err != nil {
			return nil, errors.Annotatef(err, "line %d", lineNumber)
		}
		coo.Add(dict.Id(fields[0]), dict.Id(fields[1]), value)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	if err := coo.Reshape(dict.Count(), dict.Count()); err != nil {
		return nil, errors.Trace(err)
	}
	return coo, nil
}

// WriteVectors writes the header "<rows> <cols>" followed by one "<token> <f> ... <f>"
// line per row. Rows are named by dict, or by their index if dict is nil.
func WriteVectors(w io.Writer, vectors Vectors, dict *FreqDict) error {
	rows, cols := vectors.Shape()
	writer := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(writer, "%d %d\n", rows, cols); err != nil {
		return errors.Trace(err)
	}
	buf := make([]byte, 0, 64)
	for i := 0; i < rows; i++ {
		buf = append(buf[:0], dict.Token(i)...)
		for _, v := range vectors.Row(i) {
			buf = append(buf, ' ')
			buf = strconv.AppendFloat(buf, float64(v), 'g', -1, 32)
		}
		buf = append(buf, '\n')
		if _, err := writer.Write(buf); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(writer.Flush())
}

// ReadVectors parses the format written by WriteVectors.
func ReadVectors(r io.Reader) (*Dense, *FreqDict, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, nil, errors.Trace(err)
		}
		return nil, nil, errors.NotValidf("missing header")
	}
	header := strings.Fields(scanner.Text())
	if len(header) != 2 {
		return nil, nil, errors.NotValidf("header %q", scanner.Text())
	}
	rows, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, nil, errors.Annotate(err, "header")
	}
	cols, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, nil, errors.Annotate(err, "header")
	}
	if rows < 0 || cols < 0 {
		return nil, nil, errors.NotValidf("shape (%d, %d)", rows, cols)
	}
	dense := NewDense(rows, cols)
	dict := NewFreqDict()
	for i := 0; i < rows; i++ {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, nil, errors.Trace(err)
			}
			return nil, nil, errors.NotValidf("expected %d rows, got %d", rows, i)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) != cols+1 {
			return nil, nil, errors.NotValidf("line %d: expected %d fields, got %d", i+2, cols+1, len(fields))
		}
		if id := dict.NotCount(fields[0]); id != i {
			return nil, nil, errors.NotValidf("line %d: duplicate token %q", i+2, fields[0])
		}
		row := dense.Row(i)
		for j := range row {
			v, err := strconv.ParseFloat(fields[j+1], 32)
			if err != nil {
				return nil, nil, errors.Annotatef(err, "line %d", i+2)
			}
			row[j] = float32(v)
		}
	}
	return dense, dict, nil
}

func splitLine(line string) ([]string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}
	return strings.Fields(line), true
}

func parseValue(fields []string, i int) (float32, error) {
	if len(fields) <= i {
		return 1, nil
	}
	v, err := strconv.ParseFloat(fields[i], 32)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return float32(v), nil
}
