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

// Package dataset holds the sparse count matrices models are trained on, the vocabulary
// that names their rows and the text formats used to read and write them.
package dataset

import (
	"cmp"
	"slices"

	"github.com/chewxy/math32"
	"github.com/juju/errors"
)

// Matrix is a two-dimensional count or interaction matrix.
type Matrix interface {
	Shape() (rows, cols int)
	NNZ() int
}

// Vectors is a dense row-major view, one vector per row.
type Vectors interface {
	Shape() (rows, cols int)
	Row(i int) []float32
}

// Triple is a stored entry of a sparse matrix.
type Triple struct {
	Row   int32
	Col   int32
	Value float32
}

// AsSparse returns the compressed sparse row form of m. Only sparse inputs are
// accepted: dense matrices must be converted explicitly by the caller.
func AsSparse(m Matrix) (*CSR, error) {
	var csr *CSR
	switch typed := m.(type) {
	case nil:
		return nil, errors.NotValidf("nil matrix")
	case *CSR:
		if typed == nil {
			return nil, errors.NotValidf("nil matrix")
		}
		csr = typed
	case *COO:
		if typed == nil {
			return nil, errors.NotValidf("nil matrix")
		}
		csr = typed.ToCSR()
	case *Dense:
		return nil, errors.NotSupportedf("dense matrix")
	default:
		return nil, errors.NotSupportedf("matrix type %T", m)
	}
	if err := csr.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return csr, nil
}

// CSR is a compressed sparse row matrix. Column indices are strictly increasing
// within each row and explicit zeros are never stored.
type CSR struct {
	rows    int
	cols    int
	indptr  []int
	indices []int32
	values  []float32
}

// NewCSR creates a CSR matrix from its raw buffers. Explicit zeros are dropped.
func NewCSR(rows, cols int, indptr []int, indices []int32, values []float32) (*CSR, error) {
	if rows < 0 || cols < 0 {
		return nil, errors.NotValidf("shape (%d, %d)", rows, cols)
	}
	if len(indptr) != rows+1 {
		return nil, errors.NotValidf("indptr of length %d for %d rows", len(indptr), rows)
	}
	if len(indices) != len(values) {
		return nil, errors.NotValidf("%d indices with %d values", len(indices), len(values))
	}
	if indptr[0] != 0 || indptr[rows] != len(indices) {
		return nil, errors.NotValidf("indptr bounds [%d, %d] for %d entries", indptr[0], indptr[rows], len(indices))
	}
	m := &CSR{
		rows:    rows,
		cols:    cols,
		indptr:  make([]int, rows+1),
		indices: make([]int32, 0, len(indices)),
		values:  make([]float32, 0, len(values)),
	}
	for i := 0; i < rows; i++ {
		begin, end := indptr[i], indptr[i+1]
		if begin > end {
			return nil, errors.NotValidf("indptr decreases at row %d", i)
		}
		for k := begin; k < end; k++ {
			j := indices[k]
			if j < 0 || int(j) >= cols {
				return nil, errors.NotValidf("column %d of row %d out of range", j, i)
			}
			if k > begin && indices[k-1] >= j {
				return nil, errors.NotValidf("unsorted or duplicate columns in row %d", i)
			}
			if values[k] != 0 {
				m.indices = append(m.indices, j)
				m.values = append(m.values, values[k])
			}
		}
		m.indptr[i+1] = len(m.indices)
	}
	return m, nil
}

func (m *CSR) Shape() (int, int) {
	return m.rows, m.cols
}

func (m *CSR) NNZ() int {
	return len(m.indices)
}

// RowIndices returns the sorted column indices stored in row i.
func (m *CSR) RowIndices(i int) []int32 {
	return m.indices[m.indptr[i]:m.indptr[i+1]]
}

// RowValues returns the values stored in row i, aligned with RowIndices.
func (m *CSR) RowValues(i int) []float32 {
	return m.values[m.indptr[i]:m.indptr[i+1]]
}

// RowNNZ returns the number of entries stored in row i.
func (m *CSR) RowNNZ(i int) int {
	return m.indptr[i+1] - m.indptr[i]
}

// Contains reports whether (i, j) is stored.
func (m *CSR) Contains(i int, j int32) bool {
	_, found := slices.BinarySearch(m.RowIndices(i), j)
	return found
}

// At returns the value at (i, j), zero if not stored.
func (m *CSR) At(i int, j int32) float32 {
	row := m.RowIndices(i)
	if k, found := slices.BinarySearch(row, j); found {
		return m.RowValues(i)[k]
	}
	return 0
}

// Triples returns the stored entries in row-major order.
func (m *CSR) Triples() []Triple {
	triples := make([]Triple, 0, len(m.indices))
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			triples = append(triples, Triple{Row: int32(i), Col: m.indices[k], Value: m.values[k]})
		}
	}
	return triples
}

// Validate checks that every stored value is finite and non-negative.
func (m *CSR) Validate() error {
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			v := m.values[k]
			if math32.IsNaN(v) || math32.IsInf(v, 0) {
				return errors.NotValidf("non-finite value at (%d, %d)", i, m.indices[k])
			}
			if v < 0 {
				return errors.NotValidf("negative value %v at (%d, %d)", v, i, m.indices[k])
			}
		}
	}
	return nil
}

// COO is a coordinate list builder. Duplicate entries are summed by ToCSR.
type COO struct {
	rows    int
	cols    int
	triples []Triple
}

func NewCOO(rows, cols int) *COO {
	return &COO{rows: rows, cols: cols}
}

// Add appends an entry, growing the shape to contain it. Indices must fit in int32.
func (m *COO) Add(row, col int, value float32) {
	m.rows = max(m.rows, row+1)
	m.cols = max(m.cols, col+1)
	m.triples = append(m.triples, Triple{Row: int32(row), Col: int32(col), Value: value})
}

func (m *COO) Shape() (int, int) {
	return m.rows, m.cols
}

// NNZ returns the number of appended entries, duplicates included.
func (m *COO) NNZ() int {
	return len(m.triples)
}

// Reshape changes the shape. It cannot drop stored entries.
func (m *COO) Reshape(rows, cols int) error {
	for _, t := range m.triples {
		if int(t.Row) >= rows || int(t.Col) >= cols {
			return errors.NotValidf("entry (%d, %d) outside shape (%d, %d)", t.Row, t.Col, rows, cols)
		}
	}
	m.rows, m.cols = rows, cols
	return nil
}

// ToCSR sorts the entries and merges duplicates.
func (m *COO) ToCSR() *CSR {
	triples := slices.Clone(m.triples)
	slices.SortStableFunc(triples, func(a, b Triple) int {
		if a.Row != b.Row {
			return cmp.Compare(a.Row, b.Row)
		}
		return cmp.Compare(a.Col, b.Col)
	})
	csr := &CSR{
		rows:    m.rows,
		cols:    m.cols,
		indptr:  make([]int, m.rows+1),
		indices: make([]int32, 0, len(triples)),
		values:  make([]float32, 0, len(triples)),
	}
	for k := 0; k < len(triples); {
		t := triples[k]
		value := t.Value
		for k++; k < len(triples) && triples[k].Row == t.Row && triples[k].Col == t.Col; k++ {
			value += triples[k].Value
		}
		if value != 0 {
			csr.indices = append(csr.indices, t.Col)
			csr.values = append(csr.values, value)
			csr.indptr[t.Row+1]++
		}
	}
	for i := 0; i < m.rows; i++ {
		csr.indptr[i+1] += csr.indptr[i]
	}
	return csr
}

// Dense is a row-major dense matrix. It serves as a score or vector table and is not
// accepted as training input.
type Dense struct {
	rows int
	cols int
	data []float32
}

func NewDense(rows, cols int) *Dense {
	return &Dense{rows: rows, cols: cols, data: make([]float32, rows*cols)}
}

// NewDenseFrom wraps data without copying.
func NewDenseFrom(rows, cols int, data []float32) (*Dense, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, errors.NotValidf("%d values for shape (%d, %d)", len(data), rows, cols)
	}
	return &Dense{rows: rows, cols: cols, data: data}, nil
}

func (m *Dense) Shape() (int, int) {
	return m.rows, m.cols
}

func (m *Dense) NNZ() int {
	n := 0
	for _, v := range m.data {
		if v != 0 {
			n++
		}
	}
	return n
}

func (m *Dense) Row(i int) []float32 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

func (m *Dense) At(i, j int) float32 {
	return m.data[i*m.cols+j]
}

func (m *Dense) Set(i, j int, v float32) {
	m.data[i*m.cols+j] = v
}

func (m *Dense) Data() []float32 {
	return m.data
}

// ToCSR keeps the nonzero entries.
func (m *Dense) ToCSR() *CSR {
	csr := &CSR{rows: m.rows, cols: m.cols, indptr: make([]int, m.rows+1)}
	for i := 0; i < m.rows; i++ {
		for j, v := range m.Row(i) {
			if v != 0 {
				csr.indices = append(csr.indices, int32(j))
				csr.values = append(csr.values, v)
			}
		}
		csr.indptr[i+1] = len(csr.indices)
	}
	return csr
}
