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

package model

import (
	"github.com/gorse-io/mfkit/base"
	"github.com/gorse-io/mfkit/common/floats"
	"github.com/juju/errors"
)

// Matrix is a dense row-major parameter matrix. Row i is the contiguous slice
// Data[i*Cols:(i+1)*Cols]. Shapes are fixed once allocated.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// InitUniform allocates a matrix with every entry drawn uniformly from [-r, r).
func InitUniform(rng base.RandomGenerator, rows, cols int, r float32) *Matrix {
	m := NewMatrix(rows, cols)
	rng.FillUniform(m.Data, -r, r)
	return m
}

// InitBias allocates a zero-mean bias vector with entries drawn uniformly from [-r, r).
func InitBias(rng base.RandomGenerator, rows int, r float32) []float32 {
	return rng.UniformVector(rows, -r, r)
}

func (m *Matrix) Shape() (int, int) {
	return m.Rows, m.Cols
}

// Row returns row i. Out of range rows panic.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// IsFinite reports whether no entry is NaN or infinite.
func (m *Matrix) IsFinite() bool {
	return floats.IsFinite(m.Data)
}

func (m *Matrix) Clone() *Matrix {
	data := make([]float32, len(m.Data))
	copy(data, m.Data)
	return &Matrix{Rows: m.Rows, Cols: m.Cols, Data: data}
}

// Average returns the elementwise mean of two matrices of the same shape.
func Average(a, b *Matrix) (*Matrix, error) {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return nil, errors.NotValidf("average of (%d, %d) and (%d, %d)", a.Rows, a.Cols, b.Rows, b.Cols)
	}
	m := a.Clone()
	floats.Add(m.Data, b.Data)
	floats.MulConst(m.Data, 0.5)
	return m, nil
}
