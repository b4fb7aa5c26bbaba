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
	"bytes"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTriples(t *testing.T) {
	coo, err := ReadTriples(strings.NewReader("# user item\n0 1\n2 0 3.5\n\n0 1 2\n"))
	require.NoError(t, err)
	rows, cols := coo.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, []Triple{{0, 1, 3}, {2, 0, 3.5}}, coo.ToCSR().Triples())

	_, err = ReadTriples(strings.NewReader("0\n"))
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = ReadTriples(strings.NewReader("a 1\n"))
	assert.Error(t, err)
	_, err = ReadTriples(strings.NewReader("-1 1\n"))
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = ReadTriples(strings.NewReader("1 1 x\n"))
	assert.Error(t, err)
	_, err = ReadTriples(strings.NewReader("2147483648 0\n"))
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = ReadTriples(strings.NewReader("0 2147483648\n"))
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestReadCooccurrence(t *testing.T) {
	dict := NewFreqDict()
	coo, err := ReadCooccurrence(strings.NewReader("the cat 4\ncat the 4\nthe dog\n"), dict)
	require.NoError(t, err)
	rows, cols := coo.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, "the", dict.Token(0))
	assert.Equal(t, "cat", dict.Token(1))
	assert.Equal(t, "dog", dict.Token(2))
	assert.Equal(t, 3, dict.Freq(0))
	csr := coo.ToCSR()
	assert.Equal(t, float32(4), csr.At(0, 1))
	assert.Equal(t, float32(1), csr.At(0, 2))

	_, err = ReadCooccurrence(strings.NewReader("a b c d\n"), NewFreqDict())
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestVectors(t *testing.T) {
	vectors, err := NewDenseFrom(2, 3, []float32{0.5, -1, 2, 0.125, 3e-5, 0})
	require.NoError(t, err)
	dict := NewFreqDict()
	dict.Id("x")
	dict.Id("y")

	var buf bytes.Buffer
	require.NoError(t, WriteVectors(&buf, vectors, dict))
	assert.Equal(t, "2 3\nx 0.5 -1 2\ny 0.125 3e-05 0\n", buf.String())

	loaded, loadedDict, err := ReadVectors(&buf)
	require.NoError(t, err)
	assert.Equal(t, vectors.Data(), loaded.Data())
	assert.Equal(t, "y", loadedDict.Token(1))

	buf.Reset()
	require.NoError(t, WriteVectors(&buf, vectors, nil))
	assert.True(t, strings.HasPrefix(buf.String(), "2 3\n0 0.5"))
}

func TestReadVectors_Invalid(t *testing.T) {
	_, _, err := ReadVectors(strings.NewReader(""))
	assert.True(t, errors.Is(err, errors.NotValid))
	_, _, err = ReadVectors(strings.NewReader("1\n"))
	assert.True(t, errors.Is(err, errors.NotValid))
	_, _, err = ReadVectors(strings.NewReader("2 1\na 1\n"))
	assert.True(t, errors.Is(err, errors.NotValid))
	_, _, err = ReadVectors(strings.NewReader("1 2\na 1\n"))
	assert.True(t, errors.Is(err, errors.NotValid))
	_, _, err = ReadVectors(strings.NewReader("2 1\na 1\na 2\n"))
	assert.True(t, errors.Is(err, errors.NotValid))
	_, _, err = ReadVectors(strings.NewReader("1 1\na x\n"))
	assert.Error(t, err)
}
