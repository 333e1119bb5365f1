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

package preprocess

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// HandleUnknownError fails the transform on a category unseen during fit.
	HandleUnknownError = "error"
	// HandleUnknownIgnore encodes an unseen category as an all-zero block.
	HandleUnknownIgnore = "ignore"
)

// OneHotEncoder expands each categorical column into one indicator column per
// category observed at fit time. Categories of a column are sorted.
type OneHotEncoder struct {
	Columns       []string
	HandleUnknown string
	Categories    [][]string
}

func NewOneHotEncoder(columns []string, handleUnknown string) (*OneHotEncoder, error) {
	if handleUnknown != HandleUnknownError && handleUnknown != HandleUnknownIgnore {
		return nil, errors.NotValidf("handle_unknown %q", handleUnknown)
	}
	return &OneHotEncoder{Columns: columns, HandleUnknown: handleUnknown}, nil
}

func (enc *OneHotEncoder) IsFitted() bool {
	return enc.Categories != nil
}

// Fit learns the vocabulary of each column. values is column-major.
func (enc *OneHotEncoder) Fit(values [][]string) error {
	if len(values) != len(enc.Columns) {
		return errors.NotValidf("%d columns for %d names", len(values), len(enc.Columns))
	}
	categories := make([][]string, len(values))
	for j, column := range values {
		set := mapset.NewSet[string](column...)
		categories[j] = set.ToSlice()
		sort.Strings(categories[j])
	}
	enc.Categories = categories
	return nil
}

// Width returns the number of indicator columns.
func (enc *OneHotEncoder) Width() int {
	width := 0
	for _, categories := range enc.Categories {
		width += len(categories)
	}
	return width
}

func (enc *OneHotEncoder) Transform(values [][]string) (*mat.Dense, error) {
	if !enc.IsFitted() {
		return nil, errors.New("one-hot encoder is not fitted")
	}
	if len(values) != len(enc.Categories) {
		return nil, errors.NotValidf("%d columns for encoder of %d", len(values), len(enc.Categories))
	}
	rows := len(values[0])
	out := mat.NewDense(rows, enc.Width(), nil)
	offset := 0
	for j, column := range values {
		index := make(map[string]int, len(enc.Categories[j]))
		for k, category := range enc.Categories[j] {
			index[category] = k
		}
		for i, value := range column {
			k, ok := index[value]
			if !ok {
				if enc.HandleUnknown == HandleUnknownError {
					return nil, errors.NotValidf("unknown category %q of column %s", value, enc.Columns[j])
				}
				continue
			}
			out.Set(i, offset+k, 1)
		}
		offset += len(enc.Categories[j])
	}
	return out, nil
}

// FeatureNamesOut names indicator columns as <column>_<category>.
func (enc *OneHotEncoder) FeatureNamesOut() []string {
	names := make([]string, 0, enc.Width())
	for j, categories := range enc.Categories {
		for _, category := range categories {
			names = append(names, fmt.Sprintf("%s_%s", enc.Columns[j], category))
		}
	}
	return names
}
