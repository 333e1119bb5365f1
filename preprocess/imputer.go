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
	"math"
	"sort"

	"github.com/gorse-io/scoreprep/dataset"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// MedianImputer replaces missing (NaN) cells with the per-column median of the
// observed values at fit time.
type MedianImputer struct {
	Columns    []string
	Statistics []float64
}

func NewMedianImputer(columns []string) *MedianImputer {
	return &MedianImputer{Columns: columns}
}

func (imp *MedianImputer) IsFitted() bool {
	return imp.Statistics != nil
}

func (imp *MedianImputer) Fit(x *mat.Dense) error {
	rows, cols := x.Dims()
	if cols != len(imp.Columns) {
		return errors.NotValidf("%d columns for %d names", cols, len(imp.Columns))
	}
	statistics := make([]float64, cols)
	observed := make([]float64, 0, rows)
	for j := 0; j < cols; j++ {
		observed = observed[:0]
		for i := 0; i < rows; i++ {
			if v := x.At(i, j); !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			return errors.NotValidf("column %s without observed value", imp.Columns[j])
		}
		statistics[j] = median(observed)
	}
	imp.Statistics = statistics
	return nil
}

func (imp *MedianImputer) Transform(x *mat.Dense) (*mat.Dense, error) {
	if !imp.IsFitted() {
		return nil, errors.New("median imputer is not fitted")
	}
	rows, cols := x.Dims()
	if cols != len(imp.Statistics) {
		return nil, errors.NotValidf("%d columns for imputer of %d", cols, len(imp.Statistics))
	}
	out := mat.DenseCopyOf(x)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.IsNaN(out.At(i, j)) {
				out.Set(i, j, imp.Statistics[j])
			}
		}
	}
	return out, nil
}

// median sorts values in place. Even counts average the two middle values.
func median(values []float64) float64 {
	sort.Float64s(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// MostFrequentImputer replaces missing cells of categorical columns with the
// most frequent observed value at fit time.
type MostFrequentImputer struct {
	Columns    []string
	Statistics []string
}

func NewMostFrequentImputer(columns []string) *MostFrequentImputer {
	return &MostFrequentImputer{Columns: columns}
}

func (imp *MostFrequentImputer) IsFitted() bool {
	return imp.Statistics != nil
}

// Fit learns one value per column. values and missing are column-major.
func (imp *MostFrequentImputer) Fit(values [][]string, missing [][]bool) error {
	if len(values) != len(imp.Columns) {
		return errors.NotValidf("%d columns for %d names", len(values), len(imp.Columns))
	}
	statistics := make([]string, len(values))
	for j, column := range values {
		dict := dataset.NewFreqDict()
		for i, value := range column {
			if !missing[j][i] {
				dict.Id(value)
			}
		}
		statistic, ok := dict.MostFrequent()
		if !ok {
			return errors.NotValidf("column %s without observed value", imp.Columns[j])
		}
		statistics[j] = statistic
	}
	imp.Statistics = statistics
	return nil
}

func (imp *MostFrequentImputer) Transform(values [][]string, missing [][]bool) ([][]string, error) {
	if !imp.IsFitted() {
		return nil, errors.New("most frequent imputer is not fitted")
	}
	if len(values) != len(imp.Statistics) {
		return nil, errors.NotValidf("%d columns for imputer of %d", len(values), len(imp.Statistics))
	}
	out := make([][]string, len(values))
	for j, column := range values {
		out[j] = make([]string, len(column))
		for i, value := range column {
			if missing[j][i] {
				out[j][i] = imp.Statistics[j]
			} else {
				out[j][i] = value
			}
		}
	}
	return out, nil
}
