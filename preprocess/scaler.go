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

	"github.com/juju/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes features by removing the mean and scaling to unit
// variance:
//
//	z = (x - u) / s
//
// u is the mean of the training samples (0 if WithMean is false), s is the
// population standard deviation of the training samples. Columns with zero
// variance keep s = 1.
type StandardScaler struct {
	WithMean bool
	Mean     []float64
	Var      []float64
	Scale    []float64
	NSamples int
}

func NewStandardScaler(withMean bool) *StandardScaler {
	return &StandardScaler{WithMean: withMean}
}

func (s *StandardScaler) IsFitted() bool {
	return s.Scale != nil
}

func (s *StandardScaler) Fit(x *mat.Dense) error {
	rows, cols := x.Dims()
	mean := make([]float64, cols)
	variance := make([]float64, cols)
	scale := make([]float64, cols)
	column := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(column, j, x)
		if floats.HasNaN(column) {
			return errors.NotValidf("missing value in column %d", j)
		}
		mean[j], variance[j] = stat.PopMeanVariance(column, nil)
		scale[j] = handleZeroScale(math.Sqrt(variance[j]))
	}
	s.Mean, s.Var, s.Scale, s.NSamples = mean, variance, scale, rows
	return nil
}

func (s *StandardScaler) Transform(x *mat.Dense) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.New("standard scaler is not fitted")
	}
	rows, cols := x.Dims()
	if cols != len(s.Scale) {
		return nil, errors.NotValidf("%d columns for scaler of %d", cols, len(s.Scale))
	}
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(i, j int, v float64) float64 {
		if s.WithMean {
			v -= s.Mean[j]
		}
		return v / s.Scale[j]
	}, x)
	return out, nil
}

// handleZeroScale keeps constant columns unscaled.
func handleZeroScale(scale float64) float64 {
	if scale < 10*epsilon {
		return 1
	}
	return scale
}

const epsilon = 2.220446049250313e-16
