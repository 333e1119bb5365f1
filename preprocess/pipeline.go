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
	"io"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
)

// Table is the tabular input of a transformer.
type Table interface {
	Count() int
	Strings(name string) ([]string, []bool, error)
	Floats(name string) ([]float64, error)
}

// Pipeline transforms a group of columns into a numeric block.
type Pipeline interface {
	Columns() []string
	IsFitted() bool
	Fit(table Table) error
	Transform(table Table) (*mat.Dense, error)
	FeatureNamesOut() []string
	Marshal(w io.Writer) error
	Unmarshal(r io.Reader) error
}

// NumericalPipeline fills missing values with the training median then standardizes.
type NumericalPipeline struct {
	columns []string
	imputer *MedianImputer
	scaler  *StandardScaler
}

func NewNumericalPipeline(columns []string) *NumericalPipeline {
	return &NumericalPipeline{
		columns: columns,
		imputer: NewMedianImputer(columns),
		scaler:  NewStandardScaler(true),
	}
}

func (p *NumericalPipeline) Columns() []string {
	return p.columns
}

func (p *NumericalPipeline) IsFitted() bool {
	return p.imputer.IsFitted() && p.scaler.IsFitted()
}

// Imputer exposes the learned medians.
func (p *NumericalPipeline) Imputer() *MedianImputer {
	return p.imputer
}

// Scaler exposes the learned means and scales.
func (p *NumericalPipeline) Scaler() *StandardScaler {
	return p.scaler
}

func (p *NumericalPipeline) load(table Table) (*mat.Dense, error) {
	x := mat.NewDense(table.Count(), len(p.columns), nil)
	for j, column := range p.columns {
		values, err := table.Floats(column)
		if err != nil {
			return nil, errors.Trace(err)
		}
		x.SetCol(j, values)
	}
	return x, nil
}

func (p *NumericalPipeline) Fit(table Table) error {
	x, err := p.load(table)
	if err != nil {
		return errors.Trace(err)
	}
	if err = p.imputer.Fit(x); err != nil {
		return errors.Annotate(err, "fit imputer")
	}
	if x, err = p.imputer.Transform(x); err != nil {
		return errors.Trace(err)
	}
	if err = p.scaler.Fit(x); err != nil {
		return errors.Annotate(err, "fit scaler")
	}
	return nil
}

func (p *NumericalPipeline) Transform(table Table) (*mat.Dense, error) {
	x, err := p.load(table)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if x, err = p.imputer.Transform(x); err != nil {
		return nil, errors.Trace(err)
	}
	return p.scaler.Transform(x)
}

func (p *NumericalPipeline) FeatureNamesOut() []string {
	return p.columns
}

// CategoricalPipeline fills missing values with the most frequent training value,
// expands categories into indicator columns, then scales them without centering.
type CategoricalPipeline struct {
	columns []string
	imputer *MostFrequentImputer
	encoder *OneHotEncoder
	scaler  *StandardScaler
}

func NewCategoricalPipeline(columns []string, handleUnknown string) (*CategoricalPipeline, error) {
	encoder, err := NewOneHotEncoder(columns, handleUnknown)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &CategoricalPipeline{
		columns: columns,
		imputer: NewMostFrequentImputer(columns),
		encoder: encoder,
		scaler:  NewStandardScaler(false),
	}, nil
}

func (p *CategoricalPipeline) Columns() []string {
	return p.columns
}

func (p *CategoricalPipeline) IsFitted() bool {
	return p.imputer.IsFitted() && p.encoder.IsFitted() && p.scaler.IsFitted()
}

func (p *CategoricalPipeline) Imputer() *MostFrequentImputer {
	return p.imputer
}

func (p *CategoricalPipeline) Encoder() *OneHotEncoder {
	return p.encoder
}

func (p *CategoricalPipeline) Scaler() *StandardScaler {
	return p.scaler
}

func (p *CategoricalPipeline) load(table Table) ([][]string, [][]bool, error) {
	values := make([][]string, len(p.columns))
	missing := make([][]bool, len(p.columns))
	for j, column := range p.columns {
		var err error
		values[j], missing[j], err = table.Strings(column)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
	}
	return values, missing, nil
}

func (p *CategoricalPipeline) Fit(table Table) error {
	values, missing, err := p.load(table)
	if err != nil {
		return errors.Trace(err)
	}
	if err = p.imputer.Fit(values, missing); err != nil {
		return errors.Annotate(err, "fit imputer")
	}
	if values, err = p.imputer.Transform(values, missing); err != nil {
		return errors.Trace(err)
	}
	if err = p.encoder.Fit(values); err != nil {
		return errors.Annotate(err, "fit encoder")
	}
	x, err := p.encoder.Transform(values)
	if err != nil {
		return errors.Trace(err)
	}
	if err = p.scaler.Fit(x); err != nil {
		return errors.Annotate(err, "fit scaler")
	}
	return nil
}

func (p *CategoricalPipeline) Transform(table Table) (*mat.Dense, error) {
	values, missing, err := p.load(table)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if values, err = p.imputer.Transform(values, missing); err != nil {
		return nil, errors.Trace(err)
	}
	x, err := p.encoder.Transform(values)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return p.scaler.Transform(x)
}

func (p *CategoricalPipeline) FeatureNamesOut() []string {
	return p.encoder.FeatureNamesOut()
}

// Branch is a named pipeline of a ColumnTransformer.
type Branch struct {
	Name     string
	Pipeline Pipeline
}

// ColumnTransformer applies each branch to its columns and concatenates the
// outputs horizontally in branch order.
type ColumnTransformer struct {
	branches []Branch
}

func NewColumnTransformer(branches ...Branch) (*ColumnTransformer, error) {
	if len(branches) == 0 {
		return nil, errors.NotValidf("column transformer without branch")
	}
	seen := mapset.NewSet[string]()
	for _, branch := range branches {
		if len(branch.Pipeline.Columns()) == 0 {
			return nil, errors.NotValidf("branch %s without column", branch.Name)
		}
		for _, column := range branch.Pipeline.Columns() {
			if !seen.Add(column) {
				return nil, errors.NotValidf("column %s in more than one branch", column)
			}
		}
	}
	return &ColumnTransformer{branches: branches}, nil
}

// NewTransformer builds the unfit preprocessor: a numerical branch followed by
// a categorical branch.
func NewTransformer(numerical, categorical []string, handleUnknown string) (*ColumnTransformer, error) {
	categoricalPipeline, err := NewCategoricalPipeline(categorical, handleUnknown)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewColumnTransformer(
		Branch{Name: "numerical", Pipeline: NewNumericalPipeline(numerical)},
		Branch{Name: "categorical", Pipeline: categoricalPipeline},
	)
}

func (t *ColumnTransformer) Branches() []Branch {
	return t.branches
}

func (t *ColumnTransformer) IsFitted() bool {
	return lo.EveryBy(t.branches, func(branch Branch) bool {
		return branch.Pipeline.IsFitted()
	})
}

// Fit learns the parameters of every branch from the table.
func (t *ColumnTransformer) Fit(table Table) error {
	if table.Count() == 0 {
		return errors.NotValidf("empty table")
	}
	for _, branch := range t.branches {
		if err := branch.Pipeline.Fit(table); err != nil {
			return errors.Annotatef(err, "fit %s", branch.Name)
		}
	}
	return nil
}

// Transform applies the learned parameters. It never updates them.
func (t *ColumnTransformer) Transform(table Table) (*mat.Dense, error) {
	if !t.IsFitted() {
		return nil, errors.New("column transformer is not fitted")
	}
	if table.Count() == 0 {
		return nil, errors.NotValidf("empty table")
	}
	var out *mat.Dense
	for _, branch := range t.branches {
		block, err := branch.Pipeline.Transform(table)
		if err != nil {
			return nil, errors.Annotatef(err, "transform %s", branch.Name)
		}
		if out == nil {
			out = block
			continue
		}
		var augmented mat.Dense
		augmented.Augment(out, block)
		out = &augmented
	}
	return out, nil
}

func (t *ColumnTransformer) FitTransform(table Table) (*mat.Dense, error) {
	if err := t.Fit(table); err != nil {
		return nil, errors.Trace(err)
	}
	return t.Transform(table)
}

// FeatureNamesOut names the output columns in order.
func (t *ColumnTransformer) FeatureNamesOut() []string {
	return lo.FlatMap(t.branches, func(branch Branch, _ int) []string {
		return branch.Pipeline.FeatureNamesOut()
	})
}
