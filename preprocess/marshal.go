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
	"io"
	"reflect"

	"github.com/gorse-io/scoreprep/common/encoding"
	"github.com/juju/errors"
)

const (
	headerColumnTransformer = "column_transformer"
	headerNumerical         = "numerical"
	headerCategorical       = "categorical"
)

// Marshal writes the fitted state to byte stream.
func (p *NumericalPipeline) Marshal(w io.Writer) error {
	if err := encoding.WriteGob(w, p.columns); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, p.imputer); err != nil {
		return errors.Trace(err)
	}
	return encoding.WriteGob(w, p.scaler)
}

// Unmarshal reads the fitted state from byte stream.
func (p *NumericalPipeline) Unmarshal(r io.Reader) error {
	p.imputer = new(MedianImputer)
	p.scaler = new(StandardScaler)
	if err := encoding.ReadGob(r, &p.columns); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.ReadGob(r, p.imputer); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.ReadGob(r, p.scaler); err != nil {
		return errors.Trace(err)
	}
	return p.validate()
}

// validate checks that decoded statistics agree with the columns.
func (p *NumericalPipeline) validate() error {
	n := len(p.columns)
	if len(p.imputer.Statistics) != n {
		return errors.NotValidf("%d medians for %d columns", len(p.imputer.Statistics), n)
	}
	return p.scaler.validate(n)
}

func (s *StandardScaler) validate(width int) error {
	if len(s.Scale) != width || len(s.Mean) != width {
		return errors.NotValidf("scaler of %d scales and %d means for %d columns", len(s.Scale), len(s.Mean), width)
	}
	return nil
}

func (p *CategoricalPipeline) Marshal(w io.Writer) error {
	if err := encoding.WriteGob(w, p.columns); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, p.imputer); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, p.encoder); err != nil {
		return errors.Trace(err)
	}
	return encoding.WriteGob(w, p.scaler)
}

func (p *CategoricalPipeline) Unmarshal(r io.Reader) error {
	p.imputer = new(MostFrequentImputer)
	p.encoder = new(OneHotEncoder)
	p.scaler = new(StandardScaler)
	if err := encoding.ReadGob(r, &p.columns); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.ReadGob(r, p.imputer); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.ReadGob(r, p.encoder); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.ReadGob(r, p.scaler); err != nil {
		return errors.Trace(err)
	}
	return p.validate()
}

func (p *CategoricalPipeline) validate() error {
	n := len(p.columns)
	switch p.encoder.HandleUnknown {
	case HandleUnknownError, HandleUnknownIgnore:
	default:
		return errors.NotValidf("handle_unknown %q", p.encoder.HandleUnknown)
	}
	if len(p.imputer.Statistics) != n {
		return errors.NotValidf("%d modes for %d columns", len(p.imputer.Statistics), n)
	}
	if len(p.encoder.Categories) != n {
		return errors.NotValidf("%d category lists for %d columns", len(p.encoder.Categories), n)
	}
	return p.scaler.validate(p.encoder.Width())
}

func pipelineHeader(p Pipeline) (string, error) {
	switch p.(type) {
	case *NumericalPipeline:
		return headerNumerical, nil
	case *CategoricalPipeline:
		return headerCategorical, nil
	default:
		return "", fmt.Errorf("unknown pipeline: %v", reflect.TypeOf(p))
	}
}

// MarshalTransformer writes a fitted transformer: a header, the branch names and
// every branch tagged with its pipeline kind.
func MarshalTransformer(w io.Writer, t *ColumnTransformer) error {
	if !t.IsFitted() {
		return errors.New("column transformer is not fitted")
	}
	if err := encoding.WriteString(w, headerColumnTransformer); err != nil {
		return errors.Trace(err)
	}
	names := make([]string, len(t.branches))
	for i, branch := range t.branches {
		names[i] = branch.Name
	}
	if err := encoding.WriteGob(w, names); err != nil {
		return errors.Trace(err)
	}
	for _, branch := range t.branches {
		header, err := pipelineHeader(branch.Pipeline)
		if err != nil {
			return errors.Trace(err)
		}
		if err = encoding.WriteString(w, header); err != nil {
			return errors.Trace(err)
		}
		if err = branch.Pipeline.Marshal(w); err != nil {
			return errors.Annotatef(err, "marshal %s", branch.Name)
		}
	}
	return nil
}

// UnmarshalTransformer reads a transformer written by MarshalTransformer.
func UnmarshalTransformer(r io.Reader) (*ColumnTransformer, error) {
	header, err := encoding.ReadString(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if header != headerColumnTransformer {
		return nil, fmt.Errorf("unknown transformer: %v", header)
	}
	var names []string
	if err = encoding.ReadGob(r, &names); err != nil {
		return nil, errors.Trace(err)
	}
	branches := make([]Branch, len(names))
	for i, name := range names {
		header, err = encoding.ReadString(r)
		if err != nil {
			return nil, errors.Trace(err)
		}
		var pipeline Pipeline
		switch header {
		case headerNumerical:
			pipeline = new(NumericalPipeline)
		case headerCategorical:
			pipeline = new(CategoricalPipeline)
		default:
			return nil, fmt.Errorf("unknown pipeline: %v", header)
		}
		if err = pipeline.Unmarshal(r); err != nil {
			return nil, errors.Annotatef(err, "unmarshal %s", name)
		}
		branches[i] = Branch{Name: name, Pipeline: pipeline}
	}
	t, err := NewColumnTransformer(branches...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !t.IsFitted() {
		return nil, errors.NotValidf("unfitted transformer in stream")
	}
	return t, nil
}
