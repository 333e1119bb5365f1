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
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// MissingValues are the cell values treated as missing.
var MissingValues = []string{"", "NA", "NaN", "<nil>"}

// Table is a table loaded from a CSV file. Every column is kept as text and
// converted on access, so a table is never modified after loading.
type Table struct {
	frame dataframe.DataFrame
}

// LoadCSV loads a table from a CSV file with a header row.
func LoadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	table, err := ReadCSV(file)
	if err != nil {
		return nil, errors.Annotatef(err, "load %s", path)
	}
	return table, nil
}

// ReadCSV reads a table from CSV text with a header row.
func ReadCSV(r io.Reader) (*Table, error) {
	frame := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(MissingValues))
	if frame.Err != nil {
		return nil, errors.Annotate(frame.Err, "malformed csv")
	}
	return &Table{frame: frame}, nil
}

// Count returns the number of rows.
func (t *Table) Count() int {
	return t.frame.Nrow()
}

// Columns returns column names in file order.
func (t *Table) Columns() []string {
	return t.frame.Names()
}

// Require checks that all columns exist.
func (t *Table) Require(columns ...string) error {
	names := t.frame.Names()
	missing := lo.Filter(columns, func(column string, _ int) bool {
		return !lo.Contains(names, column)
	})
	if len(missing) > 0 {
		return errors.NotFoundf("columns [%s]", strings.Join(missing, ", "))
	}
	return nil
}

func (t *Table) column(name string) (series.Series, error) {
	if err := t.Require(name); err != nil {
		return series.Series{}, err
	}
	s := t.frame.Col(name)
	if s.Err != nil {
		return series.Series{}, errors.Trace(s.Err)
	}
	return s, nil
}

// Strings returns the values of a column and a mask of missing cells.
func (t *Table) Strings(name string) ([]string, []bool, error) {
	s, err := t.column(name)
	if err != nil {
		return nil, nil, err
	}
	missing := s.IsNaN()
	values := s.Records()
	for i := range values {
		if missing[i] {
			values[i] = ""
		}
	}
	return values, missing, nil
}

// Floats returns the values of a numeric column. Missing cells are NaN. A cell
// that is neither missing nor a number fails the whole column.
func (t *Table) Floats(name string) ([]float64, error) {
	records, missing, err := t.Strings(name)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(records))
	for i, record := range records {
		if missing[i] {
			values[i] = math.NaN()
			continue
		}
		values[i], err = strconv.ParseFloat(strings.TrimSpace(record), 64)
		if err != nil {
			return nil, errors.NotValidf("value %q of column %s at row %d", record, name, i+1)
		}
	}
	return values, nil
}

// Split separates the target column from the features.
func (t *Table) Split(target string) (*Table, []float64, error) {
	y, err := t.Floats(target)
	if err != nil {
		return nil, nil, errors.Annotate(err, "split target")
	}
	features := t.frame.Drop(target)
	if features.Err != nil {
		return nil, nil, errors.Trace(features.Err)
	}
	return &Table{frame: features}, y, nil
}
