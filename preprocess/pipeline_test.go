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
	"strings"
	"testing"

	"github.com/gorse-io/scoreprep/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

const csvHeader = "gender,race_ethnicity,parental_level_of_education,lunch,test_preparation_course,math_score,reading_score,writing_score\n"

const trainCSV = csvHeader +
	"female,group B,bachelor's degree,standard,none,72,72,74\n" +
	"male,group C,some college,free/reduced,completed,69,90,88\n" +
	"female,group B,master's degree,standard,none,90,95,93\n"

const testCSV = csvHeader +
	"male,group C,some college,free/reduced,completed,47,57,44\n"

var (
	numericalColumns   = []string{"writing_score", "reading_score"}
	categoricalColumns = []string{"gender", "race_ethnicity", "parental_level_of_education", "lunch", "test_preparation_course"}
)

func loadTable(t *testing.T, text string) *dataset.Table {
	table, err := dataset.ReadCSV(strings.NewReader(text))
	assert.NoError(t, err)
	features, _, err := table.Split("math_score")
	assert.NoError(t, err)
	return features
}

func newTransformer(t *testing.T, handleUnknown string) *ColumnTransformer {
	transformer, err := NewTransformer(numericalColumns, categoricalColumns, handleUnknown)
	assert.NoError(t, err)
	return transformer
}

type emptyTable struct{}

func (emptyTable) Count() int { return 0 }

func (emptyTable) Strings(string) ([]string, []bool, error) { return nil, nil, nil }

func (emptyTable) Floats(string) ([]float64, error) { return nil, nil }

func TestColumnTransformer(t *testing.T) {
	transformer := newTransformer(t, HandleUnknownError)
	assert.False(t, transformer.IsFitted())
	_, err := transformer.Transform(loadTable(t, testCSV))
	assert.Error(t, err)

	train, err := transformer.FitTransform(loadTable(t, trainCSV))
	assert.NoError(t, err)
	assert.True(t, transformer.IsFitted())
	test, err := transformer.Transform(loadTable(t, testCSV))
	assert.NoError(t, err)

	trainRows, trainCols := train.Dims()
	testRows, testCols := test.Dims()
	assert.Equal(t, 3, trainRows)
	assert.Equal(t, 1, testRows)
	assert.Equal(t, 13, trainCols)
	assert.Equal(t, trainCols, testCols)
	assert.Equal(t, []string{
		"writing_score",
		"reading_score",
		"gender_female",
		"gender_male",
		"race_ethnicity_group B",
		"race_ethnicity_group C",
		"parental_level_of_education_bachelor's degree",
		"parental_level_of_education_master's degree",
		"parental_level_of_education_some college",
		"lunch_free/reduced",
		"lunch_standard",
		"test_preparation_course_completed",
		"test_preparation_course_none",
	}, transformer.FeatureNamesOut())

	// numerical block comes first and is centered with the training mean
	numerical := transformer.Branches()[0].Pipeline.(*NumericalPipeline)
	assert.Equal(t, []float64{88, 90}, numerical.Imputer().Statistics)
	assert.Equal(t, 85.0, numerical.Scaler().Mean[0])
	assert.InDelta(t, (44-85)/numerical.Scaler().Scale[0], test.At(0, 0), 1e-12)
	// indicator columns are scaled but not centered
	categorical := transformer.Branches()[1].Pipeline.(*CategoricalPipeline)
	assert.Equal(t, 0.0, test.At(0, 2))
	assert.InDelta(t, 1/categorical.Scaler().Scale[1], test.At(0, 3), 1e-12)
}

func TestColumnTransformer_Deterministic(t *testing.T) {
	transformer := newTransformer(t, HandleUnknownError)
	assert.NoError(t, transformer.Fit(loadTable(t, trainCSV)))
	first, err := transformer.Transform(loadTable(t, testCSV))
	assert.NoError(t, err)
	second, err := transformer.Transform(loadTable(t, testCSV))
	assert.NoError(t, err)
	assert.True(t, mat.Equal(first, second))
}

func TestColumnTransformer_NoRefit(t *testing.T) {
	transformer := newTransformer(t, HandleUnknownError)
	assert.NoError(t, transformer.Fit(loadTable(t, trainCSV)))
	numerical := transformer.Branches()[0].Pipeline.(*NumericalPipeline)
	statistics := append([]float64(nil), numerical.Imputer().Statistics...)
	mean := append([]float64(nil), numerical.Scaler().Mean...)
	scale := append([]float64(nil), numerical.Scaler().Scale...)

	shifted := csvHeader +
		"male,group C,some college,free/reduced,completed,1000,1000,1000\n" +
		"female,group B,master's degree,standard,none,2000,2000,2000\n"
	_, err := transformer.Transform(loadTable(t, shifted))
	assert.NoError(t, err)
	assert.Equal(t, statistics, numerical.Imputer().Statistics)
	assert.Equal(t, mean, numerical.Scaler().Mean)
	assert.Equal(t, scale, numerical.Scaler().Scale)
}

func TestColumnTransformer_MissingValues(t *testing.T) {
	transformer := newTransformer(t, HandleUnknownError)
	trainWithMissing := trainCSV + ",group C,some college,,completed,50,NA,\n"
	_, err := transformer.FitTransform(loadTable(t, trainWithMissing))
	assert.NoError(t, err)
	numerical := transformer.Branches()[0].Pipeline.(*NumericalPipeline)
	assert.Equal(t, []float64{88, 90}, numerical.Imputer().Statistics)
	categorical := transformer.Branches()[1].Pipeline.(*CategoricalPipeline)
	assert.Equal(t, "female", categorical.Imputer().Statistics[0])
	assert.Equal(t, "standard", categorical.Imputer().Statistics[3])

	// missing test values take the training median
	out, err := transformer.Transform(loadTable(t, csvHeader+"male,group C,some college,free/reduced,completed,47,57,\n"))
	assert.NoError(t, err)
	assert.InDelta(t, (88-numerical.Scaler().Mean[0])/numerical.Scaler().Scale[0], out.At(0, 0), 1e-12)
}

func TestColumnTransformer_HandleUnknown(t *testing.T) {
	unseen := csvHeader + "other,group C,some college,free/reduced,completed,47,57,44\n"

	transformer := newTransformer(t, HandleUnknownError)
	assert.NoError(t, transformer.Fit(loadTable(t, trainCSV)))
	_, err := transformer.Transform(loadTable(t, unseen))
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.ErrorContains(t, err, "gender")

	transformer = newTransformer(t, HandleUnknownIgnore)
	assert.NoError(t, transformer.Fit(loadTable(t, trainCSV)))
	out, err := transformer.Transform(loadTable(t, unseen))
	assert.NoError(t, err)
	assert.Equal(t, 0.0, out.At(0, 2))
	assert.Equal(t, 0.0, out.At(0, 3))
	assert.NotZero(t, out.At(0, 5))
}

func TestColumnTransformer_MissingColumn(t *testing.T) {
	transformer := newTransformer(t, HandleUnknownError)
	withoutLunch := "gender,race_ethnicity,parental_level_of_education,test_preparation_course,math_score,reading_score,writing_score\n" +
		"female,group B,bachelor's degree,none,72,72,74\n"
	err := transformer.Fit(loadTable(t, withoutLunch))
	assert.True(t, errors.Is(err, errors.NotFound))
	assert.ErrorContains(t, err, "lunch")
}

func TestColumnTransformer_EmptyTable(t *testing.T) {
	transformer := newTransformer(t, HandleUnknownError)
	assert.Error(t, transformer.Fit(emptyTable{}))
	assert.NoError(t, transformer.Fit(loadTable(t, trainCSV)))
	_, err := transformer.Transform(emptyTable{})
	assert.Error(t, err)
}

func TestNewColumnTransformer(t *testing.T) {
	_, err := NewColumnTransformer()
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewTransformer(nil, categoricalColumns, HandleUnknownError)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewTransformer(numericalColumns, []string{"gender", "writing_score"}, HandleUnknownError)
	assert.ErrorContains(t, err, "writing_score")
	_, err = NewTransformer(numericalColumns, categoricalColumns, "drop")
	assert.True(t, errors.Is(err, errors.NotValid))
}
