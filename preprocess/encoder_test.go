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
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestOneHotEncoder(t *testing.T) {
	encoder, err := NewOneHotEncoder([]string{"gender", "lunch"}, HandleUnknownError)
	assert.NoError(t, err)
	_, err = encoder.Transform([][]string{{"male"}, {"standard"}})
	assert.Error(t, err)

	assert.NoError(t, encoder.Fit([][]string{
		{"male", "female", "male"},
		{"standard", "standard", "free/reduced"},
	}))
	assert.Equal(t, [][]string{{"female", "male"}, {"free/reduced", "standard"}}, encoder.Categories)
	assert.Equal(t, 4, encoder.Width())
	assert.Equal(t, []string{"gender_female", "gender_male", "lunch_free/reduced", "lunch_standard"},
		encoder.FeatureNamesOut())

	out, err := encoder.Transform([][]string{
		{"female", "male"},
		{"standard", "free/reduced"},
	})
	assert.NoError(t, err)
	assert.Equal(t, []float64{
		1, 0, 0, 1,
		0, 1, 1, 0,
	}, out.RawMatrix().Data)
}

func TestOneHotEncoder_HandleUnknown(t *testing.T) {
	values := [][]string{{"some college", "high school"}}
	unseen := [][]string{{"some college", "doctorate"}}

	encoder, err := NewOneHotEncoder([]string{"parental_level_of_education"}, HandleUnknownError)
	assert.NoError(t, err)
	assert.NoError(t, encoder.Fit(values))
	_, err = encoder.Transform(unseen)
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.ErrorContains(t, err, "doctorate")

	encoder, err = NewOneHotEncoder([]string{"parental_level_of_education"}, HandleUnknownIgnore)
	assert.NoError(t, err)
	assert.NoError(t, encoder.Fit(values))
	out, err := encoder.Transform(unseen)
	assert.NoError(t, err)
	assert.Equal(t, []float64{
		0, 1,
		0, 0,
	}, out.RawMatrix().Data)
}

func TestOneHotEncoder_InvalidPolicy(t *testing.T) {
	_, err := NewOneHotEncoder([]string{"lunch"}, "drop")
	assert.True(t, errors.Is(err, errors.NotValid))
}
