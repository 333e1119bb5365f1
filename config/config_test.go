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

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorse-io/scoreprep/preprocess"
	"github.com/stretchr/testify/assert"
)

func TestLoadTemplate(t *testing.T) {
	config, err := LoadConfig("config.toml.template")
	assert.NoError(t, err)
	assert.Equal(t, GetDefaultConfig().Data, config.Data)
	assert.Equal(t, preprocess.HandleUnknownError, config.Preprocess.HandleUnknown)
	assert.Equal(t, StorePOSIX, config.Artifact.Store)
	assert.Equal(t, "artifacts", config.Artifact.Dir)
	assert.Equal(t, "preprocessor.pkl", config.Artifact.Name)
	assert.True(t, config.S3.UseSSL)
	assert.False(t, config.Tracing.EnableTracing)
	assert.Equal(t, "always", config.Tracing.Sampler)
	assert.Equal(t, 1.0, config.Tracing.Ratio)
}

func TestLoadDefault(t *testing.T) {
	config, err := LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("SCOREPREP_HANDLE_UNKNOWN", "ignore")
	t.Setenv("SCOREPREP_NUMERICAL_COLUMNS", "writing_score,reading_score,age")
	t.Setenv("SCOREPREP_ARTIFACT_STORE", "s3")
	t.Setenv("SCOREPREP_ARTIFACT_BUCKET", "models")
	t.Setenv("SCOREPREP_S3_ENDPOINT", "localhost:9000")
	config, err := LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, preprocess.HandleUnknownIgnore, config.Preprocess.HandleUnknown)
	assert.Equal(t, []string{"writing_score", "reading_score", "age"}, config.Data.NumericalColumns)
	assert.Equal(t, StoreS3, config.Artifact.Store)
	assert.Equal(t, "models", config.Artifact.Bucket)
	assert.Equal(t, "localhost:9000", config.S3.Endpoint)
}

func TestLoadInvalid(t *testing.T) {
	write := func(text string) string {
		path := filepath.Join(t.TempDir(), "config.toml")
		assert.NoError(t, os.WriteFile(path, []byte(text), 0644))
		return path
	}

	// unknown unseen-category policy
	_, err := LoadConfig(write("[preprocess]\nhandle_unknown = \"drop\"\n"))
	assert.ErrorContains(t, err, "HandleUnknown")
	// remote store without bucket
	_, err = LoadConfig(write("[artifact]\nstore = \"gcs\"\n"))
	assert.ErrorContains(t, err, "Bucket")
	// empty column list
	_, err = LoadConfig(write("[data]\nnumerical_columns = []\n"))
	assert.ErrorContains(t, err, "NumericalColumns")
	// missing file
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestTemplateMentionsEveryBinding(t *testing.T) {
	data, err := os.ReadFile("config.toml.template")
	assert.NoError(t, err)
	for _, binding := range bindings {
		key := binding.key[strings.LastIndex(binding.key, ".")+1:]
		assert.Contains(t, string(data), key+" =", binding.key)
	}
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	assert.NoError(t, err)
	var schema map[string]any
	assert.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, "scoreprep configuration", schema["title"])
	assert.NotContains(t, schema, "required")

	property := func(section, key string) map[string]any {
		sections := schema["properties"].(map[string]any)
		fields := sections[section].(map[string]any)["properties"].(map[string]any)
		return fields[key].(map[string]any)
	}
	assert.Equal(t, "array", property("data", "numerical_columns")["type"])
	assert.Equal(t, []any{"posix", "s3", "gcs", "azure"}, property("artifact", "store")["enum"])
	assert.Equal(t, []any{"error", "ignore"}, property("preprocess", "handle_unknown")["enum"])
	assert.Equal(t, 1.0, property("tracing", "ratio")["maximum"])
	// every environment binding names a property
	for _, binding := range bindings {
		section, key, _ := strings.Cut(binding.key, ".")
		assert.NotNil(t, property(section, key), binding.key)
	}
}
