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
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gorse-io/scoreprep/preprocess"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const (
	StorePOSIX = "posix"
	StoreS3    = "s3"
	StoreGCS   = "gcs"
	StoreAzure = "azure"

	ExporterOTLP     = "otlp"
	ExporterOTLPHTTP = "otlphttp"
	ExporterZipkin   = "zipkin"

	SamplerAlways = "always"
	SamplerNever  = "never"
	SamplerRatio  = "ratio"
)

// Config is the configuration for the preprocessor.
type Config struct {
	Data       DataConfig       `mapstructure:"data"`
	Preprocess PreprocessConfig `mapstructure:"preprocess"`
	Artifact   ArtifactConfig   `mapstructure:"artifact"`
	S3         S3Config         `mapstructure:"s3"`
	GCS        GCSConfig        `mapstructure:"gcs"`
	Azure      AzureBlobConfig  `mapstructure:"azure"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// DataConfig describes the columns of the input tables.
type DataConfig struct {
	TargetColumn       string   `mapstructure:"target_column" validate:"required"`
	NumericalColumns   []string `mapstructure:"numerical_columns" validate:"min=1,dive,required" jsonschema:"minItems=1"`
	CategoricalColumns []string `mapstructure:"categorical_columns" validate:"min=1,dive,required" jsonschema:"minItems=1"`
}

type PreprocessConfig struct {
	// HandleUnknown decides what happens to categories never seen during fit.
	HandleUnknown string `mapstructure:"handle_unknown" validate:"oneof=error ignore" jsonschema:"enum=error,enum=ignore"`
}

// ArtifactConfig locates the persisted transformer.
type ArtifactConfig struct {
	Store  string `mapstructure:"store" validate:"oneof=posix s3 gcs azure" jsonschema:"enum=posix,enum=s3,enum=gcs,enum=azure"`
	Dir    string `mapstructure:"dir" validate:"required_if=Store posix"`
	Name   string `mapstructure:"name" validate:"required"`
	Bucket string `mapstructure:"bucket" validate:"required_unless=Store posix"`
	Prefix string `mapstructure:"prefix"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AzureBlobConfig struct {
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
	ConnectionString string `mapstructure:"connection_string"`
}

type TracingConfig struct {
	EnableTracing     bool    `mapstructure:"enable_tracing"`
	Exporter          string  `mapstructure:"exporter" validate:"oneof=otlp otlphttp zipkin" jsonschema:"enum=otlp,enum=otlphttp,enum=zipkin"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	Sampler           string  `mapstructure:"sampler" validate:"oneof=always never ratio" jsonschema:"enum=always,enum=never,enum=ratio"`
	Ratio             float64 `mapstructure:"ratio" validate:"gte=0,lte=1" jsonschema:"minimum=0,maximum=1"`
}

// GetDefaultConfig returns the configuration of the student score preprocessor.
func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			TargetColumn:     "math_score",
			NumericalColumns: []string{"writing_score", "reading_score"},
			CategoricalColumns: []string{
				"gender",
				"race_ethnicity",
				"parental_level_of_education",
				"lunch",
				"test_preparation_course",
			},
		},
		Preprocess: PreprocessConfig{
			HandleUnknown: preprocess.HandleUnknownError,
		},
		Artifact: ArtifactConfig{
			Store: StorePOSIX,
			Dir:   "artifacts",
			Name:  "preprocessor.pkl",
		},
		Tracing: TracingConfig{
			Exporter: ExporterOTLP,
			Sampler:  SamplerAlways,
			Ratio:    1,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [data]
	v.SetDefault("data.target_column", defaultConfig.Data.TargetColumn)
	v.SetDefault("data.numerical_columns", defaultConfig.Data.NumericalColumns)
	v.SetDefault("data.categorical_columns", defaultConfig.Data.CategoricalColumns)
	// [preprocess]
	v.SetDefault("preprocess.handle_unknown", defaultConfig.Preprocess.HandleUnknown)
	// [artifact]
	v.SetDefault("artifact.store", defaultConfig.Artifact.Store)
	v.SetDefault("artifact.dir", defaultConfig.Artifact.Dir)
	v.SetDefault("artifact.name", defaultConfig.Artifact.Name)
	// [tracing]
	v.SetDefault("tracing.exporter", defaultConfig.Tracing.Exporter)
	v.SetDefault("tracing.sampler", defaultConfig.Tracing.Sampler)
	v.SetDefault("tracing.ratio", defaultConfig.Tracing.Ratio)
}

type configBinding struct {
	key string
	env string
}

var bindings = []configBinding{
	{"data.target_column", "SCOREPREP_TARGET_COLUMN"},
	{"data.numerical_columns", "SCOREPREP_NUMERICAL_COLUMNS"},
	{"data.categorical_columns", "SCOREPREP_CATEGORICAL_COLUMNS"},
	{"preprocess.handle_unknown", "SCOREPREP_HANDLE_UNKNOWN"},
	{"artifact.store", "SCOREPREP_ARTIFACT_STORE"},
	{"artifact.dir", "SCOREPREP_ARTIFACT_DIR"},
	{"artifact.name", "SCOREPREP_ARTIFACT_NAME"},
	{"artifact.bucket", "SCOREPREP_ARTIFACT_BUCKET"},
	{"artifact.prefix", "SCOREPREP_ARTIFACT_PREFIX"},
	{"s3.endpoint", "SCOREPREP_S3_ENDPOINT"},
	{"s3.access_key_id", "SCOREPREP_S3_ACCESS_KEY_ID"},
	{"s3.secret_access_key", "SCOREPREP_S3_SECRET_ACCESS_KEY"},
	{"gcs.credentials_file", "SCOREPREP_GCS_CREDENTIALS_FILE"},
	{"azure.account_name", "SCOREPREP_AZURE_ACCOUNT_NAME"},
	{"azure.account_key", "SCOREPREP_AZURE_ACCOUNT_KEY"},
	{"azure.connection_string", "SCOREPREP_AZURE_CONNECTION_STRING"},
}

// LoadConfig loads configuration from a TOML file. An empty path means defaults and
// environment variables only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &cfg, nil
}

func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Annotate(err, "invalid config")
	}
	return nil
}
