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

package transformation

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/gorse-io/scoreprep/common/log"
	"github.com/gorse-io/scoreprep/config"
	"github.com/gorse-io/scoreprep/dataset"
	"github.com/gorse-io/scoreprep/preprocess"
	"github.com/gorse-io/scoreprep/storage/blob"
	"github.com/juju/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Steps of a run, reported by Error.
const (
	StepLoadTrain        = "load train data"
	StepLoadTest         = "load test data"
	StepSplitTrain       = "split train data"
	StepSplitTest        = "split test data"
	StepBuildTransformer = "build transformer"
	StepFitTransform     = "fit transform train data"
	StepTransformTest    = "transform test data"
	StepAppendTarget     = "append target"
	StepCreateDirectory  = "create artifact directory"
	StepWriteArtifact    = "write artifact"
)

// Error is the only error returned by a run. Step names the failed step.
type Error struct {
	Step string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result holds the outputs of a run.
type Result struct {
	// Train and Test are the transformed features followed by the target column.
	Train *mat.Dense
	Test  *mat.Dense
	// FeatureNames names the columns of Train and Test except the target.
	FeatureNames []string
	ArtifactPath string
}

type Option func(*DataTransformation)

func WithLogger(logger *zap.Logger) Option {
	return func(d *DataTransformation) {
		d.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(d *DataTransformation) {
		d.tracer = tracer
	}
}

// WithStore replaces the artifact store built from the configuration.
func WithStore(store blob.Store) Option {
	return func(d *DataTransformation) {
		d.store = store
	}
}

// DataTransformation fits the preprocessor on a training table, applies it to
// both tables and persists it.
type DataTransformation struct {
	config *config.Config
	store  blob.Store
	logger *zap.Logger
	tracer trace.Tracer
}

func NewDataTransformation(cfg *config.Config, opts ...Option) *DataTransformation {
	d := &DataTransformation{
		config: cfg,
		logger: log.Logger(),
		tracer: otel.Tracer("scoreprep/transformation"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// GetDataTransformer builds the unfit preprocessor from the configured columns.
func (d *DataTransformation) GetDataTransformer() (*preprocess.ColumnTransformer, error) {
	data := d.config.Data
	transformer, err := preprocess.NewTransformer(data.NumericalColumns, data.CategoricalColumns, d.config.Preprocess.HandleUnknown)
	if err != nil {
		return nil, errors.Trace(err)
	}
	d.logger.Info("categorical columns", zap.Strings("columns", data.CategoricalColumns))
	d.logger.Info("numerical columns", zap.Strings("columns", data.NumericalColumns))
	return transformer, nil
}

// Run loads both tables, fits the preprocessor on the training features only,
// transforms both splits, appends the target column and writes the artifact.
func (d *DataTransformation) Run(ctx context.Context, trainPath, testPath string) (*Result, error) {
	runID := uuid.New().String()
	logger := d.logger.With(zap.String("run_id", runID))
	ctx, span := d.tracer.Start(ctx, "data transformation", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("train_path", trainPath),
		attribute.String("test_path", testPath)))
	defer span.End()

	var (
		trainTable, testTable *dataset.Table
		trainX, testX         *dataset.Table
		trainY, testY         []float64
		transformer           *preprocess.ColumnTransformer
		trainArr, testArr     *mat.Dense
		artifactPath          string
	)
	err := d.step(ctx, StepLoadTrain, func(context.Context) (err error) {
		trainTable, err = loadTable("train", trainPath)
		return
	})
	if err != nil {
		return nil, err
	}
	err = d.step(ctx, StepLoadTest, func(context.Context) (err error) {
		testTable, err = loadTable("test", testPath)
		return
	})
	if err != nil {
		return nil, err
	}
	logger.Info("reading the train and test data completed",
		zap.Int("train_rows", trainTable.Count()),
		zap.Int("test_rows", testTable.Count()))

	if err = d.step(ctx, StepSplitTrain, func(context.Context) (err error) {
		trainX, trainY, err = d.split(trainTable)
		return
	}); err != nil {
		return nil, err
	}
	if err = d.step(ctx, StepSplitTest, func(context.Context) (err error) {
		testX, testY, err = d.split(testTable)
		return
	}); err != nil {
		return nil, err
	}

	logger.Info("obtaining the preprocessing object")
	if err = d.step(ctx, StepBuildTransformer, func(context.Context) (err error) {
		transformer, err = d.GetDataTransformer()
		return
	}); err != nil {
		return nil, err
	}

	logger.Info("applying preprocessing object on training and testing data")
	if err = d.step(ctx, StepFitTransform, func(context.Context) (err error) {
		trainArr, err = transformer.FitTransform(trainX)
		return
	}); err != nil {
		return nil, err
	}
	if err = d.step(ctx, StepTransformTest, func(context.Context) (err error) {
		testArr, err = transformer.Transform(testX)
		return
	}); err != nil {
		return nil, err
	}
	if err = d.step(ctx, StepAppendTarget, func(context.Context) (err error) {
		if trainArr, err = appendTarget(trainArr, trainY); err != nil {
			return errors.Annotate(err, "train")
		}
		if testArr, err = appendTarget(testArr, testY); err != nil {
			return errors.Annotate(err, "test")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err = d.step(ctx, StepCreateDirectory, func(ctx context.Context) error {
		if d.store == nil {
			store, err := blob.NewStore(ctx, d.config)
			if err != nil {
				return errors.Trace(err)
			}
			d.store = store
		}
		return d.store.Prepare(ctx)
	}); err != nil {
		return nil, err
	}
	if err = d.step(ctx, StepWriteArtifact, func(ctx context.Context) error {
		return d.writeArtifact(ctx, transformer)
	}); err != nil {
		return nil, err
	}
	artifactPath = d.store.URI(d.config.Artifact.Name)
	logger.Info("saved preprocessing object", zap.String("path", artifactPath))

	return &Result{
		Train:        trainArr,
		Test:         testArr,
		FeatureNames: transformer.FeatureNamesOut(),
		ArtifactPath: artifactPath,
	}, nil
}

// step runs one step in its own span. Cancellation is checked before the step starts.
func (d *DataTransformation) step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &Error{Step: name, Err: err}
	}
	ctx, span := d.tracer.Start(ctx, name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Error("data transformation failed", zap.String("step", name), zap.Error(err))
		return &Error{Step: name, Err: err}
	}
	return nil
}

// loadTable loads one split. A table without rows cannot be transformed.
func loadTable(split, path string) (*dataset.Table, error) {
	table, err := dataset.LoadCSV(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if table.Count() == 0 {
		return nil, errors.NotValidf("%s table %s without rows", split, path)
	}
	return table, nil
}

// split checks the required columns then separates features and target.
func (d *DataTransformation) split(table *dataset.Table) (*dataset.Table, []float64, error) {
	data := d.config.Data
	columns := append([]string{data.TargetColumn}, data.NumericalColumns...)
	columns = append(columns, data.CategoricalColumns...)
	if err := table.Require(columns...); err != nil {
		return nil, nil, errors.Trace(err)
	}
	return table.Split(data.TargetColumn)
}

func (d *DataTransformation) writeArtifact(ctx context.Context, transformer *preprocess.ColumnTransformer) error {
	// encode first so a failed encoding never leaves a partial artifact
	buf := bytes.NewBuffer(nil)
	if err := preprocess.MarshalTransformer(buf, transformer); err != nil {
		return errors.Trace(err)
	}
	w, err := d.store.Create(ctx, d.config.Artifact.Name)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err = io.Copy(w, buf); err != nil {
		// the previous artifact stays in place
		if abortErr := w.Abort(err); abortErr != nil {
			d.logger.Warn("failed to discard partial artifact", zap.Error(abortErr))
		}
		return errors.Trace(err)
	}
	return errors.Trace(w.Close())
}

// appendTarget appends y as the last column of x.
func appendTarget(x *mat.Dense, y []float64) (*mat.Dense, error) {
	rows, _ := x.Dims()
	if len(y) != rows {
		return nil, errors.NotValidf("%d targets for %d rows", len(y), rows)
	}
	var out mat.Dense
	out.Augment(x, mat.NewDense(rows, 1, y))
	return &out, nil
}

// LoadArtifact reads a transformer written by a run.
func LoadArtifact(ctx context.Context, store blob.Store, name string) (*preprocess.ColumnTransformer, error) {
	r, err := store.Open(ctx, name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close()
	transformer, err := preprocess.UnmarshalTransformer(r)
	if err != nil {
		return nil, errors.Annotatef(err, "read %s", store.URI(name))
	}
	return transformer, nil
}
