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

package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/gorse-io/scoreprep/common/encoding"
	"github.com/gorse-io/scoreprep/common/log"
	"github.com/gorse-io/scoreprep/common/tracing"
	"github.com/gorse-io/scoreprep/transformation"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

const (
	trainArrayFile = "train_array.csv"
	testArrayFile  = "test_array.csv"
)

var transformCommand = &cobra.Command{
	Use:   "transform",
	Short: "Fit the preprocessor on the train data and transform both splits",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		tp, err := tracing.Setup(ctx, cfg.Tracing)
		if err != nil {
			log.Logger().Fatal("failed to create trace provider", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Logger().Error("failed to shutdown trace provider", zap.Error(err))
			}
		}()

		trainPath, _ := cmd.Flags().GetString("train")
		testPath, _ := cmd.Flags().GetString("test")
		result, err := transformation.NewDataTransformation(cfg).Run(ctx, trainPath, testPath)
		if err != nil {
			log.Logger().Fatal("failed to transform data", zap.Error(err))
		}
		if err = printSummary(os.Stdout, result); err != nil {
			log.Logger().Fatal("failed to print summary", zap.Error(err))
		}

		outputDir, _ := cmd.Flags().GetString("output-dir")
		if outputDir == "" {
			return
		}
		header := append(append([]string(nil), result.FeatureNames...), cfg.Data.TargetColumn)
		for name, array := range map[string]*mat.Dense{
			trainArrayFile: result.Train,
			testArrayFile:  result.Test,
		} {
			path := filepath.Join(outputDir, name)
			if err = saveMatrix(path, header, array); err != nil {
				log.Logger().Fatal("failed to save array", zap.String("path", path), zap.Error(err))
			}
			log.Logger().Info("saved array", zap.String("path", path))
		}
	},
}

func init() {
	transformCommand.Flags().String("train", "", "train data path")
	transformCommand.Flags().String("test", "", "test data path")
	transformCommand.Flags().String("output-dir", "", "directory to save transformed arrays")
	_ = transformCommand.MarkFlagRequired("train")
	_ = transformCommand.MarkFlagRequired("test")
	rootCommand.AddCommand(transformCommand)
}

func printSummary(w io.Writer, result *transformation.Result) error {
	table := tablewriter.NewWriter(w)
	table.Header("split", "rows", "columns")
	for _, split := range []struct {
		name  string
		array *mat.Dense
	}{
		{"train", result.Train},
		{"test", result.Test},
	} {
		rows, cols := split.array.Dims()
		if err := table.Append([]string{split.name, strconv.Itoa(rows), strconv.Itoa(cols)}); err != nil {
			return errors.Trace(err)
		}
	}
	if err := table.Render(); err != nil {
		return errors.Trace(err)
	}
	if _, err := io.WriteString(w, "artifact: "+result.ArtifactPath+"\n"); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func saveMatrix(path string, header []string, m *mat.Dense) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return errors.Trace(err)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	if err = writeMatrix(file, header, m); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(file.Close())
}

// writeMatrix writes a matrix as CSV with the shortest exact float representation.
func writeMatrix(w io.Writer, header []string, m *mat.Dense) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return errors.Trace(err)
	}
	rows, cols := m.Dims()
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = encoding.FormatFloat64(m.At(i, j))
		}
		if err := writer.Write(record); err != nil {
			return errors.Trace(err)
		}
	}
	writer.Flush()
	return errors.Trace(writer.Error())
}
