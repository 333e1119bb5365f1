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
	"io"
	"os"
	"strings"

	"github.com/gorse-io/scoreprep/common/encoding"
	"github.com/gorse-io/scoreprep/common/log"
	"github.com/gorse-io/scoreprep/preprocess"
	"github.com/gorse-io/scoreprep/storage/blob"
	"github.com/gorse-io/scoreprep/transformation"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var inspectCommand = &cobra.Command{
	Use:   "inspect",
	Short: "Show the parameters learned by the saved preprocessor",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		ctx := context.Background()
		store, err := blob.NewStore(ctx, cfg)
		if err != nil {
			log.Logger().Fatal("failed to open artifact store", zap.Error(err))
		}
		transformer, err := transformation.LoadArtifact(ctx, store, cfg.Artifact.Name)
		if err != nil {
			log.Logger().Fatal("failed to load artifact", zap.String("uri", store.URI(cfg.Artifact.Name)), zap.Error(err))
		}
		if err = printTransformer(os.Stdout, transformer); err != nil {
			log.Logger().Fatal("failed to print artifact", zap.Error(err))
		}
	},
}

func init() {
	rootCommand.AddCommand(inspectCommand)
}

// printTransformer renders one row per input column.
func printTransformer(w io.Writer, transformer *preprocess.ColumnTransformer) error {
	table := tablewriter.NewWriter(w)
	table.Header("branch", "column", "statistic", "mean", "scale", "categories")
	for _, branch := range transformer.Branches() {
		var rows [][]string
		switch pipeline := branch.Pipeline.(type) {
		case *preprocess.NumericalPipeline:
			for j, column := range pipeline.Columns() {
				rows = append(rows, []string{
					branch.Name,
					column,
					encoding.FormatFloat64(pipeline.Imputer().Statistics[j]),
					encoding.FormatFloat64(pipeline.Scaler().Mean[j]),
					encoding.FormatFloat64(pipeline.Scaler().Scale[j]),
					"",
				})
			}
		case *preprocess.CategoricalPipeline:
			offset := 0
			for j, column := range pipeline.Columns() {
				categories := pipeline.Encoder().Categories[j]
				scales := make([]string, len(categories))
				for k := range categories {
					scales[k] = encoding.FormatFloat64(pipeline.Scaler().Scale[offset+k])
				}
				offset += len(categories)
				rows = append(rows, []string{
					branch.Name,
					column,
					pipeline.Imputer().Statistics[j],
					"",
					strings.Join(scales, ", "),
					strings.Join(categories, ", "),
				})
			}
		default:
			return errors.NotSupportedf("pipeline of branch %s", branch.Name)
		}
		for _, row := range rows {
			if err := table.Append(row); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return errors.Trace(table.Render())
}
