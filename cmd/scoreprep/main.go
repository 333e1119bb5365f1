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
	"fmt"
	"io"

	"github.com/gorse-io/scoreprep/cmd/version"
	"github.com/gorse-io/scoreprep/common/log"
	"github.com/gorse-io/scoreprep/config"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "scoreprep",
	Short: "Feature preprocessing for student score prediction.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.CloseLogger()
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.BuildInfo())
	},
}

var schemaCommand = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		if err := printSchema(cmd.OutOrStdout()); err != nil {
			log.Logger().Fatal("failed to generate config schema", zap.Error(err))
		}
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.AddCommand(versionCommand)
	rootCommand.AddCommand(schemaCommand)
}

func printSchema(w io.Writer) error {
	data, err := config.Schema()
	if err != nil {
		return errors.Trace(err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return errors.Trace(err)
}

func loadConfig(cmd *cobra.Command) *config.Config {
	configPath, _ := cmd.Flags().GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	return cfg
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute command", zap.Error(err))
	}
}
