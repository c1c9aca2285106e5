/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/tomoncle/demoapi/database"
	"github.com/tomoncle/demoapi/repository"
	"github.com/tomoncle/demoapi/utils"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	// autoCreate forces database creation regardless of the config file.
	autoCreate bool
}

// NewRootCommand creates the root command of the demoapi CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "demoapi",
		Short:         "Securities demo API",
		Long:          "Serves securities and their daily prices from a relational store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c",
		utils.EnvDefaultString("DEMOAPI_CONFIG", ""), "path to the yaml config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log dependency wiring")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewHealthCommand(opts))

	return cmd
}

// NewHealthCommand prints the current time as reported by the store.
func NewHealthCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the database answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), opts, func(store *repository.Store) error {
				now, err := store.HealthCheck(cmd.Context())
				if err != nil {
					return fmt.Errorf("health check failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", now.Format(time.RFC3339))
				return nil
			})
		},
	}
}

// NewMigrateCommand creates the database when missing and every registered
// table that does not exist yet.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database and its tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.autoCreate = true
			return runOnce(cmd.Context(), opts, func(manager database.AbstractDatabaseManager, store *repository.Store) error {
				if err := manager.CreateTables(cmd.Context(), store.Tables()); err != nil {
					return err
				}
				for _, t := range store.Tables().Tables() {
					fmt.Fprintf(cmd.OutOrStdout(), "table %s ready\n", store.TableName(t))
				}
				return nil
			})
		},
	}
}

// runOnce starts the application graph, invokes fn and stops it again.
func runOnce(ctx context.Context, opts *RootOptions, fn interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app := fx.New(Module(opts), fx.Invoke(fn))
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Stop(stopCtx)
}
