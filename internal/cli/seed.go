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
	"embed"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/tomoncle/demoapi/database"
	"github.com/tomoncle/demoapi/repository"
)

//go:embed seed
var seedFiles embed.FS

type SeedOptions struct {
	*RootOptions
	Environment string
}

// NewSeedCommand loads the embedded demo data.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo securities and prices",
		Long: `Insert the demo securities and prices.

Files under seed/common run first, then seed/environments/<env>.
Rows that already exist are skipped, so seeding twice is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), opts.RootOptions, func(store *repository.Store) error {
				return seed(cmd, store, opts.Environment)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Environment, "env", "e", "dev", "seed environment")
	return cmd
}

func seed(cmd *cobra.Command, store *repository.Store, environment string) error {
	fsys, err := fs.Sub(seedFiles, "seed")
	if err != nil {
		return err
	}
	results, err := database.NewSQLInitManager(store, fsys, environment).ExecuteInitialization(cmd.Context())
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d statements, %d rows\n", r.File, r.Statements, r.RowsAffected)
	}
	return err
}
