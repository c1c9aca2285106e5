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

package models

import (
	"github.com/uptrace/bun"

	"github.com/tomoncle/demoapi/database"
)

// Register adds every model of this package to registry.
func Register(db *bun.DB, registry *database.TableRegistry) error {
	if _, err := database.RegisterRecord[Security](registry, db, 10); err != nil {
		return err
	}
	if _, err := database.RegisterRecord[ValueOverTime](registry, db, 20); err != nil {
		return err
	}
	return nil
}

// NewRegistry returns a registry holding every model of this package.
func NewRegistry(db *bun.DB) (*database.TableRegistry, error) {
	registry := database.NewTableRegistry()
	if err := Register(db, registry); err != nil {
		return nil, err
	}
	return registry, nil
}
