// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads .relgraph/project.yaml, mirroring the teacher's
// .cie/project.yaml loader (cmd/cie/config.go) but without the
// internal/errors dependency that package pulled in — that package is
// absent from the retrieved example pack, so plain wrapped stdlib errors
// are used instead (see SPEC_FULL.md §A).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/relgraph/pkg/policy"
)

// Project is the on-disk shape of .relgraph/project.yaml.
type Project struct {
	Root     string        `yaml:"root"`
	Language []string      `yaml:"languages"`
	Policy   policy.Policy `yaml:"policy"`
}

// DefaultPath is the conventional location, relative to a repo root.
const DefaultPath = ".relgraph/project.yaml"

// Load reads and parses a project.yaml at path. A missing file is not an
// error: Default() is returned so a first-run ingest has sane behavior.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read project config %s: %w", path, err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project config %s: %w", path, err)
	}
	p.Policy.Seal()
	if p.Root == "" {
		p.Root = "."
	}
	return &p, nil
}

// Default returns the built-in project configuration used when no
// .relgraph/project.yaml exists.
func Default() *Project {
	return &Project{
		Root:     ".",
		Language: []string{"go"},
		Policy:   policy.Default(),
	}
}

// Save writes p to path in yaml form, creating parent directories as
// needed — mirrors the teacher's config save path under .cie/.
func Save(path string, p *Project) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write project config %s: %w", path, err)
	}
	return nil
}
