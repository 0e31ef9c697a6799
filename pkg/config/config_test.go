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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "nope", "project.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ".", p.Root)
	assert.Equal(t, []string{"go"}, p.Language)
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".relgraph", "project.yaml")
	original := Default()
	original.Language = []string{"go", "python"}

	require.NoError(t, Save(path, original))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original.Language, loaded.Language)
	assert.Equal(t, original.Policy.ASTMinNameLength, loaded.Policy.ASTMinNameLength)
}

func TestLoad_SealsPolicyStopNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yaml")
	p := Default()
	p.Policy.StopNames = []string{"Tmp"}
	require.NoError(t, Save(path, p))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Policy.IsStopName("tmp"), "Load must seal the policy so IsStopName works")
}

func TestLoad_DefaultsEmptyRootToDot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte("languages: [go]\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ".", p.Root)
}
