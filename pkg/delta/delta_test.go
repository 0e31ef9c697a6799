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

package delta

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	hashes map[string]string
}

func (f *fakeStore) FileHashes(ctx context.Context) (map[string]string, error) {
	return f.hashes, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHashDetector_ClassifiesAddedModifiedDeleted(t *testing.T) {
	dir := t.TempDir()
	unchangedPath := writeFile(t, dir, "unchanged.go", "package a\n")
	modifiedPath := writeFile(t, dir, "modified.go", "package a // changed\n")
	addedPath := writeFile(t, dir, "added.go", "package a // new\n")

	unchangedHash, err := computeFileHash(unchangedPath)
	require.NoError(t, err)

	store := &fakeStore{hashes: map[string]string{
		"unchanged.go": unchangedHash,
		"modified.go":  "stale-hash",
		"deleted.go":   "gone-hash",
	}}
	detector := &HashDetector{Store: store}

	cs, err := detector.Detect(context.Background(), []FileInfo{
		{Path: "unchanged.go", FullPath: unchangedPath},
		{Path: "modified.go", FullPath: modifiedPath},
		{Path: "added.go", FullPath: addedPath},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"added.go"}, cs.Added)
	require.Equal(t, []string{"modified.go"}, cs.Modified)
	require.Equal(t, []string{"deleted.go"}, cs.Deleted)
	require.Equal(t, ChangeType(Added), cs.ChangeType("added.go"))
	require.Equal(t, ChangeType(Modified), cs.ChangeType("modified.go"))
	require.Equal(t, ChangeType(Deleted), cs.ChangeType("deleted.go"))
	require.Equal(t, ChangeType(""), cs.ChangeType("unchanged.go"))
}

func TestChangeSet_RenamedClassification(t *testing.T) {
	cs := &ChangeSet{Renamed: map[string]string{"old.go": "new.go"}}
	cs.rebuildAll()
	require.Equal(t, ChangeType(Renamed), cs.ChangeType("new.go"))
	require.Equal(t, ChangeType(Deleted), cs.ChangeType("old.go"))
	require.ElementsMatch(t, []string{"old.go", "new.go"}, cs.All)
}
