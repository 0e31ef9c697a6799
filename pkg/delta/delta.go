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

// Package delta detects which files changed since the last build and
// reports them as a ChangeSet. Nothing else in this repository calls it:
// cmd/relgraph's build walks the whole repository every time. Two independent detection
// strategies are offered, same split as the teacher's delta.go /
// hash_delta.go: git-based (cheap, needs a repo) and content-hash-based
// (works anywhere, needs a prior-hash store).
package delta

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// ChangeType classifies a single path's change.
type ChangeType string

const (
	Added    ChangeType = "added"
	Modified ChangeType = "modified"
	Deleted  ChangeType = "deleted"
	Renamed  ChangeType = "renamed"
)

// ChangeSet is the delta result both detectors produce.
type ChangeSet struct {
	Added    []string
	Modified []string
	Deleted  []string
	Renamed  map[string]string // old path -> new path

	All []string // sorted, deduplicated union, old rename paths included
}

// ChangeType reports the classification of one path within the set, or ""
// if the path isn't part of this delta.
func (c *ChangeSet) ChangeType(path string) ChangeType {
	for _, p := range c.Added {
		if p == path {
			return Added
		}
	}
	for _, p := range c.Modified {
		if p == path {
			return Modified
		}
	}
	for _, p := range c.Deleted {
		if p == path {
			return Deleted
		}
	}
	for oldPath, newPath := range c.Renamed {
		if newPath == path {
			return Renamed
		}
		if oldPath == path {
			return Deleted
		}
	}
	return ""
}

func (c *ChangeSet) rebuildAll() {
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			c.All = append(c.All, p)
		}
	}
	c.All = nil
	for _, p := range c.Added {
		add(p)
	}
	for _, p := range c.Modified {
		add(p)
	}
	for _, p := range c.Deleted {
		add(p)
	}
	for oldPath, newPath := range c.Renamed {
		add(oldPath)
		add(newPath)
	}
	sort.Strings(c.All)
}

// GitDetector detects changes between two commits via `git diff
// --name-status`, mirroring the teacher's DeltaDetector.
type GitDetector struct {
	RepoPath string
}

// Detect returns the changes between baseSHA and headSHA (either may be
// "HEAD", a branch name, or a commit hash; an empty baseSHA diffs against
// the empty tree, i.e. every tracked file is "added").
func (g *GitDetector) Detect(ctx context.Context, baseSHA, headSHA string) (*ChangeSet, error) {
	if headSHA == "" {
		headSHA = "HEAD"
	}
	if baseSHA == "" {
		baseSHA = "4b825dc642cb6eb9a060e54bf8d69288fbee4904" // git's empty tree object
	}
	rangeArg := baseSHA + ".." + headSHA

	cmd := exec.CommandContext(ctx, "git", "diff", "--name-status", "-M", rangeArg)
	cmd.Dir = g.RepoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git diff --name-status %s: %w: %s", rangeArg, err, stderr.String())
	}

	cs := &ChangeSet{Renamed: make(map[string]string)}
	for _, line := range strings.Split(stdout.String(), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		status := fields[0]
		switch {
		case status == "A":
			cs.Added = append(cs.Added, fields[1])
		case status == "M":
			cs.Modified = append(cs.Modified, fields[1])
		case status == "D":
			cs.Deleted = append(cs.Deleted, fields[1])
		case strings.HasPrefix(status, "R") && len(fields) >= 3:
			cs.Renamed[fields[1]] = fields[2]
		}
	}
	cs.rebuildAll()
	return cs, nil
}

// StateStore is the minimal persistence dependency HashDetector needs: the
// previously recorded content hash for each known file path. pkg/project's
// persistence layer (or any row store keyed by file path) can satisfy
// this without HashDetector needing to know about storage internals.
type StateStore interface {
	FileHashes(ctx context.Context) (map[string]string, error)
}

// FileInfo is the minimal description HashDetector needs about a file
// found on disk during the current walk.
type FileInfo struct {
	Path     string // repo-relative
	FullPath string // absolute or repoRoot-relative, suitable for os.ReadFile
}

// HashDetector detects changes by comparing sha256 content hashes against
// a StateStore snapshot — works without git, mirroring the teacher's
// HashDeltaDetector.
type HashDetector struct {
	Store StateStore
}

// Detect compares currentFiles against the store's last-known hashes.
func (h *HashDetector) Detect(ctx context.Context, currentFiles []FileInfo) (*ChangeSet, error) {
	stored, err := h.Store.FileHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored file hashes: %w", err)
	}

	currentSet := make(map[string]struct{}, len(currentFiles))
	cs := &ChangeSet{Renamed: make(map[string]string)}

	for _, f := range currentFiles {
		currentSet[f.Path] = struct{}{}
		prevHash, existed := stored[f.Path]
		if !existed {
			cs.Added = append(cs.Added, f.Path)
			continue
		}
		hash, err := computeFileHash(f.FullPath)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", f.Path, err)
		}
		if hash != prevHash {
			cs.Modified = append(cs.Modified, f.Path)
		}
	}
	for path := range stored {
		if _, ok := currentSet[path]; !ok {
			cs.Deleted = append(cs.Deleted, path)
		}
	}
	cs.rebuildAll()
	return cs, nil
}

func computeFileHash(fullPath string) (string, error) {
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}
