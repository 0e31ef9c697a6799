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

// Package policy holds the process-wide immutable configuration C9
// describes: noise and stop-name thresholds read once at pipeline init.
// Changes require a re-parse to take full effect (spec.md §4.9).
package policy

import (
	"strings"
)

// Policy is the recognized-options table from spec.md §4.9.
type Policy struct {
	// ASTMinNameLength: names shorter than this are skipped or heavily
	// penalized.
	ASTMinNameLength int `yaml:"astMinNameLength"`

	// StopNames: lowercased names always skipped as edge targets.
	StopNames []string `yaml:"stopNames"`

	// MinInferredConfidence: floor below which inferred edges are dropped.
	MinInferredConfidence float64 `yaml:"minInferredConfidence"`

	// TypeCheckerBudget: per-parse credit for C4.
	TypeCheckerBudget int `yaml:"typeCheckerBudget"`

	// ExcludeGlobs are glob patterns for files/directories the builder
	// should never walk, mirrored from the teacher's ingestion policy
	// (not part of spec.md's C9 table but carried as ambient ingestion
	// scoping, since every real ingestion run needs one).
	ExcludeGlobs []string `yaml:"excludeGlobs"`

	// ParseWorkers bounds the per-file parse worker pool (spec.md §5).
	ParseWorkers int `yaml:"parseWorkers"`

	stopNameSet map[string]struct{}
}

// Default returns the recommended defaults. Values are drawn from the
// teacher's DefaultConfig (exclude globs, worker count) plus the
// thresholds spec.md §4.5/§4.9 names explicitly.
func Default() Policy {
	p := Policy{
		ASTMinNameLength:      2,
		MinInferredConfidence: 0.35,
		TypeCheckerBudget:     64,
		StopNames: []string{
			"tmp", "temp", "val", "value", "obj", "item", "data", "res",
			"err", "ok", "x", "y", "i", "j", "k", "_",
		},
		ExcludeGlobs: []string{
			".git/**", "node_modules/**", "vendor/**",
			"dist/**", "build/**", "bin/**", "**/bin/**", "out/**",
			".idea/**", ".vscode/**", "*.swp", "*.swo",
			".cache/**", "coverage/**", "tmp/**", ".tmp/**",
			"*.min.js", "*.min.css",
		},
		ParseWorkers: 4,
	}
	p.seal()
	return p
}

// seal precomputes the lowercased stop-name set. Call after loading from
// yaml, before the Policy is handed to the pipeline — it is treated as
// immutable thereafter (spec.md §5: "globally immutable after init").
func (p *Policy) seal() {
	p.stopNameSet = make(map[string]struct{}, len(p.StopNames))
	for _, n := range p.StopNames {
		p.stopNameSet[strings.ToLower(n)] = struct{}{}
	}
}

// Seal is the exported form of seal, used by callers (e.g. pkg/config)
// that build a Policy outside this package, such as after yaml.Unmarshal.
func (p *Policy) Seal() { p.seal() }

// IsStopName reports whether name (case-insensitively) is in the stop-name
// set always skipped as an edge target.
func (p Policy) IsStopName(name string) bool {
	if p.stopNameSet == nil {
		return false
	}
	_, ok := p.stopNameSet[strings.ToLower(name)]
	return ok
}

// IsNoisyName reports whether name should be skipped or heavily penalized
// for being too short or a stop-name.
func (p Policy) IsNoisyName(name string) bool {
	return len(name) < p.ASTMinNameLength || p.IsStopName(name)
}
