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

// Package ui holds the small set of terminal-output helpers cmd/relgraph
// shares across its subcommands: color enablement (respecting --no-color,
// NO_COLOR, and whether stdout is actually a terminal) and leveled
// print helpers gated by the --json/--quiet/--verbose globals.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Globals carries the subset of the global flags output helpers need.
type Globals struct {
	JSON    bool
	Verbose int
	Quiet   bool
}

// Init enables or disables color globally for the process, following the
// same precedence the teacher's main.go uses: an explicit --no-color (or
// NO_COLOR env var, applied by the caller before Init) always wins;
// otherwise color is enabled only when stdout is a real terminal.
func Init(noColor bool) {
	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// Successf prints a green-bold status line, suppressed when Quiet or JSON.
func Successf(g Globals, format string, args ...any) {
	if g.Quiet || g.JSON {
		return
	}
	successColor.Fprintf(os.Stdout, format+"\n", args...)
}

// Infof prints a plain informational line, suppressed when Quiet or JSON,
// or when level exceeds the configured --verbose count.
func Infof(g Globals, level int, format string, args ...any) {
	if g.Quiet || g.JSON || level > g.Verbose {
		return
	}
	infoColor.Fprintf(os.Stdout, format+"\n", args...)
}

// Warnf prints a yellow-bold warning to stderr. Warnings are never
// suppressed by --quiet — only by --json, where they'd corrupt output.
func Warnf(g Globals, format string, args ...any) {
	if g.JSON {
		return
	}
	warnColor.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// Errorf prints a red-bold error to stderr. Like Warnf, always shown
// unless --json is set, matching the teacher's error-reporting behavior.
func Errorf(g Globals, format string, args ...any) {
	if g.JSON {
		fmt.Fprintf(os.Stderr, "%s\n", fmt.Sprintf(format, args...))
		return
	}
	errorColor.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
