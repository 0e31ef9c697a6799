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

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/relgraph/internal/ui"
)

func runStatus(args []string, configPath string, g ui.Globals) error {
	fs_ := flag.NewFlagSet("status", flag.ContinueOnError)
	root := fs_.StringP("root", "r", ".", "Repository root")
	if err := fs_.Parse(args); err != nil {
		return err
	}

	path := filepath.Join(*root, ".relgraph", "last-build.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if g.JSON {
			fmt.Println(`{"built":false}`)
			return nil
		}
		ui.Warnf(g, "no build found — run `relgraph build` first")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var summary buildSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if g.JSON {
		fmt.Println(string(data))
		return nil
	}

	ui.Successf(g, "Last build: %s", summary.GeneratedAt)
	fmt.Printf("  root:          %s\n", summary.Root)
	fmt.Printf("  files walked:  %d\n", summary.FilesWalked)
	fmt.Printf("  files parsed:  %d\n", summary.FilesParsed)
	fmt.Printf("  parse errors:  %d\n", summary.ParseErrors)
	fmt.Printf("  relationships: %d\n", summary.Relationships)
	fmt.Printf("  suppressed:    %d\n", summary.Suppressed)
	fmt.Printf("  import cycles: %d\n", summary.Cycles)
	fmt.Printf("  hotspots:      %d\n", summary.Hotspots)
	fmt.Printf("  duration:      %dms\n", summary.DurationMS)

	types := make([]string, 0, len(summary.ByType))
	for t := range summary.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("    %-14s %d\n", t, summary.ByType[t])
	}
	return nil
}
