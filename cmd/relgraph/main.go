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

// Package main implements the relgraph CLI for building and inspecting a
// repository's structural relationship graph.
//
// Usage:
//
//	relgraph init            Create .relgraph/project.yaml configuration
//	relgraph build            Walk the repo and build the relationship graph
//	relgraph [--json] status  Show the last build's summary
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/relgraph/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .relgraph/project.yaml")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v, -vv)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress progress output")
	)
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `relgraph - structural relationship graph builder

Usage:
  relgraph <command> [options]

Commands:
  init      Create .relgraph/project.yaml configuration
  build     Walk the repository and build the relationship graph
  status    Show the last build's summary

Global Options:
  --json         Output in JSON format
  --no-color     Disable color output (respects NO_COLOR env var)
  -v, --verbose  Increase verbosity
  -q, --quiet    Suppress progress output
  -c, --config   Path to .relgraph/project.yaml
  -V, --version  Show version and exit
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("relgraph version %s (%s)\n", version, commit)
		os.Exit(0)
	}
	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if *jsonOutput {
		*quiet = true
	}

	globals := ui.Globals{JSON: *jsonOutput, Verbose: *verbose, Quiet: *quiet}
	ui.Init(*noColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command, cmdArgs := args[0], args[1:]
	var err error
	switch command {
	case "init":
		err = runInit(cmdArgs, *configPath, globals)
	case "build":
		err = runBuild(cmdArgs, *configPath, globals)
	case "status":
		err = runStatus(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		ui.Errorf(globals, "%v", err)
		os.Exit(1)
	}
}
