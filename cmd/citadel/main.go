// Package main is the single-binary entrypoint for Citadel.
// Citadel runs the show companion's progression engine behind a local API.
package main

import "github.com/citadel-app/citadel/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
