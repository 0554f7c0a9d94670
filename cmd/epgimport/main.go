// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command epgimport enumerates EPG sources, keeps the source selection and
// maintains the channel catalogs that map XMLTV channel ids to service
// references.
package main

import (
	"fmt"
	"io"
	"os"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type command struct {
	name    string
	summary string
	run     func(args []string, stdout, stderr io.Writer) int
}

func commands() []command {
	return []command{
		{"sources", "list the configured sources", runSources},
		{"select", "store the selected source descriptions", runSelect},
		{"update", "refresh the catalogs of the selected sources", runUpdate},
		{"resolve", "print the service references of a channel id", runResolve},
		{"filter", "show the channel id filter and test ids against it", runFilter},
		{"watch", "re-enumerate sources when the directory changes", runWatch},
		{"serve", "serve the read-only HTTP API", runServe},
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}
	switch args[0] {
	case "-version", "--version", "version":
		_, _ = fmt.Fprintf(stdout, "%s (commit: %s, built: %s)\n", version, commit, buildDate)
		return 0
	case "-h", "--help", "help":
		printUsage(stdout)
		return 0
	}
	for _, c := range commands() {
		if c.name == args[0] {
			return c.run(args[1:], stdout, stderr)
		}
	}
	_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
	printUsage(stderr)
	return 2
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  epgimport <command> [-config epgimport.yaml] [flags] [args]")
	_, _ = fmt.Fprintln(w, "  epgimport -version")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Commands:")
	for _, c := range commands() {
		_, _ = fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
}
