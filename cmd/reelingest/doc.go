// Package main hosts the reelingest CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon API, plus direct record-store maintenance and
// configuration scaffolding. Configuration resolution and daemon address
// discovery are centralized here so subcommands can focus on output.
package main
