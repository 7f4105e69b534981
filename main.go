// Package main is the entry point for the smashmetrics CLI tool, which
// fetches regional Smash tournament results from start.gg and computes
// per-player performance metrics.
package main

import "github.com/smashcc/startgg-metrics/cmd"

func main() {
	cmd.Execute()
}
