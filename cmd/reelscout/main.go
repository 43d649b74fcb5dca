// Package main is the entry point for the reelscout CLI.
package main

import "github.com/reelscout/reelscout/internal/cli"

func main() {
	cli.Execute()
}
