// Package main is the entry point for the sndctl command line tool.
package main

import (
	"os"

	"github.com/pandeptwidyaop/sndctl/cmd/sndctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
