package main

import (
	"os"

	"github.com/crucible-bench/crucible/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
