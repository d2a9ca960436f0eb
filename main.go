package main

import (
	"os"

	"github.com/cellmlab/cellgen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
