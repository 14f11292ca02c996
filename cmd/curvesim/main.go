package main

import (
	"os"

	"curvedex/cmd/curvesim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
