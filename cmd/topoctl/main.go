package main

import (
	"os"

	"github.com/yaroslav/topoctl/cmd/topoctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
