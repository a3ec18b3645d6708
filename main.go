package main

import (
	"os"

	"github.com/penwyp/go-cloud-cost-explorer/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
