package main

import (
	"os"

	"starpair/cmd/starpair/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
