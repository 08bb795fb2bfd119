package main

import (
	"os"

	"qlab/cmd/qlab/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
