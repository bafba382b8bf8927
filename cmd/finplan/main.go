package main

import (
	"os"

	"github.com/jask/finplan/cmd/finplan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
