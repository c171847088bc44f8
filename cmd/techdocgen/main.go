package main

import (
	"os"

	"github.com/kuntumseroja/techdocgen/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
