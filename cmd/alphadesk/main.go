package main

import (
	"os"

	"github.com/dkwon/alphadesk/cmd/alphadesk/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
