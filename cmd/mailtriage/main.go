package main

import (
	"os"

	"mailtriage/cmd/mailtriage/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
