package main

import (
	"os"

	"github.com/authentik-community/kadmin-go/cmd/kadmin/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.PrintErr("Error: %v", err)
		os.Exit(1)
	}
}
