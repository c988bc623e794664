package main

import (
	"os"

	"healthaudit/cmd/healthaudit/commands"
)

func main() {
	root := commands.NewRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
