package main

import "github.com/Makepad-fr/todolist/internal/cli"

func main() {
	// Flags, subcommands and exit codes live in the cli package.
	cli.Execute()
}
