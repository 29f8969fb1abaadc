// Package main is the entry point for the gaffer CLI.
package main

import (
	"fmt"
	"os"

	"github.com/voidlock/gaffer/internal/app"
	"github.com/voidlock/gaffer/internal/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	container, err := app.New(cwd)
	if err != nil {
		// Help, version and upgrade still work outside a repository
		if canRunWithoutGit(os.Args[1:]) {
			rootCmd := cli.NewRootCommand(nil, version)
			return rootCmd.Execute()
		}
		return err
	}
	defer func() { _ = container.Close() }()

	rootCmd := cli.NewRootCommand(container, version)
	return rootCmd.Execute()
}

func canRunWithoutGit(args []string) bool {
	if len(args) == 0 {
		return true
	}
	switch args[0] {
	case "help", "upgrade":
		return true
	}
	for _, arg := range args {
		if arg == "--version" || arg == "-v" || arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}
