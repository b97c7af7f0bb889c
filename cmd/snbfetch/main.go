package main

import (
	"fmt"
	"os"
)

const version = "1.0.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitInvalidArgs  = 2
	ExitUnknownCube  = 3
	ExitNetworkError = 4
	ExitStorageError = 5
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "fetch":
		return runFetch(cmdArgs)
	case "show":
		return runShow(cmdArgs)
	case "info":
		return runInfo(cmdArgs)
	case "version", "--version":
		fmt.Printf("snbfetch %s\n", version)
		return ExitSuccess
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: snbfetch <command> [options]

Commands:
  fetch    Download one or more SNB data cubes to CSV files
  show     Download one cube in memory and print its first rows
  info     List the known cube identifiers with descriptions
  version  Display the version number

Run 'snbfetch <command> -h' for command-specific help.
SNB data portal: https://data.snb.ch/en`)
}
