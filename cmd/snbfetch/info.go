package main

import (
	"flag"
	"fmt"
	"os"
)

// runInfo prints the known cubes with their descriptions.
func runInfo(args []string) int {
	fs := flag.NewFlagSet("info", flag.ExitOnError)

	cubesPath := fs.String("cubes", "", "Path to a cube reference table (default: embedded list)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: snbfetch info [options]

List the known cube identifiers with descriptions.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	reg, code := loadRegistry(*cubesPath)
	if code != ExitSuccess {
		return code
	}

	fmt.Println(reg.Describe())
	return ExitSuccess
}
