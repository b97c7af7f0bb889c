package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/snbtools/snbfetch/internal/config"
	"github.com/snbtools/snbfetch/internal/engine"
)

// runShow downloads one cube into memory and prints its first rows. Suited
// to moderate-size cubes; use fetch for large exports.
func runShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ExitOnError)

	selection := fs.String("selection", "", "Selection filter (empty downloads all data)")
	head := fs.Int("n", 5, "Number of rows to print")
	cubesPath := fs.String("cubes", "", "Path to a cube reference table (default: embedded list)")
	configPath := fs.String("config", "", "Path to a YAML config file")
	verbose := fs.Bool("v", false, "Log a response audit for each request")
	veryVerbose := fs.Bool("vv", false, "Log detailed response audits")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: snbfetch show [options] CUBE

Download one SNB data cube in memory and print its first rows.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one cube identifier is required")
		fs.Usage()
		return ExitInvalidArgs
	}
	cube := fs.Arg(0)

	cfg, code := loadConfig(*configPath)
	if code != ExitSuccess {
		return code
	}
	cfg = cfg.Merge(config.Config{Selection: *selection})

	reg, code := loadRegistry(*cubesPath)
	if code != ExitSuccess {
		return code
	}
	if !reg.IsValid(cube) {
		fmt.Fprintf(os.Stderr, "Error: invalid cube id: %q\n", cube)
		fmt.Fprintln(os.Stderr, "Run 'snbfetch info' for the list of known cubes.")
		return ExitUnknownCube
	}

	ctx, cancel := signalContext()
	defer cancel()

	eng := engine.New(engineOptions(cfg, newLogger(*verbose, *veryVerbose)))
	if err := eng.Open(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	defer eng.Close()

	tbl, err := eng.FetchToTable(ctx, cube, cfg.Selection, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitNetworkError
	}

	fmt.Println(tbl.Head(*head))
	if tbl.NumRows() > *head {
		fmt.Fprintf(os.Stderr, "[snbfetch] Showing %d of %d rows\n", *head, tbl.NumRows())
	}

	return ExitSuccess
}
