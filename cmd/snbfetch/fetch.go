package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
	"golang.org/x/time/rate"

	"github.com/snbtools/snbfetch/internal/archive"
	"github.com/snbtools/snbfetch/internal/config"
	"github.com/snbtools/snbfetch/internal/engine"
	"github.com/snbtools/snbfetch/internal/registry"
	"github.com/snbtools/snbfetch/internal/table"
)

// runFetch downloads one or more cubes sequentially to CSV files, validating
// every identifier against the registry before any network call.
func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)

	selection := fs.String("selection", "", "Selection filter (empty downloads all data)")
	out := fs.String("out", "", "Output directory for CSV files (default data/raw)")
	cubesPath := fs.String("cubes", "", "Path to a cube reference table (default: embedded list)")
	configPath := fs.String("config", "", "Path to a YAML config file")
	archiveURL := fs.String("archive", "", "Bucket URL to archive downloads to (e.g. s3://bucket/prefix)")
	showHead := fs.Bool("show", false, "Print the first rows of each downloaded cube")
	verbose := fs.Bool("v", false, "Log a response audit for each request")
	veryVerbose := fs.Bool("vv", false, "Log detailed response audits")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: snbfetch fetch [options] CUBE [CUBE...]

Download SNB data cubes as semicolon-delimited CSV files. Cubes are fetched
strictly one after another with a short randomized pause in between.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cubes := fs.Args()
	if len(cubes) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one cube identifier is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg, code := loadConfig(*configPath)
	if code != ExitSuccess {
		return code
	}
	cfg = cfg.Merge(config.Config{OutputDir: *out, Selection: *selection})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	reg, code := loadRegistry(*cubesPath)
	if code != ExitSuccess {
		return code
	}
	for _, cube := range cubes {
		if !reg.IsValid(cube) {
			fmt.Fprintf(os.Stderr, "Error: invalid cube id: %q\n", cube)
			fmt.Fprintln(os.Stderr, "Run 'snbfetch info' for the list of known cubes.")
			return ExitUnknownCube
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	eng := engine.New(engineOptions(cfg, newLogger(*verbose, *veryVerbose)))
	if err := eng.Open(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	defer eng.Close()

	paths, err := eng.FetchManyToFiles(ctx, cubes, cfg.Selection, cfg.OutputDir, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitNetworkError
	}

	for _, p := range paths {
		fmt.Println(p)
		if *showHead {
			tbl, err := table.LoadFile(p, engine.MetadataRows)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return ExitGeneralError
			}
			if tbl != nil {
				fmt.Println(tbl.Head(5))
			}
		}
	}

	if *archiveURL != "" {
		cfg.ArchiveBucket = *archiveURL
	}
	if cfg.ArchiveBucket != "" {
		if code := archiveFiles(ctx, cfg.ArchiveBucket, paths); code != ExitSuccess {
			return code
		}
	}

	return ExitSuccess
}

// archiveFiles copies the downloaded files into the configured bucket.
func archiveFiles(ctx context.Context, bucketURL string, paths []string) int {
	bkt, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	keys, err := archive.StoreAll(ctx, bkt, "", paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	fmt.Fprintf(os.Stderr, "[snbfetch] Archived %d file(s) to %s\n", len(keys), bucketURL)

	return ExitSuccess
}

// loadConfig resolves the effective configuration: defaults, then the file
// if given, then environment overrides.
func loadConfig(path string) (config.Config, int) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return config.Config{}, ExitInvalidArgs
		}
		cfg = loaded
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return config.Config{}, ExitInvalidArgs
	}
	return cfg, ExitSuccess
}

// loadRegistry loads the reference table from disk or falls back to the
// embedded copy.
func loadRegistry(path string) (*registry.Registry, int) {
	var (
		reg *registry.Registry
		err error
	)
	if path != "" {
		reg, err = registry.LoadFile(path)
	} else {
		reg, err = registry.Default()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, ExitGeneralError
	}
	return reg, ExitSuccess
}

// newLogger maps the verbosity flags to a diagnostic sink: -v logs response
// audits, -vv adds header details, neither disables diagnostics entirely.
func newLogger(verbose, veryVerbose bool) *slog.Logger {
	if !verbose && !veryVerbose {
		return nil
	}
	level := slog.LevelInfo
	if veryVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func engineOptions(cfg config.Config, logger *slog.Logger) engine.Options {
	opts := engine.Options{
		BaseURL:      cfg.BaseURL,
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.Timeout,
		ChunkSize:    cfg.ChunkSize,
		PauseSpread:  cfg.PauseSpread,
		PauseCeiling: cfg.PauseCeiling,
		Logger:       logger,
	}
	if cfg.RequestsPerSecond > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return opts
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[snbfetch] Received interrupt, shutting down...")
		cancel()
	}()

	return ctx, cancel
}
