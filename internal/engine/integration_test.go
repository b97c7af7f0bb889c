//go:build integration

package engine_test

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/snbtools/snbfetch/internal/engine"
	"github.com/snbtools/snbfetch/internal/testutil"
)

func TestEngineIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cubes := map[string][]byte{
		"rentm":  testutil.CubePayload(100),
		"zimoma": testutil.CubePayload(10),
	}

	t.Log("Starting cube server container...")
	server := testutil.StartCubeServer(t, ctx, cubes)
	defer func() {
		if err := server.Close(ctx); err != nil {
			t.Logf("failed to terminate cube server: %v", err)
		}
	}()

	eng := engine.New(engine.Options{
		BaseURL: server.BaseURL,
		// Keep the politeness pause short for the test.
		PauseSpread:  10 * time.Millisecond,
		PauseCeiling: 10 * time.Millisecond,
	})
	if err := eng.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer eng.Close()

	t.Run("fetch to file", func(t *testing.T) {
		path, err := eng.FetchToFile(ctx, "rentm", "", t.TempDir(), nil)
		if err != nil {
			t.Fatalf("FetchToFile: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read downloaded file: %v", err)
		}
		if !bytes.Equal(data, cubes["rentm"]) {
			t.Error("downloaded content does not match the served payload")
		}
	})

	t.Run("fetch many", func(t *testing.T) {
		paths, err := eng.FetchManyToFiles(ctx, []string{"rentm", "zimoma"}, "", t.TempDir(), nil)
		if err != nil {
			t.Fatalf("FetchManyToFiles: %v", err)
		}
		if len(paths) != 2 {
			t.Fatalf("expected 2 paths, got %d", len(paths))
		}
	})

	t.Run("fetch to table", func(t *testing.T) {
		tbl, err := eng.FetchToTable(ctx, "rentm", "", nil)
		if err != nil {
			t.Fatalf("FetchToTable: %v", err)
		}
		if tbl.NumRows() != 100 {
			t.Errorf("expected 100 rows, got %d", tbl.NumRows())
		}
		if len(tbl.Columns) != 3 || tbl.Columns[0] != "Date" {
			t.Errorf("unexpected columns: %v", tbl.Columns)
		}
	})

	t.Run("missing cube", func(t *testing.T) {
		if _, err := eng.FetchToFile(ctx, "nosuchcube", "", t.TempDir(), nil); err == nil {
			t.Error("expected an error for a cube the server does not have")
		}
	})
}
