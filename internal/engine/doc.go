// Package engine downloads SNB data cubes over a single scoped HTTP session.
//
// An Engine moves through three states: unopened, open, closed. Open creates
// the HTTP client and installs the default headers; Close releases the
// connections and is idempotent. Every fetch operation requires the open
// state and fails with ErrInvalidState otherwise. The engine is single-owner:
// it must not be shared across goroutines or overlapping scopes.
//
// # Usage
//
//	eng := engine.New(engine.DefaultOptions())
//	if err := eng.Open(); err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	path, err := eng.FetchToFile(ctx, "rentm", "", "data/raw", nil)
//
// # Sequencing
//
// FetchManyToFiles downloads strictly sequentially and sleeps a randomized
// pause between consecutive downloads to avoid hammering the portal. There
// is no retry and no parallelism; a failure aborts the remaining sequence.
//
// # Diagnostics
//
// With a logger set, every response emits an audit: URL, status, content
// type and size at Info, server/date/disposition headers and cookie names at
// Debug. Diagnostics are a side effect only and never change behavior.
package engine
