package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/snbtools/snbfetch/internal/table"
)

// Common errors.
var (
	ErrInvalidState = errors.New("engine: invalid session state")
	ErrNotFound     = errors.New("engine: cube not found")
	ErrForbidden    = errors.New("engine: access forbidden")
	ErrServerError  = errors.New("engine: server error")
)

// MetadataRows is the number of metadata rows the SNB API emits before the
// header row of a CSV export.
const MetadataRows = 2

// DefaultBaseURL is the SNB cube endpoint.
const DefaultBaseURL = "https://data.snb.ch/api/cube"

// Options configures the fetch engine.
type Options struct {
	// BaseURL is the cube API endpoint.
	// Default: DefaultBaseURL
	BaseURL string

	// UserAgent identifies this client to the SNB portal.
	// Default: "snbfetch/" + version
	UserAgent string

	// Timeout for individual requests. Zero means wait indefinitely,
	// matching the portal's behavior for large exports.
	Timeout time.Duration

	// ChunkSize is the buffer size for streaming writes to disk.
	// Default: 8 KiB
	ChunkSize int

	// PauseSpread is the upper bound of the uniform distribution the
	// inter-download pause is drawn from.
	// Default: 5s
	PauseSpread time.Duration

	// PauseCeiling clamps the drawn pause.
	// Default: 2s
	PauseCeiling time.Duration

	// Limiter, when set, is waited on before every request. This is a
	// politeness floor on top of the randomized pause.
	Limiter *rate.Limiter

	// Logger receives response audits. Nil disables diagnostics.
	Logger *slog.Logger
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		BaseURL:      DefaultBaseURL,
		UserAgent:    "snbfetch/" + Version,
		ChunkSize:    8192,
		PauseSpread:  5 * time.Second,
		PauseCeiling: 2 * time.Second,
	}
}

// Version is the client version reported in the default User-Agent.
const Version = "1.0.0"

type sessionState int

const (
	stateUnopened sessionState = iota
	stateOpen
	stateClosed
)

// Engine downloads cubes over a single scoped HTTP session. It is not safe
// for concurrent use; one goroutine owns the engine from Open to Close.
type Engine struct {
	opts   Options
	client *http.Client
	state  sessionState

	// Test hooks.
	sleep func(context.Context, time.Duration) error
	randf func() float64
}

// New creates an engine in the unopened state. Zero fields in opts fall back
// to DefaultOptions.
func New(opts Options) *Engine {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.PauseSpread <= 0 {
		opts.PauseSpread = def.PauseSpread
	}
	if opts.PauseCeiling <= 0 {
		opts.PauseCeiling = def.PauseCeiling
	}

	return &Engine{
		opts:  opts,
		sleep: sleepContext,
		randf: rand.Float64,
	}
}

// Open starts the session: it validates the endpoint and creates the HTTP
// client with the default headers installed on every request. A failed Open
// leaves the engine unopened.
func (e *Engine) Open() error {
	if e.state != stateUnopened {
		return fmt.Errorf("%w: Open on a %s session", ErrInvalidState, e.state)
	}

	if _, err := url.Parse(e.opts.BaseURL); err != nil {
		return fmt.Errorf("engine: invalid base URL %q: %w", e.opts.BaseURL, err)
	}

	e.client = &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: e.opts.Timeout,
	}
	e.state = stateOpen

	if e.opts.Logger != nil {
		e.opts.Logger.Info("session started", "base_url", e.opts.BaseURL)
	}
	return nil
}

// Close releases the session's connections. It is idempotent: closing a
// closed or never-opened engine is a no-op.
func (e *Engine) Close() error {
	if e.state != stateOpen {
		e.state = stateClosed
		return nil
	}

	e.client.CloseIdleConnections()
	e.client = nil
	e.state = stateClosed

	if e.opts.Logger != nil {
		e.opts.Logger.Info("session closed")
	}
	return nil
}

// BuildRequest constructs the GET request for one cube without issuing it.
// The URL is {base}/{cubeID}/data/csv/en with outputFormat=nonPivoted always
// set, plus selectionConfigurations=selectionConfiguration,{selection} when a
// selection is given. Extra parameters are layered last: on a true key
// collision the extra wins, though callers are not expected to collide with
// the fixed parameters.
func (e *Engine) BuildRequest(ctx context.Context, cubeID, selection string, extra url.Values) (*http.Request, error) {
	if err := e.requireOpen("BuildRequest"); err != nil {
		return nil, err
	}

	target := strings.TrimRight(e.opts.BaseURL, "/") + "/" + cubeID + "/data/csv/en"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("engine: create request for %s: %w", cubeID, err)
	}

	params := url.Values{}
	params.Set("outputFormat", "nonPivoted")
	if selection != "" {
		params.Set("selectionConfigurations", "selectionConfiguration,"+selection)
	}
	for k, vs := range extra {
		params[k] = vs
	}
	req.URL.RawQuery = params.Encode()

	req.Header.Set("User-Agent", e.opts.UserAgent)
	req.Header.Set("Accept", "text/csv")

	return req, nil
}

// FetchToFile streams one cube to {dir}/{cubeID}_{selection or "all"}.csv,
// creating dir if needed, and returns the written path. An existing file at
// that path is overwritten without warning, and an interrupted stream can
// leave a partial file behind; both match the portal tooling this replaces.
func (e *Engine) FetchToFile(ctx context.Context, cubeID, selection, dir string, extra url.Values) (string, error) {
	if err := e.requireOpen("FetchToFile"); err != nil {
		return "", err
	}

	req, err := e.BuildRequest(ctx, cubeID, selection, extra)
	if err != nil {
		return "", err
	}

	resp, err := e.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("engine: create output directory: %w", err)
	}

	path := filepath.Join(dir, FileName(cubeID, selection))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("engine: create %s: %w", path, err)
	}

	buf := make([]byte, e.opts.ChunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				f.Close()
				return "", fmt.Errorf("engine: write %s: %w", path, werr)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			f.Close()
			return "", fmt.Errorf("engine: stream %s: %w", req.URL, rerr)
		}
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("engine: close %s: %w", path, err)
	}

	if e.opts.Logger != nil {
		e.opts.Logger.Info("cube saved", "cube", cubeID, "path", path)
	}
	return path, nil
}

// FetchManyToFiles downloads the cubes sequentially, in input order,
// preserving duplicates. A randomized pause separates consecutive downloads
// (never before the first or after the last); it is drawn uniformly from
// [0, PauseSpread) and clamped to PauseCeiling, a best-effort politeness
// delay toward the portal. The first failure aborts the remainder; the paths
// written so far are returned alongside the error.
func (e *Engine) FetchManyToFiles(ctx context.Context, cubeIDs []string, selection, dir string, extra url.Values) ([]string, error) {
	if err := e.requireOpen("FetchManyToFiles"); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(cubeIDs))
	for i, cubeID := range cubeIDs {
		if i > 0 {
			if err := e.pause(ctx); err != nil {
				return paths, err
			}
		}
		path, err := e.FetchToFile(ctx, cubeID, selection, dir, extra)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// FetchToTable downloads one cube into memory and parses it, skipping the
// metadata rows. The body is buffered in full, so this path suits
// moderate-size cubes; use FetchToFile for large exports.
func (e *Engine) FetchToTable(ctx context.Context, cubeID, selection string, extra url.Values) (*table.Table, error) {
	if err := e.requireOpen("FetchToTable"); err != nil {
		return nil, err
	}

	req, err := e.BuildRequest(ctx, cubeID, selection, extra)
	if err != nil {
		return nil, err
	}

	resp, err := e.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("engine: read %s: %w", req.URL, err)
	}

	t, err := table.Parse(bytes.NewReader(body), MetadataRows)
	if err != nil {
		return nil, fmt.Errorf("engine: parse cube %s: %w", cubeID, err)
	}

	if e.opts.Logger != nil {
		e.opts.Logger.Info("cube parsed", "cube", cubeID, "rows", t.NumRows())
	}
	return t, nil
}

// FileName derives the destination filename for a cube download. An empty
// selection maps to "all".
func FileName(cubeID, selection string) string {
	if selection == "" {
		selection = "all"
	}
	return cubeID + "_" + selection + ".csv"
}

// do issues the request through the session, applying the rate limiter and
// mapping non-success status codes to sentinel errors. The response audit is
// emitted here so every fetch path reports the same diagnostics.
func (e *Engine) do(req *http.Request) (*http.Response, error) {
	if e.opts.Limiter != nil {
		if err := e.opts.Limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine: request %s: %w", req.URL, err)
	}

	e.auditResponse(resp)

	if err := checkStatusCode(resp.StatusCode, resp.Status); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// pause sleeps the randomized inter-download delay, honoring cancellation.
func (e *Engine) pause(ctx context.Context) error {
	d := time.Duration(e.randf() * float64(e.opts.PauseSpread))
	if d > e.opts.PauseCeiling {
		d = e.opts.PauseCeiling
	}
	return e.sleep(ctx, d)
}

func (e *Engine) requireOpen(op string) error {
	switch e.state {
	case stateOpen:
		return nil
	case stateClosed:
		return fmt.Errorf("%w: %s after Close", ErrInvalidState, op)
	default:
		return fmt.Errorf("%w: %s before Open", ErrInvalidState, op)
	}
}

func (s sessionState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateClosed:
		return "closed"
	default:
		return "unopened"
	}
}

// checkStatusCode returns an appropriate error for non-success status codes.
func checkStatusCode(code int, status string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code >= 500:
		return fmt.Errorf("%w: %s", ErrServerError, status)
	default:
		return fmt.Errorf("engine: unexpected status: %s", status)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
