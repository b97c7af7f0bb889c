//go:build integration

// Package testutil provides shared test infrastructure for integration tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// CubeServer is a containerized static file server laid out like the SNB
// cube endpoint: one payload per cube at /{id}/data/csv/en.
type CubeServer struct {
	Container testcontainers.Container
	BaseURL   string
}

// Close terminates the server container.
func (s *CubeServer) Close(ctx context.Context) error {
	if s.Container != nil {
		return s.Container.Terminate(ctx)
	}
	return nil
}

// StartCubeServer starts an nginx container serving the given cube payloads.
func StartCubeServer(t *testing.T, ctx context.Context, cubes map[string][]byte) *CubeServer {
	t.Helper()

	var files []testcontainers.ContainerFile
	for id, data := range cubes {
		files = append(files, testcontainers.ContainerFile{
			Reader:            bytes.NewReader(data),
			ContainerFilePath: path.Join("/usr/share/nginx/html", id, "data", "csv", "en"),
			FileMode:          0o644,
		})
	}

	req := testcontainers.ContainerRequest{
		Image:        "nginx:1.27-alpine",
		ExposedPorts: []string{"80/tcp"},
		Files:        files,
		WaitingFor:   wait.ForListeningPort("80/tcp"),
	}

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start cube server container: %v", err)
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatalf("get container host: %v", err)
	}
	port, err := ctr.MappedPort(ctx, "80")
	if err != nil {
		t.Fatalf("get container port: %v", err)
	}

	return &CubeServer{
		Container: ctr,
		BaseURL:   fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
}

// CubePayload renders a cube CSV the way the portal does: two metadata rows,
// a header, then n data rows.
func CubePayload(n int) []byte {
	var b bytes.Buffer
	b.WriteString("SNB data portal;;\n")
	b.WriteString("Retrieved 2025-08-31;;\n")
	b.WriteString("Date;D0;Value\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "2024-%02d-01;CHF;%d.5\n", i%12+1, i)
	}
	return b.Bytes()
}
