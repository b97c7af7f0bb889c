package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	defer bucket.Close()

	p := writeFixture(t, t.TempDir(), "rentm_all.csv", "Date;Value\n2024-01-01;1\n")

	n, err := Store(ctx, bucket, "cubes/rentm_all.csv", p)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if n != int64(len("Date;Value\n2024-01-01;1\n")) {
		t.Errorf("unexpected byte count: %d", n)
	}

	data, err := bucket.ReadAll(ctx, "cubes/rentm_all.csv")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "Date;Value\n2024-01-01;1\n" {
		t.Errorf("stored content mismatch: %q", data)
	}

	attrs, err := bucket.Attributes(ctx, "cubes/rentm_all.csv")
	if err != nil {
		t.Fatalf("attributes: %v", err)
	}
	if attrs.ContentType != "text/csv" {
		t.Errorf("expected content type text/csv, got %q", attrs.ContentType)
	}
}

func TestStoreMissingFile(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	defer bucket.Close()

	if _, err := Store(ctx, bucket, "cubes/gone.csv", filepath.Join(t.TempDir(), "gone.csv")); err == nil {
		t.Fatal("expected error for a missing local file")
	}
}

func TestStoreAll(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	defer bucket.Close()

	dir := t.TempDir()
	paths := []string{
		writeFixture(t, dir, "rentm_all.csv", "a\n"),
		writeFixture(t, dir, "zimoma_all.csv", "b\n"),
	}

	keys, err := StoreAll(ctx, bucket, "2025-08", paths)
	if err != nil {
		t.Fatalf("StoreAll: %v", err)
	}
	want := []string{"2025-08/rentm_all.csv", "2025-08/zimoma_all.csv"}
	if len(keys) != 2 || keys[0] != want[0] || keys[1] != want[1] {
		t.Errorf("expected keys %v, got %v", want, keys)
	}
}

func TestStoreAllAbortsOnFailure(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	defer bucket.Close()

	dir := t.TempDir()
	paths := []string{
		writeFixture(t, dir, "rentm_all.csv", "a\n"),
		filepath.Join(dir, "missing.csv"),
		writeFixture(t, dir, "devkum_all.csv", "c\n"),
	}

	keys, err := StoreAll(ctx, bucket, "", paths)
	if err == nil {
		t.Fatal("expected error for the missing file")
	}
	if len(keys) != 1 || keys[0] != "rentm_all.csv" {
		t.Errorf("expected only the key written before the failure, got %v", keys)
	}
	// The third file must not have been archived.
	if ok, _ := bucket.Exists(ctx, "devkum_all.csv"); ok {
		t.Error("expected the sequence to abort before the third file")
	}
}
