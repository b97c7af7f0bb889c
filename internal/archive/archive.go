package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"gocloud.dev/blob"
)

// Store copies one local cube file into the bucket under key and returns the
// number of bytes written.
func Store(ctx context.Context, bucket *blob.Bucket, key, localPath string) (int64, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("archive: open %s: %w", localPath, err)
	}
	defer f.Close()

	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return 0, fmt.Errorf("archive: create writer for %s: %w", key, err)
	}

	n, err := io.Copy(w, f)
	if err != nil {
		w.Close()
		return 0, fmt.Errorf("archive: copy %s: %w", localPath, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("archive: finalize %s: %w", key, err)
	}

	return n, nil
}

// StoreAll archives the files sequentially under prefix, keyed by base
// filename, and returns the keys written. The first failure aborts the
// remainder; keys written so far are returned alongside the error.
func StoreAll(ctx context.Context, bucket *blob.Bucket, prefix string, paths []string) ([]string, error) {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		key := path.Join(prefix, filepath.Base(p))
		if _, err := Store(ctx, bucket, key, p); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
