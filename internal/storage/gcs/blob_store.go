// Package gcs archives fetched pages in Google Cloud Storage.
package gcs

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

// Config names the bucket that holds page snapshots.
type Config struct {
	Bucket string
	// CacheControl is set on every object; empty leaves the bucket default.
	CacheControl string
}

// BlobStore uploads page snapshots to a single bucket. Text payloads are
// stored gzip-encoded so GCS can transcode them on download.
type BlobStore struct {
	client *storage.Client
	cfg    Config
}

// New creates a GCS-backed archive.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{client: client, cfg: cfg}, nil
}

// PutObject uploads one snapshot and returns its gs:// URI.
func (s *BlobStore) PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error) {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	body, encoding, err := encode(contentType, data)
	if err != nil {
		return "", err
	}

	w := s.client.Bucket(s.cfg.Bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.ContentEncoding = encoding
	w.CacheControl = s.cfg.CacheControl
	w.Metadata = map[string]string{"source": "concert-crawler"}
	// Single-request upload; snapshots are small.
	w.ChunkSize = 0

	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", path, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.cfg.Bucket, path), nil
}

// encode gzips text payloads and returns the Content-Encoding to record.
func encode(contentType string, data []byte) ([]byte, string, error) {
	if !strings.HasPrefix(contentType, "text/") {
		return data, "", nil
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, "", fmt.Errorf("gzip snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("gzip snapshot: %w", err)
	}
	return buf.Bytes(), "gzip", nil
}
