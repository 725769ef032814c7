package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

var (
	ErrNotFound   = errors.New("document not found")
	ErrBadLocator = errors.New("invalid document locator")
)

// Store persists generated documents and hands back a locator that Open understands.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
}

// LocalStore writes under Dir. Locators are slash-separated paths relative to Dir.
type LocalStore struct {
	Dir string
}

func NewLocalStore(dir string) *LocalStore { return &LocalStore{Dir: dir} }

// clean rejects traversal (raw, encoded, absolute) and returns the OS path under Dir.
func (s *LocalStore) clean(rel string) (string, error) {
	lower := strings.ToLower(rel)
	if rel == "" || strings.Contains(lower, "..") || strings.Contains(lower, "%2e") || strings.Contains(lower, "\x00") {
		return "", ErrBadLocator
	}
	c := filepath.Clean(filepath.FromSlash(rel))
	if c == "." || filepath.IsAbs(c) || strings.HasPrefix(c, string(filepath.Separator)) {
		return "", ErrBadLocator
	}
	return filepath.Join(s.Dir, c), nil
}

func (s *LocalStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	full, err := s.clean(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Clean(filepath.FromSlash(key))), nil
}

func (s *LocalStore) Open(_ context.Context, locator string) (io.ReadCloser, error) {
	full, err := s.clean(locator)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// GCSStore keeps documents in a Cloud Storage bucket. Locators are gs://bucket/key.
type GCSStore struct {
	Client *storage.Client
	Bucket string
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{Client: client, Bucket: strings.TrimSpace(bucket)}
}

func (s *GCSStore) bucket() (*storage.BucketHandle, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("gcs store: storage client is nil")
	}
	if s.Bucket == "" {
		return nil, errors.New("gcs store: bucket is empty")
	}
	return s.Client.Bucket(s.Bucket), nil
}

func (s *GCSStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	bh, err := s.bucket()
	if err != nil {
		return "", err
	}
	w := bh.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close %s: %w", key, err)
	}
	return "gs://" + s.Bucket + "/" + key, nil
}

func (s *GCSStore) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	bh, err := s.bucket()
	if err != nil {
		return nil, err
	}
	key, ok := strings.CutPrefix(locator, "gs://"+s.Bucket+"/")
	if !ok || key == "" {
		return nil, ErrBadLocator
	}
	r, err := bh.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	return r, err
}
