package outbox

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"
	"sync"

	"lead_automation_backend/internal/adapters/storage"
)

// MinIOStore keeps artifacts as objects in a single bucket, keyed
// <kind>/<name>.
type MinIOStore struct {
	svc    storage.StorageService
	bucket string
	// appendMu serializes the read-modify-write that emulates append.
	appendMu sync.Mutex
}

// NewMinIOStore ensures the bucket exists and returns the store.
func NewMinIOStore(ctx context.Context, svc storage.StorageService, bucket string) (*MinIOStore, error) {
	if err := svc.EnsureBucketExists(ctx, bucket); err != nil {
		return nil, err
	}
	return &MinIOStore{svc: svc, bucket: bucket}, nil
}

// Create uploads body when key is free.
func (m *MinIOStore) Create(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if err := m.svc.ValidateContentType(contentType); err != nil {
		return "", err
	}
	if err := m.svc.ValidateFileSize(int64(len(body))); err != nil {
		return "", err
	}
	_, err := m.svc.StatObject(ctx, m.bucket, key)
	if err == nil {
		return "", ErrExists
	}
	if !errors.Is(err, storage.ErrObjectNotFound) {
		return "", err
	}
	if err := m.svc.PutObject(ctx, m.bucket, key, contentType, body); err != nil {
		return "", err
	}
	return m.location(key), nil
}

// Append rewrites the object with line added at the end.
func (m *MinIOStore) Append(ctx context.Context, key string, line []byte) error {
	m.appendMu.Lock()
	defer m.appendMu.Unlock()

	existing, err := m.svc.GetObject(ctx, m.bucket, key)
	if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return err
	}
	body := make([]byte, 0, len(existing)+len(line))
	body = append(body, existing...)
	body = append(body, line...)
	return m.svc.PutObject(ctx, m.bucket, key, "text/plain", body)
}

// List returns the objects directly below prefix, sorted by name.
func (m *MinIOStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	objects, err := m.svc.ListObjects(ctx, m.bucket, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(objects))
	for _, obj := range objects {
		rest := strings.TrimPrefix(obj.Key, prefix)
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}
		out = append(out, Entry{
			Name:       path.Base(obj.Key),
			Location:   m.location(obj.Key),
			Size:       obj.Size,
			ModifiedAt: obj.LastModified,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Read downloads the object.
func (m *MinIOStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := m.svc.GetObject(ctx, m.bucket, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

func (m *MinIOStore) location(key string) string {
	return "minio://" + m.bucket + "/" + key
}
