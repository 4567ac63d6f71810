package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/photodiary/internal/common"
	"github.com/dmitrijs2005/photodiary/internal/gallery"
	"github.com/dmitrijs2005/photodiary/internal/logging"
	"github.com/dmitrijs2005/photodiary/internal/models"
	"github.com/dmitrijs2005/photodiary/internal/blobstore"
	"github.com/dmitrijs2005/photodiary/internal/livequery"
	"github.com/google/uuid"
)

type memBlob struct {
	data     []byte
	modified time.Time
}

// Memory is an in-process store for development and tests. Blob URLs point
// at BlobPrefix under baseURL and are served by the HTTP API.
type Memory struct {
	baseURL string
	now     func() time.Time
	hub     *livequery.Hub

	mu    sync.RWMutex
	docs  []models.Document
	blobs map[string]memBlob
}

// BlobPrefix is the URL path under which Memory blobs are served.
const BlobPrefix = "/blobs/"

type MemoryOption func(*Memory)

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func NewMemory(baseURL string, logger logging.Logger, opts ...MemoryOption) *Memory {
	m := &Memory{
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		blobs:   make(map[string]memBlob),
	}
	for _, o := range opts {
		o(m)
	}
	m.hub = livequery.NewHub(m.list, 0, logger)
	return m
}

func (m *Memory) list(context.Context) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.docs), nil
}

func (m *Memory) SubscribeOrdered(ctx context.Context, q gallery.Query, onSnapshot func(gallery.Snapshot), onError func(error)) (func(), error) {
	if err := checkQuery(q); err != nil {
		return nil, err
	}
	cancel := m.hub.Subscribe(ctx, func(docs []models.Document) {
		onSnapshot(gallery.Snapshot(docs))
	}, onError)
	return cancel, nil
}

func (m *Memory) CreateDocument(ctx context.Context, collection string, fields models.NewDocument) (string, error) {
	if err := checkCollection(collection); err != nil {
		return "", err
	}

	d := models.Document{
		ID:          uuid.NewString(),
		ImageURL:    fields.ImageURL,
		Caption:     fields.Caption,
		StoragePath: fields.StoragePath,
		Date:        m.now().UTC(),
	}

	m.mu.Lock()
	m.docs = append([]models.Document{d}, m.docs...)
	slices.SortStableFunc(m.docs, func(a, b models.Document) int {
		return b.Date.Compare(a.Date)
	})
	m.mu.Unlock()

	m.hub.Notify()
	return d.ID, nil
}

func (m *Memory) DeleteDocument(ctx context.Context, collection, id string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}

	m.mu.Lock()
	i := slices.IndexFunc(m.docs, func(d models.Document) bool { return d.ID == id })
	if i < 0 {
		m.mu.Unlock()
		return fmt.Errorf("memory %s: %w", id, common.ErrNotFound)
	}
	m.docs = slices.Delete(m.docs, i, i+1)
	m.mu.Unlock()

	m.hub.Notify()
	return nil
}

func (m *Memory) UploadBlob(ctx context.Context, path string, data []byte) (gallery.UploadHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[path]; ok {
		return gallery.UploadHandle{}, fmt.Errorf("blob %s: %w", path, common.ErrAlreadyExists)
	}
	m.blobs[path] = memBlob{data: slices.Clone(data), modified: m.now().UTC()}
	return gallery.UploadHandle{Path: path}, nil
}

func (m *Memory) ResolveURL(ctx context.Context, h gallery.UploadHandle) (string, error) {
	m.mu.RLock()
	_, ok := m.blobs[h.Path]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("blob %s: %w", h.Path, common.ErrNotFound)
	}
	return m.baseURL + BlobPrefix + h.Path, nil
}

func (m *Memory) DeleteBlob(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[path]; !ok {
		return fmt.Errorf("blob %s: %w", path, common.ErrNotFound)
	}
	delete(m.blobs, path)
	return nil
}

// Blob returns the stored bytes for path.
func (m *Memory) Blob(path string) ([]byte, time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[path]
	return b.data, b.modified, ok
}

func (m *Memory) ListBlobs(ctx context.Context, prefix string) ([]blobstore.Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []blobstore.Blob
	for k, b := range m.blobs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, blobstore.Blob{Key: k, Size: int64(len(b.data)), LastModified: b.modified})
		}
	}
	slices.SortFunc(out, func(a, b blobstore.Blob) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

func (m *Memory) StoragePaths(ctx context.Context) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]struct{}, len(m.docs))
	for _, d := range m.docs {
		out[d.StoragePath] = struct{}{}
	}
	return out, nil
}
