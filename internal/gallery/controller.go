package gallery

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/photodiary/internal/logging"
	"github.com/dmitrijs2005/photodiary/internal/models"
)

// State is a copy of the controller's view state.
type State struct {
	Records   []models.MemoryRecord `json:"records"`
	Loading   bool                  `json:"loading"`
	LoadError string                `json:"error,omitempty"`
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithPathFunc(fn PathFunc) Option {
	return func(c *Controller) { c.pathFn = fn }
}

func WithUniquePaths(unique bool) Option {
	return func(c *Controller) {
		if unique {
			c.pathFn = UniqueStoragePath
		}
	}
}

type Controller struct {
	store  RemoteStore
	logger logging.Logger
	now    func() time.Time
	pathFn PathFunc

	mu        sync.RWMutex
	records   []models.MemoryRecord
	loading   bool
	loadError string
	subErr    error
	started   bool
	closed    bool
	cancel    func()

	closeOnce sync.Once

	watchMu  sync.Mutex
	watchers map[int]chan struct{}
	nextID   int
}

func New(store RemoteStore, logger logging.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		logger:   logger.With("module", "gallery"),
		now:      time.Now,
		pathFn:   StoragePath,
		loading:  true,
		watchers: make(map[int]chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start opens the live subscription. It may be called once.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	cancel, err := c.store.SubscribeOrdered(ctx, MemoriesQuery, c.applySnapshot, c.applyError)
	if err != nil {
		c.applyError(err)
		return &OpError{Kind: ErrSubscription, Err: err}
	}

	c.mu.Lock()
	closed := c.closed
	if !closed {
		c.cancel = cancel
	}
	c.mu.Unlock()

	if closed && cancel != nil {
		cancel()
	}

	c.logger.Info(ctx, "subscribed", "collection", MemoriesQuery.Collection, "order", MemoriesQuery.OrderField+" "+MemoriesQuery.Direction)
	return nil
}

// Close cancels the subscription. Calls after the first are no-ops.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		cancel := c.cancel
		c.cancel = nil
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
	})
}

func (c *Controller) applySnapshot(snap Snapshot) {
	records := make([]models.MemoryRecord, 0, len(snap))
	for _, d := range snap {
		if err := d.Validate(); err != nil {
			c.logger.Warn(context.Background(), "skipping document", "error", err)
			continue
		}
		records = append(records, d.Record())
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.records = records
	c.loading = false
	c.mu.Unlock()

	c.notify()
}

func (c *Controller) applyError(err error) {
	c.logger.Error(context.Background(), "subscription failed", "error", err)

	c.mu.Lock()
	c.subErr = err
	c.loadError = LoadErrorMessage
	c.loading = false
	c.mu.Unlock()

	c.notify()
}

// State returns a copy of the current records, loading flag and error message.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := make([]models.MemoryRecord, len(c.records))
	copy(records, c.records)
	return State{Records: records, Loading: c.loading, LoadError: c.loadError}
}

// Err returns the subscription error, if any.
func (c *Controller) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.subErr == nil {
		return nil
	}
	return &OpError{Kind: ErrSubscription, Err: c.subErr}
}

// Find looks a record up by id in the current records.
func (c *Controller) Find(id string) (models.MemoryRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.records {
		if r.ID == id {
			return r, true
		}
	}
	return models.MemoryRecord{}, false
}

// Watch returns a channel that receives a value after every state change,
// coalescing bursts, and a function that stops the watch.
func (c *Controller) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	c.watchMu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = ch
	c.watchMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.watchMu.Lock()
			delete(c.watchers, id)
			c.watchMu.Unlock()
		})
	}
}

func (c *Controller) notify() {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	for _, ch := range c.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Add uploads the image, resolves its URL and writes the document. Any
// failure stops the sequence. The new record is not added locally; it shows
// up with the next snapshot. Add returns the blob path used.
func (c *Controller) Add(ctx context.Context, image []byte, filename, caption string) (string, error) {
	path := c.pathFn(c.now(), filename)

	handle, err := c.store.UploadBlob(ctx, path, image)
	if err != nil {
		return "", &OpError{Kind: ErrUpload, Path: path, Err: err}
	}

	url, err := c.store.ResolveURL(ctx, handle)
	if err != nil {
		c.logger.Warn(ctx, "blob left without document", "path", handle.Path, "error", err)
		return "", &OpError{Kind: ErrURLResolution, Path: handle.Path, Err: err}
	}

	id, err := c.store.CreateDocument(ctx, models.Collection, models.NewDocument{
		ImageURL:    url,
		Caption:     caption,
		StoragePath: handle.Path,
	})
	if err != nil {
		c.logger.Warn(ctx, "blob left without document", "path", handle.Path, "error", err)
		return "", &OpError{Kind: ErrDocumentWrite, Path: handle.Path, Err: err}
	}

	c.logger.Info(ctx, "memory added", "id", id, "path", handle.Path, "bytes", len(image))
	return handle.Path, nil
}

// Delete removes the document and then its blob. A record without an id is
// ignored. A failed blob delete is logged and not returned.
func (c *Controller) Delete(ctx context.Context, r models.MemoryRecord) error {
	if !r.HasID() {
		return nil
	}

	if err := c.store.DeleteDocument(ctx, models.Collection, r.ID); err != nil {
		return &OpError{Kind: ErrDocumentDelete, ID: r.ID, Err: err}
	}

	if r.StoragePath == "" {
		c.logger.Warn(ctx, "memory without storage path", "id", r.ID)
		return nil
	}

	if err := c.store.DeleteBlob(ctx, r.StoragePath); err != nil {
		c.logger.Warn(ctx, "blob delete failed", "error", &OpError{Kind: ErrBlobDelete, Path: r.StoragePath, Err: err})
		return nil
	}

	c.logger.Info(ctx, "memory deleted", "id", r.ID, "path", r.StoragePath)
	return nil
}
