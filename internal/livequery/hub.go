// Package livequery turns a "load everything" query into a push
// subscription. Each subscription reloads on a local change signal or a poll
// tick and delivers the full result set whenever it differs from the last one
// delivered.
package livequery

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/photodiary/internal/logging"
	"github.com/dmitrijs2005/photodiary/internal/models"
	"golang.org/x/crypto/blake2b"
)

// Loader returns the full ordered result set.
type Loader func(ctx context.Context) ([]models.Document, error)

type Hub struct {
	load     Loader
	interval time.Duration
	logger   logging.Logger

	mu     sync.Mutex
	wakers map[int]chan struct{}
	nextID int
}

// NewHub creates a hub that polls every interval. A non-positive interval
// disables polling; only Notify triggers reloads then.
func NewHub(load Loader, interval time.Duration, logger logging.Logger) *Hub {
	return &Hub{
		load:     load,
		interval: interval,
		logger:   logger.With("module", "livequery"),
		wakers:   make(map[int]chan struct{}),
	}
}

// Notify wakes every subscription. It never blocks; wakes that arrive while
// a reload is pending are merged.
func (h *Hub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.wakers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe starts delivering snapshots. The first snapshot is delivered as
// soon as the initial load completes. A load error is passed to onError once
// and ends the subscription.
//
// The returned cancel stops the subscription and waits until no callback is
// running. It is safe to call more than once but must not be called from
// inside a callback.
func (h *Hub) Subscribe(ctx context.Context, onSnapshot func([]models.Document), onError func(error)) func() {
	ctx, stop := context.WithCancel(ctx)
	wake := make(chan struct{}, 1)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.wakers[id] = wake
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.run(ctx, wake, onSnapshot, onError)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			h.mu.Lock()
			delete(h.wakers, id)
			h.mu.Unlock()
			<-done
		})
	}
}

func (h *Hub) run(ctx context.Context, wake <-chan struct{}, onSnapshot func([]models.Document), onError func(error)) {
	var tick <-chan time.Time
	if h.interval > 0 {
		t := time.NewTicker(h.interval)
		defer t.Stop()
		tick = t.C
	}

	var last string
	for first := true; ; first = false {
		if !first {
			select {
			case <-ctx.Done():
				return
			case <-wake:
			case <-tick:
			}
		}

		docs, err := h.load(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			h.logger.Error(ctx, "load failed", "error", err)
			onError(err)
			return
		}

		fp, err := Fingerprint(docs)
		if err != nil {
			onError(err)
			return
		}
		if !first && fp == last {
			continue
		}
		last = fp

		h.logger.Debug(ctx, "snapshot", "documents", len(docs), "fingerprint", fp[:12])
		onSnapshot(docs)
	}
}

// Fingerprint hashes the JSON encoding of v with BLAKE2b-256.
func Fingerprint(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
