// Package cleanup removes images that no memory refers to, such as blobs
// left behind by an add whose document write failed.
package cleanup

import (
	"context"
	"time"

	"github.com/dmitrijs2005/photodiary/internal/logging"
	"github.com/dmitrijs2005/photodiary/internal/blobstore"
)

// Prefix is the key prefix under which images are stored.
const Prefix = "images/"

type Source interface {
	ListBlobs(ctx context.Context, prefix string) ([]blobstore.Blob, error)
	StoragePaths(ctx context.Context) (map[string]struct{}, error)
	DeleteBlob(ctx context.Context, path string) error
}

type Sweeper struct {
	src      Source
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
	logger   logging.Logger
}

func NewSweeper(src Source, interval, grace time.Duration, logger logging.Logger) *Sweeper {
	return &Sweeper{
		src:      src,
		interval: interval,
		grace:    grace,
		now:      time.Now,
		logger:   logger.With("module", "cleanup"),
	}
}

// Run sweeps every interval until ctx is done. A zero interval disables it.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info(ctx, "orphan cleanup disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error(ctx, "cleanup error", "error", err)
			}
		}
	}
}

// Sweep deletes unreferenced blobs older than the grace period and returns
// how many were deleted. A failed delete is logged and the sweep goes on.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	blobs, err := s.src.ListBlobs(ctx, Prefix)
	if err != nil {
		return 0, err
	}
	used, err := s.src.StoragePaths(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.grace)
	deleted := 0
	for _, b := range blobs {
		if _, ok := used[b.Key]; ok {
			continue
		}
		if b.LastModified.After(cutoff) {
			continue
		}
		if err := s.src.DeleteBlob(ctx, b.Key); err != nil {
			s.logger.Warn(ctx, "orphan delete failed", "path", b.Key, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info(ctx, "orphans removed", "count", deleted)
	}
	return deleted, nil
}
