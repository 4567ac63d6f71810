// Package store provides the gallery.RemoteStore implementations used by the
// server and the CLI.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/photodiary/internal/common"
	"github.com/dmitrijs2005/photodiary/internal/dbx"
	"github.com/dmitrijs2005/photodiary/internal/gallery"
	"github.com/dmitrijs2005/photodiary/internal/logging"
	"github.com/dmitrijs2005/photodiary/internal/models"
	"github.com/dmitrijs2005/photodiary/internal/blobstore"
	"github.com/dmitrijs2005/photodiary/internal/livequery"
	"github.com/dmitrijs2005/photodiary/internal/repositories/repomanager"
)

// DB is satisfied by *sql.DB.
type DB interface {
	dbx.DBTX
	dbx.TxBeginner
}

// Blobs is the object storage used by Remote. *blobstore.S3Store implements it.
type Blobs interface {
	Put(ctx context.Context, key string, data []byte) error
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]blobstore.Blob, error)
}

// Remote keeps documents in PostgreSQL and images in S3.
type Remote struct {
	db     DB
	repos  repomanager.RepositoryManager
	blobs  Blobs
	hub    *livequery.Hub
	logger logging.Logger
}

func NewRemote(db DB, repos repomanager.RepositoryManager, blobs Blobs, pollInterval time.Duration, logger logging.Logger) *Remote {
	r := &Remote{
		db:     db,
		repos:  repos,
		blobs:  blobs,
		logger: logger.With("module", "remote_store"),
	}
	r.hub = livequery.NewHub(func(ctx context.Context) ([]models.Document, error) {
		return r.repos.Memories(r.db).ListOrdered(ctx)
	}, pollInterval, logger)
	return r
}

func checkCollection(collection string) error {
	if collection != models.Collection {
		return fmt.Errorf("%w: %q", common.ErrUnknownCollection, collection)
	}
	return nil
}

func checkQuery(q gallery.Query) error {
	if err := checkCollection(q.Collection); err != nil {
		return err
	}
	if q.OrderField != "date" || q.Direction != "desc" {
		return fmt.Errorf("unsupported order %s %s", q.OrderField, q.Direction)
	}
	return nil
}

func (r *Remote) SubscribeOrdered(ctx context.Context, q gallery.Query, onSnapshot func(gallery.Snapshot), onError func(error)) (func(), error) {
	if err := checkQuery(q); err != nil {
		return nil, err
	}
	cancel := r.hub.Subscribe(ctx, func(docs []models.Document) {
		onSnapshot(gallery.Snapshot(docs))
	}, onError)
	return cancel, nil
}

func (r *Remote) CreateDocument(ctx context.Context, collection string, fields models.NewDocument) (string, error) {
	if err := checkCollection(collection); err != nil {
		return "", err
	}

	var id string
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		d, err := r.repos.Memories(tx).Create(ctx, fields)
		if err != nil {
			return err
		}
		id = d.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	r.hub.Notify()
	return id, nil
}

func (r *Remote) DeleteDocument(ctx context.Context, collection, id string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if err := r.repos.Memories(r.db).Delete(ctx, id); err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

func (r *Remote) UploadBlob(ctx context.Context, path string, data []byte) (gallery.UploadHandle, error) {
	if err := r.blobs.Put(ctx, path, data); err != nil {
		return gallery.UploadHandle{}, err
	}
	return gallery.UploadHandle{Path: path}, nil
}

func (r *Remote) ResolveURL(ctx context.Context, h gallery.UploadHandle) (string, error) {
	return r.blobs.URL(ctx, h.Path)
}

func (r *Remote) DeleteBlob(ctx context.Context, path string) error {
	return r.blobs.Delete(ctx, path)
}

// ListBlobs lists stored images under prefix.
func (r *Remote) ListBlobs(ctx context.Context, prefix string) ([]blobstore.Blob, error) {
	return r.blobs.List(ctx, prefix)
}

// StoragePaths returns the blob path of every document.
func (r *Remote) StoragePaths(ctx context.Context) (map[string]struct{}, error) {
	return r.repos.Memories(r.db).StoragePaths(ctx)
}
