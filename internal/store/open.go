package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/photodiary/internal/logging"
	"github.com/dmitrijs2005/photodiary/internal/blobstore"
	"github.com/dmitrijs2005/photodiary/internal/repositories/repomanager"
)

// RemoteConfig is what OpenRemote needs to reach PostgreSQL and S3.
type RemoteConfig struct {
	DatabaseDSN  string
	S3           blobstore.Options
	PollInterval time.Duration
}

// OpenRemote connects to the database, applies migrations and builds the
// S3 client. The returned *sql.DB must be closed by the caller.
func OpenRemote(ctx context.Context, c RemoteConfig, logger logging.Logger) (*Remote, *sql.DB, error) {
	rm := repomanager.NewPostgresRepositoryManager()

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	blobs, err := blobstore.NewS3Store(ctx, c.S3)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return NewRemote(db, rm, blobs, c.PollInterval, logger), db, nil
}
