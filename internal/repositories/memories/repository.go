// Package memories stores memory documents in PostgreSQL.
package memories

import (
	"context"

	"github.com/dmitrijs2005/photodiary/internal/models"
)

type Repository interface {
	// Create inserts a memory; the database assigns id and date.
	Create(ctx context.Context, d models.NewDocument) (models.Document, error)
	Delete(ctx context.Context, id string) error
	// ListOrdered returns every memory, newest first.
	ListOrdered(ctx context.Context) ([]models.Document, error)
	// StoragePaths returns the blob path of every memory.
	StoragePaths(ctx context.Context) (map[string]struct{}, error)
}
