package gallery

import (
	"context"

	"github.com/dmitrijs2005/photodiary/internal/models"
)

// Query selects an ordered live view of a collection.
type Query struct {
	Collection string
	OrderField string
	Direction  string
}

// MemoriesQuery is the subscription the controller opens.
var MemoriesQuery = Query{Collection: models.Collection, OrderField: "date", Direction: "desc"}

// Snapshot is the full ordered result set of a live query.
type Snapshot []models.Document

// UploadHandle identifies an uploaded blob.
type UploadHandle struct {
	Path string
}

// RemoteStore is the document database plus blob store the controller
// delegates persistence to.
type RemoteStore interface {
	// SubscribeOrdered pushes the full ordered result set on every change,
	// the initial load included, until cancel is called. onError is called
	// at most once and ends the subscription.
	SubscribeOrdered(ctx context.Context, q Query, onSnapshot func(Snapshot), onError func(error)) (cancel func(), err error)

	// CreateDocument stores fields with a server-assigned date and returns the new id.
	CreateDocument(ctx context.Context, collection string, fields models.NewDocument) (string, error)
	DeleteDocument(ctx context.Context, collection, id string) error

	UploadBlob(ctx context.Context, path string, data []byte) (UploadHandle, error)
	ResolveURL(ctx context.Context, h UploadHandle) (string, error)
	DeleteBlob(ctx context.Context, path string) error
}
