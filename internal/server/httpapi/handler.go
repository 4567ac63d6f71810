// Package httpapi serves the photo diary over HTTP: the HTML page, the add
// and delete forms, a JSON snapshot, and a Server-Sent Events stream.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/photodiary/internal/gallery"
	"github.com/dmitrijs2005/photodiary/internal/logging"
	"github.com/dmitrijs2005/photodiary/internal/models"
	"github.com/dmitrijs2005/photodiary/internal/view"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Gallery is the controller surface the handlers use.
// *gallery.Controller implements it.
type Gallery interface {
	State() gallery.State
	Err() error
	Find(id string) (models.MemoryRecord, bool)
	Watch() (<-chan struct{}, func())
	Add(ctx context.Context, image []byte, filename, caption string) (string, error)
	Delete(ctx context.Context, r models.MemoryRecord) error
}

// BlobSource serves image bytes when the store keeps them in process.
type BlobSource interface {
	Blob(path string) ([]byte, time.Time, bool)
}

const (
	streamPath  = "/api/memories/stream"
	galleryPath = "/gallery"
)

type Handler struct {
	Router chi.Router

	gallery Gallery
	view    *view.Renderer
	blobs   BlobSource
	logger  logging.Logger
}

// NewHandler builds the router. blobs may be nil, in which case /blobs/ is
// not served.
func NewHandler(g Gallery, v *view.Renderer, blobs BlobSource, logger logging.Logger) *Handler {
	h := &Handler{
		gallery: g,
		view:    v,
		blobs:   blobs,
		logger:  logger.With("module", "http"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(withLogging(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", h.Page)
	r.Get(galleryPath, h.GalleryFragment)
	r.Post("/memories", h.AddMemory)
	r.Post("/memories/{id}/delete", h.DeleteMemory)

	r.Get("/api/memories", h.Snapshot)
	r.Get(streamPath, h.Stream)
	r.Get("/healthz", h.Health)

	if blobs != nil {
		r.Get("/blobs/*", h.Blob)
	}

	h.Router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Router.ServeHTTP(w, r)
}
