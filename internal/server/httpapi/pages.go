package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/photodiary/internal/capture"
	"github.com/dmitrijs2005/photodiary/internal/gallery"
	"github.com/dmitrijs2005/photodiary/internal/view"
	"github.com/go-chi/chi/v5"
)

// maxUploadBody bounds the whole multipart body; the image limit itself is
// enforced by the capture form.
const maxUploadBody = capture.MaxFileSize + 1<<20

const previewTimeout = 5 * time.Second

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, form capture.Snapshot, open bool) {
	var buf bytes.Buffer
	err := h.view.RenderPage(&buf, view.PageData{
		State:      h.gallery.State(),
		Form:       form,
		FormOpen:   open,
		StreamURL:  streamPath,
		GalleryURL: galleryPath,
	})
	if err != nil {
		h.logger.Error(r.Context(), "render page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, capture.Snapshot{}, false)
}

func (h *Handler) GalleryFragment(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.view.RenderGallery(&buf, h.gallery.State()); err != nil {
		h.logger.Error(r.Context(), "render gallery", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// AddMemory runs one capture form for the posted image and caption.
func (h *Handler) AddMemory(w http.ResponseWriter, r *http.Request) {
	form := capture.New(h.gallery)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.render(w, r, http.StatusRequestEntityTooLarge, capture.Snapshot{Error: capture.MsgTooLarge}, true)
			return
		}
		h.logger.Warn(r.Context(), "bad upload", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	_ = form.SetCaption(r.FormValue("caption"))

	file, hdr, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		h.logger.Warn(r.Context(), "bad upload", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	default:
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if err := form.Choose(hdr.Filename, data); err != nil {
			h.render(w, r, http.StatusRequestEntityTooLarge, form.Snapshot(), true)
			return
		}
	}

	err = form.Submit(r.Context())
	switch {
	case err == nil:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.Is(err, capture.ErrNoFile):
		h.render(w, r, http.StatusBadRequest, form.Snapshot(), true)
	default:
		h.logger.Error(r.Context(), "add memory", "error", err)
		ctx, cancel := context.WithTimeout(r.Context(), previewTimeout)
		_ = form.WaitPreview(ctx)
		cancel()
		h.render(w, r, http.StatusBadGateway, form.Snapshot(), true)
	}
}

func (h *Handler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, ok := h.gallery.Find(id)
	if !ok {
		http.Error(w, "memory not found", http.StatusNotFound)
		return
	}

	if err := h.gallery.Delete(r.Context(), rec); err != nil {
		h.logger.Error(r.Context(), "delete memory", "id", id, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, gallery.ErrDocumentDelete) {
			status = http.StatusBadGateway
		}
		http.Error(w, "could not delete memory", status)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Blob(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	data, modified, ok := h.blobs.Blob(path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, path, modified, bytes.NewReader(data))
}
