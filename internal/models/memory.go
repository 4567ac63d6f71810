// Package models defines the memory entity as the gallery sees it and as it
// travels between the stores and the controller.
package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/photodiary/internal/common"
)

// Collection is the only document collection of the diary.
const Collection = "memories"

// MemoryRecord is one photo-and-caption entry shown in the gallery.
type MemoryRecord struct {
	// ID is assigned by the store on creation.
	ID string `json:"id"`
	// ImageURL locates the stored image.
	ImageURL string `json:"imageUrl"`
	// StoragePath is the blob key, used only to delete the image later.
	StoragePath string `json:"-"`
	Caption     string `json:"caption"`
	// Date is stamped by the server at write time. Zero means "not yet".
	Date time.Time `json:"date"`
}

func (r MemoryRecord) HasID() bool {
	return r.ID != ""
}

// NewDocument holds the client-supplied fields of a memory. The date is
// always assigned by the store.
type NewDocument struct {
	ImageURL    string
	Caption     string
	StoragePath string
}

// Document is the stored shape of a memory.
type Document struct {
	ID          string    `json:"id"`
	ImageURL    string    `json:"imageUrl"`
	Caption     string    `json:"caption"`
	StoragePath string    `json:"storagePath"`
	Date        time.Time `json:"date"`
}

// Validate rejects documents that cannot be rendered or deleted.
func (d Document) Validate() error {
	switch {
	case d.ID == "":
		return fmt.Errorf("%w: missing id", common.ErrInvalidDocument)
	case d.ImageURL == "":
		return fmt.Errorf("%w: %s: missing imageUrl", common.ErrInvalidDocument, d.ID)
	case d.StoragePath == "":
		return fmt.Errorf("%w: %s: missing storagePath", common.ErrInvalidDocument, d.ID)
	}
	return nil
}

// Record converts the document into a MemoryRecord with the date in UTC.
func (d Document) Record() MemoryRecord {
	r := MemoryRecord{
		ID:          d.ID,
		ImageURL:    d.ImageURL,
		StoragePath: d.StoragePath,
		Caption:     d.Caption,
	}
	if !d.Date.IsZero() {
		r.Date = d.Date.UTC()
	}
	return r
}
