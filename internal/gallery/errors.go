package gallery

import (
	"errors"
	"fmt"
)

// Error kinds. An *OpError matches its kind with errors.Is.
var (
	ErrSubscription   = errors.New("subscription error")
	ErrUpload         = errors.New("upload error")
	ErrURLResolution  = errors.New("url resolution error")
	ErrDocumentWrite  = errors.New("document write error")
	ErrDocumentDelete = errors.New("document delete error")
	ErrBlobDelete     = errors.New("blob delete error")

	ErrAlreadyStarted = errors.New("gallery already started")
)

// LoadErrorMessage is shown instead of the gallery when the subscription fails.
const LoadErrorMessage = "Failed to load memories. Have you configured the storage backend?"

// OpError describes a failed store call made by the controller.
type OpError struct {
	Kind error
	Path string
	ID   string
	Err  error
}

func (e *OpError) Error() string {
	switch {
	case e.ID != "":
		return fmt.Sprintf("%v (id=%s): %v", e.Kind, e.ID, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%v (path=%s): %v", e.Kind, e.Path, e.Err)
	default:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
}

func (e *OpError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// IsAddError reports whether err comes from a failed Add.
func IsAddError(err error) bool {
	return errors.Is(err, ErrUpload) || errors.Is(err, ErrURLResolution) || errors.Is(err, ErrDocumentWrite)
}
