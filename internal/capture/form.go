// Package capture implements the "add a memory" form: choosing an image,
// previewing it, and submitting it with a caption.
//
// The form moves through Empty -> FileChosen -> Submitting and back to
// Empty on success or FileChosen on failure. Only one submit may run at a
// time.
package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// MaxFileSize is the largest accepted image, in bytes.
const MaxFileSize = 5 << 20

// User-facing messages.
const (
	MsgTooLarge   = "Image is too large. Please select a file under 5MB."
	MsgNoFile     = "Please select an image to upload."
	MsgSaveFailed = "Could not save memory. Please try again."
)

var (
	ErrTooLarge   = errors.New("image too large")
	ErrNoFile     = errors.New("no image chosen")
	ErrBusy       = errors.New("submit in progress")
	ErrSaveFailed = errors.New("save failed")
)

type State int

const (
	Empty State = iota
	FileChosen
	Submitting
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case FileChosen:
		return "file chosen"
	case Submitting:
		return "submitting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Submitter stores a new memory. *gallery.Controller implements it.
type Submitter interface {
	Add(ctx context.Context, image []byte, filename, caption string) (string, error)
}

// Snapshot is a copy of the form for rendering.
type Snapshot struct {
	State    State
	Filename string
	Size     int
	Caption  string
	Preview  string
	Error    string
}

type Form struct {
	submitter Submitter

	mu       sync.Mutex
	state    State
	filename string
	data     []byte
	caption  string
	preview  string
	errMsg   string

	// gen invalidates previews of files that were replaced or submitted.
	gen         int
	previewDone chan struct{}
}

func New(s Submitter) *Form {
	return &Form{submitter: s}
}

// Choose validates and stores the image and starts computing its preview.
// An oversized image is rejected and the form keeps whatever it had.
func (f *Form) Choose(filename string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == Submitting {
		return ErrBusy
	}
	if len(data) > MaxFileSize {
		f.errMsg = MsgTooLarge
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	f.errMsg = ""
	f.filename = filename
	f.data = data
	f.preview = ""
	f.state = FileChosen
	f.gen++

	done := make(chan struct{})
	f.previewDone = done
	go f.buildPreview(f.gen, data, done)

	return nil
}

func (f *Form) buildPreview(gen int, data []byte, done chan struct{}) {
	defer close(done)

	url := DataURL(data)

	f.mu.Lock()
	if f.gen == gen {
		f.preview = url
	}
	f.mu.Unlock()
}

// DataURL encodes data as a data: URL with a sniffed content type.
func DataURL(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// WaitPreview blocks until the preview of the current file is ready.
func (f *Form) WaitPreview(ctx context.Context) error {
	f.mu.Lock()
	done := f.previewDone
	f.mu.Unlock()

	if done == nil {
		return ErrNoFile
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Form) SetCaption(caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Submitting {
		return ErrBusy
	}
	f.caption = caption
	return nil
}

// Submit sends the chosen image and caption to the submitter. On success the
// form is reset; on failure the file is kept so the user can retry.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	switch f.state {
	case Submitting:
		f.mu.Unlock()
		return ErrBusy
	case Empty:
		f.errMsg = MsgNoFile
		f.mu.Unlock()
		return ErrNoFile
	}
	f.errMsg = ""
	f.state = Submitting
	data, filename, caption := f.data, f.filename, f.caption
	f.mu.Unlock()

	_, err := f.submitter.Add(ctx, data, filename, caption)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.state = FileChosen
		f.errMsg = MsgSaveFailed
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	f.reset()
	return nil
}

// Reset clears the form unless a submit is running.
func (f *Form) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Submitting {
		return ErrBusy
	}
	f.reset()
	f.errMsg = ""
	return nil
}

func (f *Form) reset() {
	f.state = Empty
	f.filename = ""
	f.data = nil
	f.caption = ""
	f.preview = ""
	f.previewDone = nil
	f.gen++
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the message to show under the form, if any.
func (f *Form) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

func (f *Form) Preview() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.preview
}

func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		State:    f.state,
		Filename: f.filename,
		Size:     len(f.data),
		Caption:  f.caption,
		Preview:  f.preview,
		Error:    f.errMsg,
	}
}
