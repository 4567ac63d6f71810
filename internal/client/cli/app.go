// Package cli implements the interactive photo diary client: a REPL over
// the same capture form and gallery controller the web UI uses.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/photodiary/internal/capture"
	"github.com/dmitrijs2005/photodiary/internal/client/config"
	"github.com/dmitrijs2005/photodiary/internal/filex"
	"github.com/dmitrijs2005/photodiary/internal/gallery"
	"github.com/dmitrijs2005/photodiary/internal/logging"
	"github.com/dmitrijs2005/photodiary/internal/netx"
	"github.com/dmitrijs2005/photodiary/internal/blobstore"
	"github.com/dmitrijs2005/photodiary/internal/store"
	"github.com/dmitrijs2005/photodiary/internal/view"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	gallery *gallery.Controller
	form    *capture.Form
	closeFn func() error

	scanner *bufio.Scanner
	out     io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewLogger(os.Stderr, c.LogLevel, "text")

	var (
		s       gallery.RemoteStore
		closeFn = func() error { return nil }
	)

	switch c.Storage {
	case config.StorageMemory:
		s = store.NewMemory("", logger)
	case config.StoragePostgres:
		r, db, err := store.OpenRemote(context.Background(), store.RemoteConfig{
			DatabaseDSN: c.DatabaseDSN,
			S3: blobstore.Options{
				Region:        c.S3Region,
				User:          c.S3RootUser,
				Password:      c.S3RootPassword,
				Bucket:        c.S3Bucket,
				BaseEndpoint:  c.S3BaseEndpoint,
				PublicBaseURL: c.S3PublicBaseURL,
				URLExpiry:     c.URLExpiry,
			},
			PollInterval: c.PollInterval,
		}, logger)
		if err != nil {
			return nil, err
		}
		s, closeFn = r, db.Close
	default:
		return nil, fmt.Errorf("unknown storage %q", c.Storage)
	}

	return newApp(c, s, logger, closeFn, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, s gallery.RemoteStore, logger logging.Logger, closeFn func() error, in io.Reader, out io.Writer) *App {
	g := gallery.New(s, logger, gallery.WithUniquePaths(c.UniquePaths))
	return &App{
		config:  c,
		logger:  logger,
		gallery: g,
		form:    capture.New(g),
		closeFn: closeFn,
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		a.gallery.Close()
		if err := a.closeFn(); err != nil {
			a.logger.Error(ctx, "close", "error", err)
		}
	}()

	if err := a.gallery.Start(ctx); err != nil {
		printlnFn(gallery.LoadErrorMessage)
	}

	printlnFn("Our Photo Diary (type 'help' for commands)")
	runREPL(ctx, a, a.statusLine, a.scanner)
}

func (a *App) statusLine() string {
	st := a.gallery.State()
	switch {
	case st.LoadError != "":
		return "offline"
	case st.Loading:
		return "loading"
	}

	s := a.form.Snapshot()
	if s.State == capture.Empty {
		return fmt.Sprintf("%d memories", len(st.Records))
	}
	return fmt.Sprintf("%d memories | %s: %s", len(st.Records), s.State, s.Filename)
}

func (a *App) Choose(ctx context.Context, source string) error {
	var (
		data []byte
		name string
		err  error
	)
	if netx.IsURL(source) {
		data, name, err = netx.Download(ctx, source, capture.MaxFileSize)
	} else {
		data, name, err = filex.ReadLimited(source, capture.MaxFileSize)
	}
	if err != nil {
		printlnFn("Could not read image:", err)
		return err
	}

	if err := a.form.Choose(name, data); err != nil {
		printlnFn(a.form.Err())
		return err
	}

	if err := a.form.WaitPreview(ctx); err == nil {
		kind, _, _ := strings.Cut(strings.TrimPrefix(a.form.Preview(), "data:"), ";")
		printlnFn(fmt.Sprintf("Chosen %s (%d bytes, %s)", name, len(data), kind))
	}
	return nil
}

func (a *App) Caption(ctx context.Context, text string) error {
	if err := a.form.SetCaption(text); err != nil {
		printlnFn("Still saving the last memory, try again in a moment")
		return err
	}
	if text == "" {
		printlnFn("Caption cleared")
	} else {
		printlnFn("Caption set")
	}
	return nil
}

func (a *App) Submit(ctx context.Context) error {
	printlnFn("Saving...")
	if err := a.form.Submit(ctx); err != nil {
		a.logger.Warn(ctx, "submit failed", "error", err)
		if msg := a.form.Err(); msg != "" {
			printlnFn(msg)
		}
		return err
	}
	printlnFn("Saved this memory")
	return nil
}

func (a *App) List(ctx context.Context) error {
	st := a.gallery.State()
	switch {
	case st.Loading:
		printlnFn("Loading our memories...")
		return nil
	case st.LoadError != "":
		printlnFn(st.LoadError)
		return a.gallery.Err()
	case len(st.Records) == 0:
		printlnFn("Your Story Begins Here. Use 'choose' and 'submit' to save your first photo together.")
		return nil
	}

	for _, r := range st.Records {
		line := fmt.Sprintf("%s  %-18s  %s", r.ID, view.FormatDate(r.Date), r.ImageURL)
		if r.Caption != "" {
			line += fmt.Sprintf("\n    %q", r.Caption)
		}
		printlnFn(line)
	}
	return nil
}

var errCancelled = errors.New("cancelled")

func (a *App) Delete(ctx context.Context, id string) error {
	r, ok := a.gallery.Find(id)
	if !ok {
		printlnFn("No memory with id", id)
		return fmt.Errorf("memory %s not found", id)
	}

	if !Confirm(a.scanner, fmt.Sprintf("Delete memory from %s?", view.FormatDate(r.Date)), a.out) {
		printlnFn("Kept it")
		return errCancelled
	}

	if err := a.gallery.Delete(ctx, r); err != nil {
		printlnFn("Could not delete memory:", err)
		return err
	}
	printlnFn("Deleted")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st := a.gallery.State()
	s := a.form.Snapshot()

	printlnFn("Gallery:", a.statusLine())
	printlnFn("Form:", s.State.String())
	if s.Filename != "" {
		printlnFn("  Photo:", s.Filename, fmt.Sprintf("(%d bytes)", s.Size))
	}
	if s.Caption != "" {
		printlnFn("  Caption:", s.Caption)
	}
	if s.Error != "" {
		printlnFn("  Error:", s.Error)
	}
	if st.LoadError != "" {
		printlnFn("  ", st.LoadError)
	}
	return nil
}
