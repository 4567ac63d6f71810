// Package server wires the photo diary server: storage backend, gallery
// controller, HTTP UI, gRPC health endpoint and the orphan sweeper. It
// handles graceful shutdown on SIGINT, SIGTERM and SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/photodiary/internal/gallery"
	"github.com/dmitrijs2005/photodiary/internal/logging"
	"github.com/dmitrijs2005/photodiary/internal/blobstore"
	"github.com/dmitrijs2005/photodiary/internal/server/cleanup"
	"github.com/dmitrijs2005/photodiary/internal/server/config"
	"github.com/dmitrijs2005/photodiary/internal/server/httpapi"
	"github.com/dmitrijs2005/photodiary/internal/store"
	"github.com/dmitrijs2005/photodiary/internal/view"

	gs "github.com/dmitrijs2005/photodiary/internal/server/grpc"
)

// backend is a RemoteStore the sweeper can also inspect.
type backend interface {
	gallery.RemoteStore
	cleanup.Source
}

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	store  backend
	blobs  httpapi.BlobSource
	db     *sql.DB
	view   *view.Renderer
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewLogger(os.Stdout, c.LogLevel, c.LogFormat)

	v, err := view.New()
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, view: v}

	switch c.Storage {
	case config.StorageMemory:
		m := store.NewMemory("", logger)
		app.store, app.blobs = m, m
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
			return nil, fmt.Errorf("storage init error: %w", err)
		}
		app.store, app.db = r, db
	default:
		return nil, fmt.Errorf("unknown storage %q", c.Storage)
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc, src gs.StatusSource) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, src)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc, g httpapi.Gallery) {
	h := httpapi.NewHandler(g, app.view, app.blobs, app.logger)
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage)

	app.initSignalHandler(cancelFunc)

	controller := gallery.New(app.store, app.logger, gallery.WithUniquePaths(app.config.UniquePaths))
	if err := controller.Start(ctx); err != nil {
		// The page shows the load error; keep serving.
		app.logger.Error(ctx, "gallery start failed", "error", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc, controller)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc, controller)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		cleanup.NewSweeper(app.store, app.config.CleanupInterval, app.config.CleanupGrace, app.logger).Run(ctx)
	}()

	wg.Wait()

	controller.Close()
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "db close", "error", err)
		}
	}
	app.logger.Info(context.Background(), "App stopped")
}
