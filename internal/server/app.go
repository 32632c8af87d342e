// Package server boots the reference sync server. It wires the PostgreSQL
// repositories, the HTTP API and the realtime hub, and handles graceful
// shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/offnote/offnote/internal/server/config"
	"github.com/offnote/offnote/internal/server/httpapi"
	"github.com/offnote/offnote/internal/server/notes"
	"github.com/offnote/offnote/internal/server/realtime"
	"github.com/offnote/offnote/internal/server/shared/db"
	"github.com/offnote/offnote/internal/server/users"
	"github.com/offnote/offnote/pkg/logging"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *users.Service
	noteService *notes.Service
	hub         *realtime.Hub
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout)

	rm, err := db.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	hub := realtime.NewHub(logger)
	us := users.NewService(rm.Users(), rm.RefreshTokens(), cfg)
	ns := notes.NewService(rm.Notes(), hub)

	return &App{
		config:      cfg,
		logger:      logger,
		userService: us,
		noteService: ns,
		hub:         hub,
	}, nil
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

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	srv := httpapi.NewServer(app.userService, app.noteService, app.hub,
		[]byte(app.config.SecretKey), app.logger)
	fiberApp := srv.App()

	errCh := make(chan error, 1)
	go func() {
		errCh <- fiberApp.Listen(app.config.EndpointAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			app.logger.Error(ctx, err.Error())
		}
	case <-ctx.Done():
		app.logger.Info(ctx, "Shutting down...")
		if err := fiberApp.Shutdown(); err != nil {
			app.logger.Error(ctx, err.Error())
		}
	}
}
