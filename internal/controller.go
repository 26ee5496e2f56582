package internal

import (
	"context"
	"fmt"
	"net/http"
	// Pprof handlers are registered on the default mux when debug mode is on.
	_ "net/http/pprof"

	"golang.org/x/sync/errgroup"

	"github.com/aserdan/citadel/internal/core"
	"github.com/aserdan/citadel/internal/core/data"
	"github.com/aserdan/citadel/internal/dispatch"
	"github.com/aserdan/citadel/internal/login"
	"github.com/aserdan/citadel/internal/session"
)

// Controller is the main entrypoint for the server. It's responsible for
// wiring up all of the shared dependencies and launching the frontends for
// the configured server backends.
type Controller struct {
	Config *core.Config
}

// Start starts the server and blocks until the context is cancelled or a
// frontend fails.
func (controller *Controller) Start(ctx context.Context) error {
	logger, err := core.NewLogger(controller.Config)
	if err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}

	db, err := data.Initialize(
		controller.Config.DatabaseURL(),
		controller.Config.Debugging.DatabaseLoggingEnabled,
	)
	if err != nil {
		return err
	}
	logger.Infof("connected to database %s:%d",
		controller.Config.Database.Host, controller.Config.Database.Port)
	defer func() {
		if err := data.Shutdown(db); err != nil {
			logger.Errorf("error closing database connection: %v", err)
		}
	}()

	if controller.Config.Debugging.PprofEnabled {
		go func() {
			logger.Infof("starting pprof server on port %d", controller.Config.Debugging.PprofPort)
			pprofAddr := fmt.Sprintf(":%d", controller.Config.Debugging.PprofPort)
			if err := http.ListenAndServe(pprofAddr, nil); err != nil {
				logger.Errorf("error starting pprof server: %v", err)
			}
		}()
	}

	registry := session.NewRegistry()
	loginFrontend := &frontend{
		Address: fmt.Sprintf("%s:%d", controller.Config.Hostname, controller.Config.LoginServer.Port),
		Backend: login.NewServer(
			"LOGIN",
			controller.Config,
			logger,
			login.NewGormStore(db),
			registry,
		),
		Config:     controller.Config,
		Logger:     logger,
		Dispatcher: dispatch.New(logger),
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return loginFrontend.Run(ctx) })
	return eg.Wait()
}
