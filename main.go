package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio/src/api"
	apihandlers "portfolio/src/api/handlers"
	"portfolio/src/app"
	"portfolio/src/config"
	"portfolio/src/models"
	"portfolio/src/services"
	"portfolio/src/utils"
	aws_handler "portfolio/src/utils/aws"
	"portfolio/src/worker"
	"portfolio/src/worker/controllers"
	workerhandlers "portfolio/src/worker/handlers"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig("./settings", os.Getenv("ENV"))
	if err != nil {
		log.Println(err, "Error while loading config")
		return
	}

	logger := utils.NewLogger(utils.ParseLevel(cfg.Logging.Level), cfg.Logging.ToFile, cfg.Logging.FilePath)
	ctx, stop := signal.NotifyContext(utils.WithLogger(context.Background(), logger), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := aws_handler.LoadSecrets(ctx, cfg); err != nil {
		logger.WithError(err).Error("Error while loading secrets")
		return
	}

	errC, err := run(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Couldn't run")
		return
	}

	if err := <-errC; err != nil {
		logger.WithError(err).Error("Error while running")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (<-chan error, error) {
	errC := make(chan error, 1)

	deps, err := app.Setup(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var httpServer *http.Server
	var cleanup func()
	switch cfg.Service.Type {
	case config.API:
		auth := deps.AuthService()
		handler := apihandlers.NewHandler(
			deps.PortfolioReader(),
			services.NewDemoProvider(cfg.Portfolio.UsdToCadRate),
			auth,
			cfg.Formatting,
		)
		handler.SecureCookies = cfg.Auth.SecureCookies
		server := api.NewServer(handler, auth.TokenAuth, logger, cfg.Service.AllowedOrigins)
		httpServer = api.NewHTTPServer(server, cfg.Service.Port)
		cleanup = func() {}
	case config.WORKER:
		syncService, err := deps.SyncService()
		if err != nil {
			deps.Close()
			return nil, err
		}
		controller := controllers.NewController(syncService, logger)
		if cfg.Reconciliation.Schedule != "" {
			loc, err := time.LoadLocation(cfg.Reconciliation.Timezone)
			if err != nil {
				deps.Close()
				return nil, err
			}
			if err := controller.ScheduleRun(models.RunModeDailySync, cfg.Reconciliation.Schedule, loc); err != nil {
				deps.Close()
				return nil, err
			}
		}
		server := worker.NewServer(workerhandlers.NewHandler(controller), logger)
		httpServer = worker.NewHTTPServer(server, cfg.Service.Port)
		cleanup = func() {
			controller.StopSchedules()
			syncService.Wait()
		}
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Server did not shut down cleanly")
		}
		cleanup()
		deps.Close()
		close(errC)
	}()

	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Service.Port, "type": cfg.Service.Type}).Info("Starting server")

		// "ListenAndServe always returns a non-nil error. After Shutdown or Close, the returned error is
		// ErrServerClosed."
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("An error raised while setting up server")
			errC <- err
		}
	}()
	return errC, nil
}
