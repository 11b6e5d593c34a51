package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"leadflow-backend/routes"
	"leadflow-backend/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the periodic scans",
		Long: `Run the HTTP API. The timeout scan and the due-reminder scan run on
TIMEOUT_SCAN_CRON and REMINDER_SCAN_CRON. When REDIS_URL is set an asynq
worker also delivers reminders at their scheduled time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required to serve the API")
	}

	if !a.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := routes.SetupRouter(a.cfg, a.engine, a.log)
	if err != nil {
		return err
	}
	for _, route := range router.Routes() {
		a.log.Debug("route", "method", route.Method, "path", route.Path)
	}

	cron, err := scheduler.NewCron(a.engine, a.cfg.TimeoutScanSpec, a.cfg.ReminderScanSpec, a.log)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	cron.Start()
	defer cron.Stop()

	if a.cfg.RedisURL != "" {
		worker, err := scheduler.NewWorker(a.cfg.RedisURL, a.cfg.AsynqQueue, a.cfg.AsynqConcurrency, a.engine.Reminders, a.log)
		if err != nil {
			return fmt.Errorf("reminder worker: %w", err)
		}
		go worker.Run(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server_started", "port", a.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
