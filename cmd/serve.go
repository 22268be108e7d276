package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/realtime"
	"social-publisher/infrastructure/scheduler"
	"social-publisher/infrastructure/worker"
	httpHandler "social-publisher/interfaces/http"
	"social-publisher/server"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin API, the worker pool and the scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() { rootCmd.AddCommand(serveCmd) }

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := configuration.C
	hub := realtime.NewJobHub()
	a.jobs = a.jobs.WithBroadcaster(hub.Broadcast)
	a.publish = a.publish.WithBroadcaster(hub.Broadcast)

	router := server.InitiateRouter(server.Handlers{
		Job:        httpHandler.NewJobHandler(a.jobs),
		Queue:      httpHandler.NewQueueHandler(a.jobs),
		RateLimit:  httpHandler.NewRateLimitHandler(a.jobs),
		Connection: httpHandler.NewConnectionHandler(a.credentials),
		Health:     httpHandler.NewHealthHandler(a.queue, a.publishers),
		Stream:     hub.Serve,
	}, cfg.App.SecretKey, cfg.App.CORSOrigins)

	pool := worker.NewPool(a.queue, a.publish, worker.Config{
		Concurrency:   cfg.Worker.Concurrency,
		JobsPerMinute: cfg.Worker.JobsPerMinute,
		PollInterval:  cfg.Worker.PollInterval,
	})
	runner := scheduler.NewRunner(a.scheduler, scheduler.Intervals{
		Promotion: cfg.Scheduler.PromotionInterval,
		Cleanup:   cfg.Scheduler.CleanupInterval,
		Expiry:    cfg.Scheduler.ExpiryInterval,
		Recovery:  cfg.Scheduler.RecoveryInterval,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// a signal that lands before the pool starts stops it first
		if err := pool.Run(gctx); !errors.Is(err, worker.ErrPoolStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		runner.Start()
		<-gctx.Done()
		runner.Stop()
		return nil
	})
	g.Go(func() error {
		logger.GetLogger().WithFields(map[string]interface{}{"port": cfg.App.Port, "tls": cfg.App.TLSEnabled}).Info("Starting application")
		var err error
		if cfg.App.TLSEnabled && cfg.App.TLSCertFile != "" && cfg.App.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.App.TLSCertFile, cfg.App.TLSKeyFile)
		} else {
			if cfg.App.TLSEnabled {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			}
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.GetLogger().Info("Application shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.GetLogger().WithField("error", err).Warn("HTTP shutdown incomplete")
		}
		// in-flight jobs get the rest of the grace period
		return pool.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		return err
	}
	return nil
}
