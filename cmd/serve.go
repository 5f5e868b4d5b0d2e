package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"match-highlights/infrastructure/httpapi"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the batch workers",
	Long: `Start the HTTP API together with the background batch workers.

Batches posted to /auto-generate-clips are acknowledged at once and
processed by the worker pool. Job progress is kept in the SQLite job
database and can be read back with GET /jobs/{id}.

SIGINT or SIGTERM stops accepting requests, drains in-flight requests
and waits for running batches to finish.

Example:
  match-highlights serve
  match-highlights serve --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if r, ok := a.jobs.(interruptRecoverer); ok {
		if _, err := r.MarkInterrupted(ctx); err != nil {
			log.WithError(err).Warn("could not recover jobs of a previous run")
		}
	}
	a.orchestrator.Start(cfg.Batch.Workers, cfg.Batch.QueueSize)

	server := httpapi.NewServer(httpapi.ServerConfig{
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
		Batches:     a.orchestrator,
		Segments:    a.uploads,
		Cuts:        a.clips,
		Logger:      log,
	})

	return RunServeWithDependencies(ctx, server, a.orchestrator, log)
}

// HTTPServer is the part of the HTTP server the serve command drives
type HTTPServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// Stopper drains background work
type Stopper interface {
	Stop()
}

// RunServeWithDependencies runs server until ctx is done or the server
// fails, then shuts the server down and drains the workers
func RunServeWithDependencies(ctx context.Context, server HTTPServer, workers Stopper, log logrus.FieldLogger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			log.WithError(serveErr).Error("HTTP server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	shutdownErr := server.Shutdown(shutdownCtx)

	workers.Stop()
	log.Info("batch workers stopped")

	return errors.Join(serveErr, shutdownErr)
}
