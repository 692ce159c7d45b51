package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/narrator"
	httpAdapter "github.com/aretw0/narrator/pkg/adapters/http"
	"github.com/aretw0/narrator/pkg/observability"
	"github.com/aretw0/narrator/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP command server",
	Long: `Serves the document over HTTP: sessions are opened with POST /sessions/{id}, driven with
POST /sessions/{id}/commands and followed with GET /sessions/{id}/events (SSE). Narrated units
are streamed to the event subscribers of their session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadDocument(cmd)
		if err != nil {
			return err
		}
		s, settingsPath, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		logger, closeLog, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer closeLog()
		store, locker, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}

		pace, _ := cmd.Flags().GetDuration("pace")
		streams := httpAdapter.NewStreamManager(logger)
		opts := []narrator.Option{
			narrator.WithLogger(logger),
			narrator.WithSettings(s),
			narrator.WithPresenter(streams),
			narrator.WithLifecycleHooks(streams.Hooks().Merge(metrics.Hooks())),
			narrator.WithSessionStore(store),
		}
		if locker != nil {
			opts = append(opts, narrator.WithLocker(locker))
		}
		if settingsPath != "" {
			opts = append(opts, narrator.WithSettingsFile(settingsPath))
		}
		// the units reach clients through the "unit" events, not through a voice
		n := narrator.New(tree, runner.NewConsole(io.Discard, runner.WithPace(pace)), opts...)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		n.Start(ctx)
		defer n.Stop()

		port, _ := cmd.Flags().GetString("port")
		srv := &http.Server{
			Addr: ":" + port,
			Handler: httpAdapter.NewHandler(n, streams, tree.Root(),
				httpAdapter.WithLogger(logger),
				httpAdapter.WithResolver(tree),
				httpAdapter.WithMetrics(reg),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "Starting narrator server on %s\n", srv.Addr)
			fmt.Fprintf(cmd.OutOrStdout(), "Serving document: %s\n", displayName(mustString(cmd, "doc")))
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("failed to close server: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "narrator server stopped")
			return nil
		}
	},
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Duration("pace", 300*time.Millisecond, "Pause after each narrated unit")
	addStoreFlags(serveCmd.Flags(), "memory")
}
