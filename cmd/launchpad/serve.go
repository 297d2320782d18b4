package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"launchpad/api"
	"launchpad/ledger"
	"launchpad/logging"
	"launchpad/metrics"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the presale and staking command api",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config()
			if addr != "" {
				cfg.Api.Addr = addr
			}
			return serve(cmd.Context(), rootOpts)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides api.addr")
	return cmd
}

func serve(ctx context.Context, rootOpts *RootOptions) error {
	cfg := rootOpts.Config()
	metrics.InitializePrometheusMetrics()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	server := api.NewServer(api.Options{
		Store:   a.store,
		Presale: a.presale,
		Staking: a.staking,
		Journal: a.journal,
		Clock:   ledger.SystemClock{},
		Faucet:  cfg.Api.Faucet,
	})
	httpServer := &http.Server{
		Addr:              cfg.Api.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Server starting", logging.API, "addr", cfg.Api.Addr, "faucet", cfg.Api.Faucet)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("Server shutting down", logging.API)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
