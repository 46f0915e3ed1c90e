package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cipherxfer/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	flags := app.Default()

	cmd := &cobra.Command{
		Use:          "xferd",
		Short:        "Secure file transfer server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Resolve(configPath, cmd.Flags(), flags)
			if err != nil {
				return err
			}
			log, err := app.NewLogger(cfg.LogLevel, cfg.LogColor, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			w := app.NewWire(cfg, log)
			defer func() {
				if err := w.Close(); err != nil {
					log.WithError(err).Error("close storage")
				}
			}()
			srv, err := w.Server()
			if err != nil {
				return err
			}

			if cfg.MetricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", w.Metrics.Handler())
				hs := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					log.WithField("addr", cfg.MetricsAddr).Info("serving metrics")
					if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.WithError(err).Error("metrics server")
					}
				}()
				defer func() {
					sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = hs.Shutdown(sctx)
				}()
			}

			log.WithFields(logrus.Fields{
				"addr":      cfg.Addr(),
				"loss_rate": cfg.LossRate,
				"scope":     cfg.LossScope,
				"retry":     cfg.MaxRetry,
				"timeout":   cfg.Timeout,
				"backend":   cfg.StorageBackend,
			}).Info("starting xferd")
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	flags.RegisterFlags(cmd.Flags())
	return cmd
}
