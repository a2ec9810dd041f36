package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockcount/internal/httpapi"
)

func (a *app) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inventory HTTP API",
		Long:  "Serve the inventory HTTP API until interrupted.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}
			return a.runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: http_addr from config)")
	return cmd
}

func (a *app) runServe(ctx context.Context, addr string) error {
	s, err := a.open()
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := httpapi.New(s.svc, httpapi.Options{
		CORSOrigins: a.cfg.CORSOrigins,
		Logger:      s.logger,
	})
	s.logger.Info("serving",
		zap.String("addr", addr),
		zap.String("data_dir", a.cfg.DataDir),
		zap.Bool("remote_validator", a.cfg.Validator.URL != ""),
	)
	if err := httpapi.Run(ctx, server, addr); err != nil {
		return fmt.Errorf("serve %s: %w", addr, err)
	}
	s.logger.Info("server stopped")
	return nil
}
