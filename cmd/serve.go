package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/portfolio-agent/pkg/config"
	logx "github.com/tanpawarit/portfolio-agent/pkg/logger"
	"github.com/tanpawarit/portfolio-agent/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (/chat, /model, /health, /metrics)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := wireApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := a.Close(closeCtx); err != nil {
					l := logx.Component("cmd")
					l.Warn().Err(err).Msg("close resources")
				}
			}()

			srvCfg, err := configx.New[server.Config]("APP")
			if err != nil {
				return fmt.Errorf("load server config: %w", err)
			}
			srv, err := server.New(*srvCfg, a.orch, a.registry)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
}
