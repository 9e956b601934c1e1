package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	logx "github.com/tanpawarit/portfolio-agent/pkg/logger"
)

type Config struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	Mode            string        `envconfig:"GIN_MODE" split_words:"true" default:"release"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
}

// Agent is the turn API the HTTP layer exposes.
type Agent interface {
	HandleMessage(ctx context.Context, sessionID string, text string) (string, error)
	SelectModel(ctx context.Context, sessionID string, name string) error
}

// ToolCatalog reports which tools are registered and which failed to load.
type ToolCatalog interface {
	Names() []string
	Unavailable() map[string]string
}

type HTTPServer struct {
	gin   *gin.Engine
	l     zerolog.Logger
	agent Agent
	tools ToolCatalog
	cfg   Config
}

func New(cfg Config, agent Agent, tools ToolCatalog) (*HTTPServer, error) {
	srv := &HTTPServer{
		l:     logx.Component("http"),
		agent: agent,
		tools: tools,
		cfg:   cfg,
	}
	if err := srv.validate(); err != nil {
		return nil, err
	}

	mode := strings.TrimSpace(cfg.Mode)
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	srv.gin = gin.New()
	srv.mapHandlers()
	return srv, nil
}

func (srv *HTTPServer) validate() error {
	if srv.agent == nil {
		return errors.New("agent is required")
	}
	if srv.tools == nil {
		return errors.New("tool catalog is required")
	}
	if strings.TrimSpace(srv.cfg.Addr) == "" {
		return errors.New("listen address is required")
	}
	return nil
}

// Handler exposes the router, mainly for tests.
func (srv *HTTPServer) Handler() http.Handler {
	return srv.gin
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (srv *HTTPServer) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              srv.cfg.Addr,
		Handler:           srv.gin,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.l.Info().Str("addr", srv.cfg.Addr).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := srv.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	srv.l.Info().Msg("http server shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
