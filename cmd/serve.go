package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ByLCY/inventario/advisor"
	"github.com/ByLCY/inventario/dsl"
	"github.com/ByLCY/inventario/probe"
	"github.com/ByLCY/inventario/session"
	"github.com/ByLCY/inventario/sheet"
	"github.com/ByLCY/inventario/web"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	repo, err := openStore()
	if err != nil {
		return err
	}
	defer repo.Close()

	sessions := session.NewManager(cfg.Password)
	if cfg.Design != "" {
		design, err := dsl.Load(cfg.Design)
		if err != nil {
			return fmt.Errorf("加载标签设计失败: %w", err)
		}
		sessions.SetDefaultDesign(design)
	}

	srv, err := web.NewServer(web.Deps{
		Store:      repo,
		Sessions:   sessions,
		Compositor: sheet.NewCompositor(sheet.WithLogger(logger)),
		Prober:     probe.New(probe.WithWorkers(cfg.PingWorkers), probe.WithLogger(logger)),
		Advisor:    advisor.New(cfg.GeminiModel, nil, logger),
		GeminiKey:  cfg.GeminiKey,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("初始化 web 服务失败: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBPath))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
