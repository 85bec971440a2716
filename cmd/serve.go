package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"resume-analyzer/analysis"
	"resume-analyzer/interfaces"
	"resume-analyzer/rasterizer"
)

// HTTP server timeout constants.
const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 30 * time.Second
	pruneInterval     = time.Minute
	sessionRetention  = time.Hour
	previewRetention  = 15 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(_ *cobra.Command, _ []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
}

func serve() error {
	logger := newLogger()
	defer logger.Sync()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Previews stay allocated for the polling client, which releases them
	// through DELETE /previews/:handle.
	app, err := newApplication(ctx, logger, analysis.WithPreviewHandoff())
	if err != nil {
		logger.Error("starting", zap.Error(err))
		return err
	}
	defer app.close()

	logger.Info("starting the resume-analyzer", zap.String("version", version))

	go func() {
		<-app.client.Init(ctx)
		logger.Info("platform ready", zap.Stringer("state", app.client.State()), zap.String("error", app.client.Err()))
	}()

	tracker := analysis.NewTracker()
	go prune(ctx, tracker, app.converter.Previews())

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	handler := interfaces.NewHTTPHandler(router, interfaces.Deps{
		Platform:    app.client,
		Analyzer:    app.analyzer,
		Tracker:     tracker,
		Previews:    app.converter.Previews(),
		Events:      app.eventPublisher(),
		Metrics:     app.metrics,
		Logger:      logger,
		Timeout:     app.cfg.Analysis.Timeout,
		BaseContext: context.WithoutCancel(ctx),
	})

	srv := &http.Server{
		Addr:              app.cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", app.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("HTTP server failed", zap.Error(err))
		return err
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	handler.Wait()

	logger.Info("server stopped")
	return nil
}

// prune drops finished sessions and previews no client released in time.
func prune(ctx context.Context, tracker *analysis.Tracker, previews *rasterizer.Previews) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			tracker.Prune(now.Add(-sessionRetention))
			previews.Prune(now.Add(-previewRetention))
		}
	}
}

func requestLogger(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
