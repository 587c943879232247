package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"idverify/internal/cache"
	"idverify/internal/db"
	"idverify/internal/handlers"
	"idverify/internal/logger"
	"idverify/internal/metrics"
	"idverify/internal/middleware"
	"idverify/internal/router"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the verification HTTP API",
	Long: `Start the verification HTTP API.

Routes:
  POST /api/v1/verify-document   multipart image + claims
  POST /api/v1/verify            JSON pre-extracted fields + claims
  POST /api/v1/ocr               extract fields from an image
  POST /api/v1/classify          classify the document type
  POST /api/v1/verify-batch      CSV of pre-extracted fields + claims
  GET  /healthz, /metrics

Examples:
  idverify serve                    # Start on the configured port
  idverify serve --port 3000        # Start on a custom port`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logger.L()
		if serveHost != "" {
			cfg.Server.Host = serveHost
		}
		if servePort != "" {
			cfg.Server.Port = servePort
		}

		metrics.Init()
		verifier, closers := buildVerifier(ctx, cfg, log)
		defer func() {
			for _, c := range closers {
				_ = c.Close()
			}
		}()

		opts := handlers.Options{
			ShareSecret:     []byte(cfg.Share.Secret),
			ShareMaxHours:   cfg.Share.MaxHours,
			FrontendBaseURL: cfg.Server.FrontendBaseURL,
			BodyLimit:       cfg.Server.BodyLimitMB << 20,
			Checks:          map[string]func(context.Context) error{},
			Log:             log,
		}
		if cfg.Database.Enabled {
			conn, err := db.Init(cfg.Database.DSN)
			if err != nil {
				return err
			}
			opts.Store = db.NewStore(conn)
			sqlDB, err := conn.DB()
			if err == nil {
				opts.Checks["database"] = sqlDB.PingContext
				defer sqlDB.Close()
			}
		}

		routerOpts := router.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RateLimit: middleware.RateLimitConfig{
				RequestsPerMinute: cfg.Redis.RequestsPerMinute,
				Window:            cfg.Redis.Window,
			},
			OperatorSecret: []byte(cfg.Server.OperatorSecret),
			RequestTimeout: cfg.Server.RequestTimeout,
		}
		if cfg.Redis.Enabled {
			rc, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				// Throttling is optional; serve without it.
				log.Error("rate limiting disabled", zap.Error(err))
			} else {
				defer rc.Close()
				routerOpts.Limiter = rc
				opts.Checks["redis"] = rc.Ping
			}
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router.RegisterRouter(handlers.New(verifier, opts), routerOpts),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("server listening", zap.String("addr", srv.Addr), zap.String("ocr_engine", cfg.OCR.Engine))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides server.port)")

	rootCmd.AddCommand(serveCmd)
}
