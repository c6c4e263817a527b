package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dss-visualizer/backend/internal/api"
	"github.com/dss-visualizer/backend/internal/retention"
	"github.com/dss-visualizer/backend/internal/web"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx)
		},
	}
}

func runServe(parent context.Context, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	runCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := ctx.logger("Server")
	if cfg.UsingDefaultSecret() {
		logger.Warn("SECRET_KEY is not set, using the insecure development default")
	}

	st, err := ctx.openStores()
	if err != nil {
		return err
	}
	converter, err := ctx.newConverter(st.exports)
	if err != nil {
		return err
	}

	e, err := api.NewServer(&api.Dependencies{
		Uploads:   st.uploads,
		Exports:   st.exports,
		Converter: converter,
		Version:   Version,
		Logger:    ctx.logger("API"),

		DecoderBinary: cfg.Decoder.Binary,
	}, api.MiddlewareOptions{RequestLogging: cfg.Server.EnableRequestLogging})
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	if maxAge := cfg.RetentionMaxAge(); maxAge > 0 {
		sweeper := retention.NewSweeper(cfg.Storage.DataDirectory, maxAge, ctx.logger("Retention"), st.uploads, st.exports)
		go sweeper.Run(runCtx, cfg.SweepInterval())
	}

	s := &http.Server{
		Addr:         cfg.ServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	printBanner(ctx.configPath, cfg.ServerAddr(), cfg.Storage.DataDirectory)
	if web.HasEmbeddedFiles() {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- e.StartServer(s) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-runCtx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}

func printBanner(configPath, addr, dataDir string) {
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           DSS Visualizer Server                           ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", addr)
	fmt.Printf("║  Data Dir:  %-46s║\n", dataDir)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}
