package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"docforge/internal/application/port/input"
	"docforge/internal/di"
	"docforge/internal/infrastructure/env"
	"docforge/internal/infrastructure/httpapi"
)

func main() {
	envService := env.NewEnvService()

	var (
		serve   = flag.Bool("serve", false, "run the HTTP job API instead of a one-shot generation")
		addr    = flag.String("addr", ":8080", "listen address in serve mode")
		outDir  = flag.String("out", "./docs", "directory for generated documentation")
		rubrics = flag.String("rubrics", "", "directory with rubric overrides (defaults are embedded)")
		quiet   = flag.Bool("quiet", false, "suppress console progress output")
		timeout = flag.Duration("timeout", envService.GetDuration("RUN_TIMEOUT", 30*time.Minute),
			"overall deadline for a one-shot run")
	)
	flag.Parse()

	container, err := di.NewContainer(di.Config{
		OpenRouterAPIKey:   envService.MustGet("OPENROUTER_API_KEY"),
		GeneratorModel:     envService.MustGet("OPENROUTER_MODEL_NAME"),
		CriticModel:        envService.Get("OPENROUTER_CRITIC_MODEL_NAME"),
		OutputDir:          *outDir,
		RubricDir:          *rubrics,
		MaxConcurrentPages: envService.GetInt("MAX_CONCURRENT_PAGES", 3),
		ReferenceTokens:    envService.GetInt("REFERENCE_TOKEN_BUDGET", 0),
		LogLevel:           envService.GetWithDefault("LOG_LEVEL", "info"),
		Quiet:              *quiet || *serve,
	})
	if err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	defer container.Close()

	if *serve {
		runServer(container, *addr)
		return
	}

	repoPath := flag.Arg(0)
	if repoPath == "" {
		fmt.Fprintln(os.Stderr, "usage: docforge [flags] <repo-path>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	runOnce(container, repoPath, *timeout)
}

func runOnce(container *di.Container, repoPath string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	abs, err := filepath.Abs(repoPath)
	if err != nil {
		container.Logger.Error("Invalid repository path", "path", repoPath, "error", err)
		os.Exit(1)
	}

	result, err := container.Pipeline.Run(ctx, input.RunRequest{
		RepoPath: abs,
		RepoName: filepath.Base(abs),
	})
	if err != nil {
		container.Logger.Error("Documentation run failed", "error", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nGenerated %d documents (%d failed quality gates), %d tokens used\n",
		len(result.Documents), result.FailedGates(), result.TokenUsage.Total())

	if result.FailedGates() > 0 {
		os.Exit(3)
	}
}

func runServer(container *di.Container, addr string) {
	server := httpapi.NewServer(container.Pipeline, container.Logger)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	container.Logger.Info("HTTP server listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}
