package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sufyan2618/project-management/internal/app"
	"github.com/sufyan2618/project-management/internal/config"
	"github.com/sufyan2618/project-management/internal/web"
)

var Version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("taskflow-web version %s starting...", Version)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a, err := app.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open client state: %v", err)
	}
	defer a.Close()

	// Resume a stored session's real-time channel
	a.RefreshOnEvents()
	a.ConnectSocket(ctx)

	addr := getEnv("TASKFLOW_WEB_ADDR", cfg.Web.Addr)
	server := web.NewServer(a)

	log.Printf("Starting web server on %s (API %s)", addr, cfg.API.BaseURL)
	if err := server.Run(ctx, addr); err != nil {
		log.Fatalf("Web server error: %v", err)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
