package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"TrendPull/internal/di"
	"TrendPull/pkg/config"
	"TrendPull/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "config file path (yaml or toml); defaults only when empty")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = app.Run(ctx)
	stop()

	if err != nil {
		log.Printf("run failed: %v", err)
	}
	os.Exit(server.ExitCode(err))
}
