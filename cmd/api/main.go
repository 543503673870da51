package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskShare/internal/app"
	"taskShare/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("загрузка конфигурации: %w", err)
	}

	application := app.New(cfg)
	if err := application.Init(ctx); err != nil {
		application.Shutdown()
		return fmt.Errorf("инициализация: %w", err)
	}
	defer application.Shutdown()

	return application.Run(ctx)
}
