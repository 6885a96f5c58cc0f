package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shandysiswandi/portal/internal/app"
)

//go:generate go run github.com/swaggo/swag/v2/cmd/swag init -g main.go -o docs

// @title           Portal API
// @version         1.0
// @description     Customer account portal: email or phone code login, orders, returns, profile and addresses.
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the portal token.
func main() {
	if err := run(); err != nil {
		slog.Error("portal stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.New().Run(ctx)
}
