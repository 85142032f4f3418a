package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/medcareai/medcare-client/internal/client/cli"
	"github.com/medcareai/medcare-client/internal/client/config"
	"github.com/medcareai/medcare-client/internal/logging"
)

func main() {

	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	ctx := context.Background()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
