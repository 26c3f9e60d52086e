package main

import (
	"fmt"
	"os"

	"go.uber.org/fx"

	"pricewatch/internal/app"
	"pricewatch/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(1)
	}

	fx.New(
		fx.Supply(cfg),
		app.Module,
		app.WithLogger(),
	).Run()
}
