package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"valvefinder/internal/catalog"
	"valvefinder/internal/config"
	"valvefinder/internal/listener"
	"valvefinder/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	log := cfg.Logger("catalog-watcher")

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	client := catalog.NewClient(cfg)
	store := catalog.NewStoreWithNormalizer(catalog.Normalizer{Schemes: cfg.ValveSchemes})
	loader := catalog.NewLoaderFromConfig(cfg, client, db, log)

	svc := listener.NewService(loader, store, cfg, log)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
