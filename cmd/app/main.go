package main

import (
	"flag"
	"log"
	"os"

	"github.com/kimyeonkyu7453/SPP/internal/di"
	"github.com/kimyeonkyu7453/SPP/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s port=%d kafka=%t clickhouse=%t news=%t",
		cfg.Environment, cfg.Server.Port, cfg.Kafka.Enabled, cfg.ClickHouse.Enabled, cfg.News.Enabled)

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	err = app.Run()
	cleanup()
	if err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
