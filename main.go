package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"butcherdesk/cmd"
	"butcherdesk/internal/config"
	"butcherdesk/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		// Use default logger config if main config fails
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	lg := logger.WithComponent("main")
	lg.Info().Msg("Starting butcherdesk CLI")

	cmd.Execute(cfg)

	lg.Info().Msg("butcherdesk CLI shutdown")
	os.Exit(0)
}
