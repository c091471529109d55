package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mpetrov/glucolog/internal/config"
)

func main() {
	fmt.Println("Checking configuration...")

	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Configuration invalid:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration valid!")
	fmt.Printf("  - DB Path: %s\n", cfg.DB.Path)
	fmt.Printf("  - Log Level: %v\n", cfg.Logger.Level)
	fmt.Printf("  - Log Output: %s\n", cfg.Logger.OutputPath)
	fmt.Printf("  - Log Format: %s\n", cfg.Logger.Format)
	fmt.Printf("  - Sync Enabled: %v\n", cfg.Sync.Enabled)
	fmt.Printf("  - Sync Interval: %s\n", cfg.Sync.Interval)
	fmt.Printf("  - Dexcom Username: %s\n", maskSecret(cfg.Dexcom.Username))
	fmt.Printf("  - Dexcom Password: %s\n", maskSecret(cfg.Dexcom.Password))
}

func maskSecret(value string) string {
	if value == "" {
		return "<not set>"
	}
	if len(value) <= 8 {
		return "***"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
