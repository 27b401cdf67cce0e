package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/haierkeys/fast-note-web/internal/app"
	"github.com/haierkeys/fast-note-web/internal/task"
)

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	absPath, _ := filepath.Abs(configPath)
	fmt.Printf("Loading config from: %s\n", absPath)

	cfg, _, err := app.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("Backend Configuration Loaded:")
	fmt.Printf("URL: %s\n", cfg.Backend.URL)
	fmt.Printf("AnonKey set: %v\n", cfg.Backend.AnonKey != "")
	fmt.Printf("FlowType: %s\n", cfg.Backend.FlowType)
	fmt.Printf("Timeout: %s\n", cfg.GetBackendTimeout())

	fmt.Println("Workspace Configuration Loaded:")
	fmt.Printf("Cookie: %s (secure=%v)\n", cfg.Workspace.CookieName, cfg.Workspace.CookieSecure)
	fmt.Printf("IdleTimeout: %s\n", cfg.GetIdleTimeout())
	fmt.Printf("SweepCron: %s\n", cfg.Workspace.SweepCron)

	if cfg.Backend.URL == "" {
		log.Fatal("backend.url is required")
	}
	if cfg.Backend.FlowType != "pkce" && cfg.Backend.FlowType != "implicit" {
		log.Fatalf("backend.flow-type must be pkce or implicit, got '%s'", cfg.Backend.FlowType)
	}
	if _, err := task.ParseSchedule(cfg.Workspace.SweepCron); err != nil {
		log.Fatalf("workspace.sweep-cron invalid: %v", err)
	}
}
