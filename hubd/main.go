package main

import (
	"github.com/wfunc/simonbadge/config"
	"github.com/wfunc/simonbadge/hub"
	"github.com/wfunc/simonbadge/logger"
	"github.com/wfunc/simonbadge/monitor"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	metrics := monitor.NewHubMetrics("hub")

	h := hub.NewHub(cfg.Hub.Address, metrics)
	logger.Log.Infof("Starting hub on %s", cfg.Hub.Address)
	if err := h.Start(); err != nil {
		logger.Log.Fatalf("Failed to start hub: %v", err)
	}
}
