package main

import (
	"github.com/wfunc/simonbadge/config"
	"github.com/wfunc/simonbadge/logger"
	"github.com/wfunc/simonbadge/monitor"
	"github.com/wfunc/simonbadge/persistence"
	"github.com/wfunc/simonbadge/server"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	var db persistence.Database
	switch cfg.Recorder.Driver {
	case "pq":
		db, err = persistence.NewPostgreSQL(
			cfg.Recorder.Postgres.Host,
			cfg.Recorder.Postgres.Port,
			cfg.Recorder.Postgres.User,
			cfg.Recorder.Postgres.Password,
			cfg.Recorder.Postgres.DBName,
		)
	default:
		db, err = persistence.NewGormPostgreSQL(
			cfg.Recorder.Postgres.Host,
			cfg.Recorder.Postgres.Port,
			cfg.Recorder.Postgres.User,
			cfg.Recorder.Postgres.Password,
			cfg.Recorder.Postgres.DBName,
		)
	}
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")
	defer db.Close()

	metrics := monitor.NewRecorderMetrics("recorder")

	// Initialize Recorder Server
	recorder, err := server.NewRecorderServer(cfg.Recorder.Address, cfg.Recorder.RPCAddress, db, metrics)
	if err != nil {
		logger.Log.Fatalf("Failed to create recorder server: %v", err)
	}

	// Start Server
	logger.Log.Infof("Starting recorder server on %s", cfg.Recorder.Address)
	if err := recorder.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
