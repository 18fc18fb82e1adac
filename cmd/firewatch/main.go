// Firewatch Core - Community Fire-Safety Registry
//
// This is the main entry point for the Firewatch Core application.
// Firewatch keeps a barangay-scale registry of households and their
// fire-safety sensors, and serves the dashboard that civil-protection
// operators use to monitor risk:
//   - Household registry with risk levels and safety scores
//   - Sensor registration and live reading ingestion over MQTT
//   - Derived dashboard views (filters, sorts, risk badges)
//   - Operator workflow for edits and device registration
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/emberwell/firewatch-core/migrations"

	"github.com/emberwell/firewatch-core/internal/alert"
	"github.com/emberwell/firewatch-core/internal/api"
	"github.com/emberwell/firewatch-core/internal/audit"
	"github.com/emberwell/firewatch-core/internal/device"
	"github.com/emberwell/firewatch-core/internal/household"
	"github.com/emberwell/firewatch-core/internal/infrastructure/config"
	"github.com/emberwell/firewatch-core/internal/infrastructure/database"
	"github.com/emberwell/firewatch-core/internal/infrastructure/influxdb"
	"github.com/emberwell/firewatch-core/internal/infrastructure/logging"
	"github.com/emberwell/firewatch-core/internal/infrastructure/mqtt"
	"github.com/emberwell/firewatch-core/internal/workflow"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Firewatch Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise household registry
	householdRepo := household.NewSQLiteRepository(db.DB)
	households := household.NewRegistry(householdRepo)
	households.SetLogger(log)

	if refreshErr := households.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading household registry: %w", refreshErr)
	}
	log.Info("household registry initialised", "households", households.GetHouseholdCount())

	// Initialise device registry
	deviceRepo := device.NewSQLiteRepository(db.DB)
	devices := device.NewRegistry(deviceRepo, households)
	devices.SetLogger(log)

	// Audit trail
	auditRepo := audit.NewSQLiteRepository(db.DB)
	auditRecorder := audit.NewRecorder(auditRepo, log)

	// Operator workflow controller for the dashboard session
	workflowStore := workflow.NewRegistryStore(households, devices)
	confirmDismiss := time.Duration(cfg.Workflow.ConfirmDismiss) * time.Second
	controller := workflow.NewController(workflowStore, confirmDismiss)
	controller.SetLogger(log)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		// Set up MQTT logging callbacks
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled; live sensor ingestion off")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		// Set up InfluxDB error callback
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// The hub is created here rather than inside the API server so the
	// alert engine can broadcast on it too.
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// Alert engine (optional)
	var alertEngine *alert.Engine
	if cfg.Alerts.Enabled {
		thresholds := alert.Thresholds{
			Smoke:       cfg.Alerts.Smoke,
			Temperature: cfg.Alerts.Temperature,
			Gas:         cfg.Alerts.Gas,
		}
		var alertMQTT alert.MQTTClient
		if mqttClient != nil {
			alertMQTT = mqttClient
		}
		alertEngine = alert.NewEngine(thresholds, alertMQTT, hub, auditRecorder, log)
		log.Info("alert engine enabled",
			"smoke", thresholds.Smoke,
			"temperature", thresholds.Temperature,
			"gas", thresholds.Gas,
		)
	} else {
		log.Info("alert engine disabled")
	}

	// Start the API server
	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Households:  households,
		Devices:     devices,
		Workflow:    controller,
		Audit:       auditRecorder,
		AuditRepo:   auditRepo,
		Alerts:      alertEngine,
		MQTT:        mqttClient,
		TSDB:        influxClient,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("Firewatch Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses FIREWATCH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FIREWATCH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT (if enabled)
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
