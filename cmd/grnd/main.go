// GRN Core - Warehouse Goods Receipt Service
//
// This is the main entry point for the GRN Core application. It exposes a
// REST and WebSocket API to warehouse handheld clients and drives receipt
// submission against the backing ERP:
//   - Order lookup with GTIN enrichment
//   - GS1 barcode decoding and delivery-slip prefill
//   - Strictly sequential batch submission with per-part progress
//   - Attachment caching and post-submission upload
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/warelogic/grn-core/migrations"

	"github.com/warelogic/grn-core/internal/api"
	"github.com/warelogic/grn-core/internal/attachment"
	"github.com/warelogic/grn-core/internal/erp"
	"github.com/warelogic/grn-core/internal/infrastructure/config"
	"github.com/warelogic/grn-core/internal/infrastructure/database"
	"github.com/warelogic/grn-core/internal/infrastructure/influxdb"
	"github.com/warelogic/grn-core/internal/infrastructure/logging"
	"github.com/warelogic/grn-core/internal/infrastructure/mqtt"
	"github.com/warelogic/grn-core/internal/receipt"
)

// Set at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
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
	log.Info("starting GRN Core",
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

	// Ensure the attachment cache directory exists
	if mkErr := os.MkdirAll(cfg.Attachments.Dir, 0o700); mkErr != nil {
		return fmt.Errorf("creating attachment directory: %w", mkErr)
	}

	// ERP client serves order lookup, submission, and attachment upload
	erpClient, err := erp.NewClient(cfg.ERP)
	if err != nil {
		return fmt.Errorf("creating ERP client: %w", err)
	}
	log.Info("ERP client configured", "base_url", cfg.ERP.BaseURL)

	// Repositories over the shared database
	attachmentRepo := attachment.NewSQLiteRepository(db.DB)
	historyRepo := receipt.NewSQLiteRepository(db.DB)

	// Batch progress observers. The WebSocket hub is created up front so
	// the orchestrator can broadcast through it; the API server adopts it
	// on Start().
	hub := api.NewHub(cfg.WebSocket, log.With("component", "websocket"))
	observers := []receipt.Observer{api.NewProgressBroadcaster(hub)}

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
		observers = append(observers, mqtt.NewProgressPublisher(mqttClient, log.With("component", "mqtt")))
	} else {
		log.Info("MQTT disabled")
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

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		observers = append(observers, influxdb.NewTelemetry(influxClient))
	} else {
		log.Info("InfluxDB disabled")
	}

	// Receipt workflow: orchestrator, attachment uploader, history
	orchestrator := receipt.NewOrchestrator(erpClient, log.With("component", "orchestrator"), observers...)
	uploader := attachment.NewUploader(attachmentRepo, erpClient, log.With("component", "attachments"))
	workflow := receipt.NewWorkflow(
		receipt.WorkflowConfig{
			OrganizationCode: cfg.Workflow.OrganizationCode,
			BusinessUnit:     cfg.Workflow.BusinessUnit,
			LegalEntity:      cfg.Workflow.LegalEntity,
			EmployeeID:       cfg.Workflow.EmployeeID,
		},
		erpClient,
		orchestrator,
		uploader,
		historyRepo,
		log.With("component", "workflow"),
	)

	// HTTP API server
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Scanning: cfg.Scanning,
		Logger:   log.With("component", "api"),
		Service:  workflow,
		Batches:  historyRepo,

		Attachments: attachmentRepo,
		AttachDir:   cfg.Attachments.Dir,

		Hub:     hub,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
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

	log.Info("GRN Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRNCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRNCORE_CONFIG"); path != "" {
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
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
