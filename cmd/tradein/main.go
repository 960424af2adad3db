// Trade-in Core - device identity resolution service
//
// This is the main entry point for the trade-in core. It resolves the
// device descriptors found on trade-in manifests and IMEI lookups to
// canonical devices in the reference library, so that rows can be priced
// automatically or routed for review.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/nerrad567/tradein-core/migrations"

	"github.com/nerrad567/tradein-core/internal/alias"
	"github.com/nerrad567/tradein-core/internal/api"
	"github.com/nerrad567/tradein-core/internal/catalog"
	"github.com/nerrad567/tradein-core/internal/events"
	"github.com/nerrad567/tradein-core/internal/infrastructure/config"
	"github.com/nerrad567/tradein-core/internal/infrastructure/database"
	"github.com/nerrad567/tradein-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/tradein-core/internal/infrastructure/logging"
	"github.com/nerrad567/tradein-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/tradein-core/internal/resolver"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	defaultEnvFile    = ".env"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		err = runMigrate(ctx, os.Args[2:])
	} else {
		err = run(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting trade-in core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	if err := loadEnvFile(); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, database.Config{
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Reference library
	libraryRepo := catalog.NewSQLiteRepository(db.DB)
	if seedErr := seedLibrary(ctx, cfg, libraryRepo, log); seedErr != nil {
		return seedErr
	}
	library := catalog.NewCache(libraryRepo, cfg.GetCacheTTL())
	library.SetLogger(log)

	devices, err := library.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("loading library: %w", err)
	}
	log.Info("library loaded", "devices", len(devices), "ttl", cfg.GetCacheTTL().String())

	// Resolver
	extractor, err := newExtractor(cfg)
	if err != nil {
		return err
	}
	aliasRepo := alias.NewSQLiteRepository(db.DB)
	engine := resolver.NewEngine(library, aliasRepo, extractor, resolver.Options{
		AutoAlias:          cfg.Resolver.AutoAlias,
		AutoAliasCreatedBy: cfg.Resolver.AutoAliasCreatedBy,
		BatchWorkers:       cfg.Resolver.BatchWorkers,
	})
	engine.SetLogger(log)

	deps := api.Deps{
		Config:       cfg.API,
		MaxBatchRows: cfg.Resolver.MaxBatchRows,
		Logger:       log,
		Resolver:     engine,
		Library:      library,
		Aliases:      aliasRepo,
		Devices:      libraryRepo,
		DB:           db.DB,
		Version:      version,
	}

	// MQTT (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = connectMQTT(ctx, cfg, engine, library, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()

		publisher := events.NewPublisher(mqttClient)
		engine.SetPublisher(publisher)
		deps.Notifier = publisher
		deps.MQTT = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
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

		engine.SetMetrics(influxClient)
		deps.InfluxDB = influxClient
		deps.Stats = influxClient
		deps.Manifests = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	server, err := api.New(deps)
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

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, database.
	log.Info("trade-in core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses TRADEIN_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TRADEIN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadEnvFile loads TRADEIN_* overrides from a .env file into the process
// environment. Variables already set are not overwritten. A missing file is
// not an error.
func loadEnvFile() error {
	path := os.Getenv("TRADEIN_ENV_FILE")
	if path == "" {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// seedLibrary upserts the configured seed file into the library store.
func seedLibrary(ctx context.Context, cfg *config.Config, repo catalog.Repository, log *logging.Logger) error {
	if cfg.Catalog.SeedFile == "" {
		return nil
	}

	devices, err := catalog.LoadSeedFile(cfg.Catalog.SeedFile)
	if err != nil {
		return fmt.Errorf("loading library seed: %w", err)
	}
	n, err := catalog.Seed(ctx, repo, devices)
	if err != nil {
		return fmt.Errorf("seeding library: %w", err)
	}
	log.Info("library seeded", "path", cfg.Catalog.SeedFile, "devices", n)
	return nil
}

// newExtractor builds the descriptor extractor from the configured brand
// table, or the built-in table when none is configured.
func newExtractor(cfg *config.Config) (*resolver.Extractor, error) {
	if cfg.Resolver.BrandTableFile == "" {
		return resolver.NewExtractor(nil), nil
	}
	brands, err := resolver.LoadBrandTable(cfg.Resolver.BrandTableFile)
	if err != nil {
		return nil, fmt.Errorf("loading brand table: %w", err)
	}
	return resolver.NewExtractor(brands), nil
}

// connectMQTT connects to the broker and starts the command listener.
func connectMQTT(ctx context.Context, cfg *config.Config, engine *resolver.Engine, library *catalog.Cache, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	listener := events.NewListener(client, engine, library)
	listener.SetLogger(log)
	if err := listener.Start(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("starting MQTT listener: %w", err)
	}
	return client, nil
}

// healthCheck verifies the infrastructure connections. mqttClient and
// influxClient are nil when disabled.
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
