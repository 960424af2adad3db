package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/tradein-core/internal/alias"
	"github.com/nerrad567/tradein-core/internal/catalog"
	"github.com/nerrad567/tradein-core/internal/infrastructure/config"
	"github.com/nerrad567/tradein-core/internal/infrastructure/logging"
	"github.com/nerrad567/tradein-core/internal/resolver"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Resolver is satisfied by *resolver.Engine.
type Resolver interface {
	MatchToLibrary(ctx context.Context, mk, model, storage, category string) (resolver.MatchResult, error)
	MatchDeviceString(ctx context.Context, raw, category string) (resolver.MatchResult, error)
	ResolveBatch(ctx context.Context, rows []string, category string) ([]resolver.RowResult, error)
	SaveAlias(ctx context.Context, text, deviceID, createdBy string) error
}

// Library is satisfied by *catalog.Cache.
type Library interface {
	Get(ctx context.Context) ([]catalog.LibraryDevice, error)
	Refresh(ctx context.Context) ([]catalog.LibraryDevice, error)
	LoadedAt() time.Time
}

// AliasLister is satisfied by *alias.SQLiteRepository.
type AliasLister interface {
	List(ctx context.Context) ([]alias.Alias, error)
	ListByDevice(ctx context.Context, deviceID string) ([]alias.Alias, error)
}

// DeviceStatus toggles whether a library device takes part in resolution.
// *catalog.SQLiteRepository satisfies it.
type DeviceStatus interface {
	SetActive(ctx context.Context, id string, active bool) error
}

// CatalogNotifier announces library changes to other instances.
// *events.Publisher satisfies it.
type CatalogNotifier interface {
	PublishCatalogChanged(reason string) error
}

// ConnectionStatus reports whether an optional backend is reachable.
type ConnectionStatus interface {
	IsConnected() bool
}

// ResolutionStats is satisfied by *influxdb.Client.
type ResolutionStats interface {
	ResolutionCounts(ctx context.Context, window time.Duration) (map[string]int64, error)
}

// ManifestRecorder is satisfied by *influxdb.Client.
type ManifestRecorder interface {
	WriteManifestMetric(category string, total, autoPriced, review, manual int)
}

// Deps holds the dependencies required by the API server.
// Resolver, Library, Aliases and Logger are required; the rest may be nil.
type Deps struct {
	Config       config.APIConfig
	MaxBatchRows int
	Logger       *logging.Logger
	Resolver     Resolver
	Library      Library
	Aliases      AliasLister
	Devices      DeviceStatus
	DB           *sql.DB
	Notifier     CatalogNotifier
	MQTT         ConnectionStatus
	InfluxDB     ConnectionStatus
	Stats        ResolutionStats
	Manifests    ManifestRecorder
	Version      string
}

// Server is the HTTP API server.
type Server struct {
	cfg          config.APIConfig
	maxBatchRows int
	logger       *logging.Logger
	resolver     Resolver
	library      Library
	aliases      AliasLister
	devices      DeviceStatus
	db           *sql.DB
	notifier     CatalogNotifier
	mqtt         ConnectionStatus
	influx       ConnectionStatus
	stats        ResolutionStats
	manifests    ManifestRecorder
	version      string
	startTime    time.Time
	server       *http.Server
}

// New creates a new API server. The server is not started until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if deps.Library == nil {
		return nil, fmt.Errorf("library is required")
	}
	if deps.Aliases == nil {
		return nil, fmt.Errorf("alias store is required")
	}

	maxRows := deps.MaxBatchRows
	if maxRows < 1 {
		maxRows = defaultMaxBatchRows
	}

	return &Server{
		cfg:          deps.Config,
		maxBatchRows: maxRows,
		logger:       deps.Logger,
		resolver:     deps.Resolver,
		library:      deps.Library,
		aliases:      deps.Aliases,
		devices:      deps.Devices,
		db:           deps.DB,
		notifier:     deps.Notifier,
		mqtt:         deps.MQTT,
		influx:       deps.InfluxDB,
		stats:        deps.Stats,
		manifests:    deps.Manifests,
		version:      deps.Version,
		startTime:    time.Now(),
	}, nil
}

// Handler returns the fully wired router. Start uses it; tests call it directly.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start launches the HTTP listener in a background goroutine.
// The server can be stopped with Close.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close waits up to gracefulShutdownTimeout for in-flight requests, then
// closes the listener.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
