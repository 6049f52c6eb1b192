// Package bootstrap builds the stores, resolver and orchestrator from
// configuration. Every binary wires itself through it.
package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cuongbtq/printq/internal/collaborator"
	"github.com/cuongbtq/printq/internal/config"
	"github.com/cuongbtq/printq/internal/domain"
	"github.com/cuongbtq/printq/internal/events"
	"github.com/cuongbtq/printq/internal/library"
	"github.com/cuongbtq/printq/internal/orchestrator"
	"github.com/cuongbtq/printq/internal/printer"
	"github.com/cuongbtq/printq/internal/queue"
	"github.com/cuongbtq/printq/internal/store"
	"github.com/cuongbtq/printq/shared/database"
	"github.com/cuongbtq/printq/shared/logger"
	"github.com/cuongbtq/printq/shared/rabbitmq"
)

// Collection names used by the SQL backends
const (
	QueueCollection   = "queue"
	LibraryCollection = "library"
)

// Services holds everything a command needs
type Services struct {
	Queue        *queue.Store
	Library      *library.Store
	Printers     *printer.Resolver
	Orchestrator *orchestrator.Orchestrator
	DB           *database.Client // nil for the file backend
	Broker       *rabbitmq.Client // nil when rabbitmq is disabled
}

// InitLogger initializes and configures the application logger
func InitLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
}

// InitDatabase opens the SQL database of a postgres or sqlite backend
func InitDatabase(cfg *config.StorageConfig, logger *slog.Logger) (*database.Client, error) {
	driver := database.DriverPostgres
	if cfg.Backend == config.BackendSQLite {
		driver = database.DriverSQLite
	}

	return database.NewClient(&database.Config{
		Driver:          driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, logger)
}

// RabbitMQConfig maps the rabbitmq section onto a client configuration that
// declares the print request queue
func RabbitMQConfig(cfg *config.RabbitMQConfig) *rabbitmq.Config {
	return &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		QueueName:          cfg.Requests.Name,
		QueueDurable:       cfg.Requests.Durable,
		BindingKey:         cfg.Requests.BindingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}
}

// NewRecordStores returns the queue and library storage for the configured
// backend. db must be non-nil for the SQL backends.
func NewRecordStores(ctx context.Context, cfg *config.StorageConfig, db *database.Client, logger *slog.Logger) (store.RecordStore[json.RawMessage], store.RecordStore[domain.LibraryJob], error) {
	if cfg.Backend == config.BackendFile {
		return store.NewFileStore[json.RawMessage](cfg.QueueFile, logger),
			store.NewFileStore[domain.LibraryJob](cfg.LibraryFile, logger),
			nil
	}

	if db == nil {
		return nil, nil, fmt.Errorf("storage backend %s needs a database", cfg.Backend)
	}

	queueRecords, err := store.NewSQLStore[json.RawMessage](ctx, db, QueueCollection, logger)
	if err != nil {
		return nil, nil, err
	}

	libraryRecords, err := store.NewSQLStore[domain.LibraryJob](ctx, db, LibraryCollection, logger)
	if err != nil {
		return nil, nil, err
	}

	return queueRecords, libraryRecords, nil
}

// NewServices wires every component described by cfg
func NewServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Services, err error) {
	s := &Services{}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	if cfg.Storage.Backend != config.BackendFile {
		if s.DB, err = InitDatabase(&cfg.Storage, logger); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	queueRecords, libraryRecords, err := NewRecordStores(ctx, &cfg.Storage, s.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	stagingDir, err := filepath.Abs(cfg.Storage.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve staging dir: %w", err)
	}

	s.Queue = queue.NewStore(queueRecords, logger)
	s.Library = library.NewStore(libraryRecords, s.Queue, stagingDir, logger)
	s.Printers = printer.NewResolver(printer.NewConfigSource(cfg.PrintersFile, cfg.Printers, logger), logger)

	generator, err := collaborator.NewGenerator(cfg.Generator.Command, cfg.Generator.Timeout, logger)
	if err != nil {
		return nil, err
	}
	uploader, err := collaborator.NewUploader(cfg.Uploader.Command, cfg.Uploader.Timeout, logger)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQ.Enabled {
		if s.Broker, err = rabbitmq.NewClient(RabbitMQConfig(&cfg.RabbitMQ), logger); err != nil {
			return nil, fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		publisher = events.NewAMQPPublisher(s.Broker, cfg.RabbitMQ.Events.RoutingPrefix, logger)
	}

	s.Orchestrator = orchestrator.New(&orchestrator.Config{
		Generator: generator,
		Uploader:  uploader,
		Queue:     s.Queue,
		Printers:  s.Printers,
		Events:    publisher,
		Logger:    logger,
	})

	return s, nil
}

// HealthCheck reports whether the database and the broker are reachable
func (s *Services) HealthCheck(ctx context.Context) error {
	if s.DB != nil {
		if err := s.DB.HealthCheck(ctx); err != nil {
			return err
		}
	}
	if s.Broker != nil && !s.Broker.IsConnected() {
		return rabbitmq.ErrNotConnected
	}
	return nil
}

// Close releases the database and broker connections
func (s *Services) Close() error {
	var errs []error
	if s.Broker != nil {
		errs = append(errs, s.Broker.Close())
	}
	if s.DB != nil {
		errs = append(errs, s.DB.Close())
	}
	return errors.Join(errs...)
}
