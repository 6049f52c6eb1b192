package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cuongbtq/printq/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Storage backends
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config represents the complete application configuration
type Config struct {
	App          AppConfig              `yaml:"app"`
	Logging      LoggingConfig          `yaml:"logging"`
	Storage      StorageConfig          `yaml:"storage"`
	Printers     []domain.PrinterConfig `yaml:"printers"`
	PrintersFile string                 `yaml:"printers_file"`
	Generator    CommandConfig          `yaml:"generator"`
	Uploader     CommandConfig          `yaml:"uploader"`
	Server       ServerConfig           `yaml:"server"`
	RabbitMQ     RabbitMQConfig         `yaml:"rabbitmq"`
	Worker       WorkerConfig           `yaml:"worker"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// StorageConfig selects where the queue and the library are persisted
type StorageConfig struct {
	Backend     string         `yaml:"backend"`
	QueueFile   string         `yaml:"queue_file"`
	LibraryFile string         `yaml:"library_file"`
	StagingDir  string         `yaml:"staging_dir"`
	Database    DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds SQL connection configuration. Path is used by sqlite only.
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// CommandConfig describes an external program and its time limit
type CommandConfig struct {
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RabbitMQConfig holds RabbitMQ connection and topology configuration.
// Events are published to Exchange; the worker consumes Requests.
type RabbitMQConfig struct {
	Enabled    bool             `yaml:"enabled"`
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Events     EventsConfig     `yaml:"events"`
	Requests   QueueConfig      `yaml:"requests"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Durable bool   `yaml:"durable"`
}

// EventsConfig holds job event publishing settings
type EventsConfig struct {
	RoutingPrefix string `yaml:"routing_prefix"`
}

// QueueConfig holds the print request queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	BindingKey string `yaml:"binding_key"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// WorkerConfig holds worker service configuration
type WorkerConfig struct {
	ID              string        `yaml:"id"`
	JobTimeout      time.Duration `yaml:"job_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Load reads and parses the configuration file and applies defaults
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults fills every unset field that has a sensible default, so a
// config holding only printers and collaborator commands is usable
func (c *Config) ApplyDefaults() {
	setDefault(&c.App.Name, "printq")
	setDefault(&c.App.Environment, "development")

	setDefault(&c.Logging.Level, "info")
	setDefault(&c.Logging.Format, "console")
	setDefault(&c.Logging.Output, "stderr")

	setDefault(&c.Storage.Backend, BackendFile)
	setDefault(&c.Storage.QueueFile, "print_queue.json")
	setDefault(&c.Storage.LibraryFile, "job_library.json")
	setDefault(&c.Storage.StagingDir, "queue_jobs")
	setDefault(&c.Storage.Database.SSLMode, "disable")
	setDefault(&c.Storage.Database.Path, "printq.db")
	if c.Storage.Database.Port == 0 {
		c.Storage.Database.Port = 5432
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	setDuration(&c.Server.ReadTimeout, 15*time.Second)
	setDuration(&c.Server.WriteTimeout, 10*time.Minute) // start runs generation synchronously
	setDuration(&c.Server.IdleTimeout, 60*time.Second)
	setDuration(&c.Server.ShutdownTimeout, 30*time.Second)

	if c.RabbitMQ.Port == 0 {
		c.RabbitMQ.Port = 5672
	}
	setDefault(&c.RabbitMQ.VHost, "/")
	setDefault(&c.RabbitMQ.Exchange.Name, "printq")
	setDefault(&c.RabbitMQ.Exchange.Type, "topic")
	setDefault(&c.RabbitMQ.Events.RoutingPrefix, "job")
	setDefault(&c.RabbitMQ.Requests.Name, "printq.print_requests")
	setDefault(&c.RabbitMQ.Requests.BindingKey, "print.request")
	if c.RabbitMQ.Connection.RetryAttempts == 0 {
		c.RabbitMQ.Connection.RetryAttempts = 5
	}
	setDuration(&c.RabbitMQ.Connection.RetryInterval, 2*time.Second)
	setDuration(&c.RabbitMQ.Connection.Heartbeat, 10*time.Second)

	setDuration(&c.Worker.JobTimeout, 30*time.Minute)
	setDuration(&c.Worker.ShutdownTimeout, 30*time.Second)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func setDuration(field *time.Duration, value time.Duration) {
	if *field == 0 {
		*field = value
	}
}

// ValidateCLIConfig checks what every command that touches storage or
// printers needs
func (c *Config) ValidateCLIConfig() error {
	var errs []error

	if err := c.validateStorage(); err != nil {
		errs = append(errs, err)
	}

	if len(c.Generator.Command) == 0 {
		errs = append(errs, errors.New("generator command is required"))
	}

	if len(c.Uploader.Command) == 0 {
		errs = append(errs, errors.New("uploader command is required"))
	}

	if c.RabbitMQ.Enabled {
		if err := c.validateRabbitMQ(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ValidateAPIConfig checks the configuration of the API service
func (c *Config) ValidateAPIConfig() error {
	if err := c.ValidateCLIConfig(); err != nil {
		return err
	}

	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	return nil
}

// ValidateWorkerConfig checks the configuration of the worker service, which
// cannot run without RabbitMQ
func (c *Config) ValidateWorkerConfig() error {
	if err := c.ValidateCLIConfig(); err != nil {
		return err
	}

	if !c.RabbitMQ.Enabled {
		return fmt.Errorf("rabbitmq must be enabled for the worker")
	}

	if c.Worker.JobTimeout <= 0 {
		return fmt.Errorf("worker job_timeout must be greater than 0")
	}

	if c.Worker.ShutdownTimeout <= 0 {
		return fmt.Errorf("worker shutdown_timeout must be greater than 0")
	}

	return nil
}

func (c *Config) validateStorage() error {
	s := c.Storage
	switch s.Backend {
	case BackendFile:
		if s.QueueFile == "" || s.LibraryFile == "" {
			return fmt.Errorf("storage queue_file and library_file are required")
		}
	case BackendPostgres:
		if s.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if s.Database.Port < MinPort || s.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", s.Database.Port, MinPort, MaxPort)
		}
		if s.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	case BackendSQLite:
		if s.Database.Path == "" {
			return fmt.Errorf("database path is required")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %q", s.Backend)
	}

	if s.StagingDir == "" {
		return fmt.Errorf("storage staging_dir is required")
	}

	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Requests.Name == "" {
		return fmt.Errorf("rabbitmq requests queue name is required")
	}

	return nil
}
