package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/config.yaml"

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	Storage    `yaml:"storage"`
	Postgres   `yaml:"postgres"`
	Tokens     `yaml:"tokens"`
	RabbitMQ   `yaml:"rabbitmq"`
	Notify     `yaml:"notify"`
	Redis      `yaml:"redis"`
	Email      `yaml:"email"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	FrontendURL string        `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:3000"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"postgres"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Tokens struct {
	SessionTokenTTL    time.Duration `yaml:"session_token_ttl" env-default:"168h"`
	SessionTokenSecret string        `yaml:"session_token_secret" env:"SESSION_TOKEN_SECRET"`
	ResetTokenTTL      time.Duration `yaml:"reset_token_ttl" env-default:"1h"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL"`
	QueueName string `yaml:"queue_name" env:"RABBITMQ_QUEUE" env-default:"emails"`
}

// Notify bounds how long a single outbound email dispatch may take.
type Notify struct {
	Timeout  time.Duration `yaml:"timeout" env-default:"5s"`
	Attempts uint64        `yaml:"attempts" env-default:"3"`
	Backoff  time.Duration `yaml:"backoff" env-default:"500ms"`
}

type Redis struct {
	Address  string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env-default:"0"`
	DedupTTL time.Duration `yaml:"dedup_ttl" env-default:"24h"`
}

type Email struct {
	Host     string `yaml:"host" env:"EMAIL_HOST"`
	Port     int    `yaml:"port" env:"EMAIL_PORT" env-default:"587"`
	Username string `yaml:"username" env:"EMAIL_USER"`
	Password string `yaml:"password" env:"EMAIL_PASS"`
	From     string `yaml:"from" env:"EMAIL_FROM"`
}

// MustLoad reads the API config or panics. An empty path falls back to
// CONFIG_PATH and then to ./config/config.yaml.
func MustLoad(configPath string) *Config {
	return must(LoadAPI(configPath))
}

// MustLoadMailSender reads the config for the mail consumer or panics.
func MustLoadMailSender(configPath string) *Config {
	return must(LoadMailSender(configPath))
}

func must(cfg *Config, err error) *Config {
	if err != nil {
		panic("Failed to read config: " + err.Error())
	}

	return cfg
}

func LoadAPI(configPath string) (*Config, error) {
	return loadChecked(configPath, (*Config).ValidateAPI)
}

func LoadMailSender(configPath string) (*Config, error) {
	return loadChecked(configPath, (*Config).ValidateMailSender)
}

func loadChecked(configPath string, check func(*Config) error) (*Config, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := check(cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// Load reads the file and the environment and fills defaults. Settings that
// only one binary needs are checked by ValidateAPI and ValidateMailSender.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: config file does not exist: %s", op, configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Notify.Attempts == 0 {
		cfg.Notify.Attempts = 1
	}

	return &cfg, nil
}

func (c *Config) ValidateAPI() error {
	if c.Tokens.SessionTokenSecret == "" {
		return errors.New("tokens.session_token_secret is required")
	}
	if c.Tokens.SessionTokenTTL <= 0 {
		return errors.New("tokens.session_token_ttl must be positive")
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Postgres.User == "" || c.Postgres.DBName == "" {
			return errors.New("postgres.user and postgres.dbname are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	return nil
}

// ValidateMailSender checks what the mail consumer needs to start.
func (c *Config) ValidateMailSender() error {
	if c.RabbitMQ.URL == "" {
		return errors.New("rabbitmq.url is required")
	}

	return nil
}

// DSN builds the pgx connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		p.Host,
		p.Port,
		p.User,
		p.Password,
		p.DBName,
		p.SSLMode,
	)
}
