package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gnishant95/forge/errors"
)

// Config is the complete gateway process configuration. Values come from
// an optional YAML file, then environment variables override file values,
// then defaults fill anything still unset.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Nginx    NginxConfig    `yaml:"nginx"`
	Promtail PromtailConfig `yaml:"promtail"`
	Redis    RedisConfig    `yaml:"redis"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Loki     LokiConfig     `yaml:"loki"`
	Docker   DockerConfig   `yaml:"docker"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ExternalHost    string        `yaml:"external_host"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig locates the durable route and log source files.
type StoreConfig struct {
	RoutesPath     string `yaml:"routes_path"`
	LogSourcesPath string `yaml:"log_sources_path"`
}

// NginxConfig controls the generated nginx artifact and its reload signal.
type NginxConfig struct {
	ConfPath      string        `yaml:"conf_path"`
	ContainerName string        `yaml:"container_name"`
	ReloadTimeout time.Duration `yaml:"reload_timeout"`
}

// PromtailConfig controls the generated Promtail artifact and its reload.
// Promtail re-reads its config on POST to its runtime reload endpoint.
type PromtailConfig struct {
	ConfPath      string        `yaml:"conf_path"`
	ReloadURL     string        `yaml:"reload_url"`
	ReloadTimeout time.Duration `yaml:"reload_timeout"`
}

// RedisConfig locates the cache backend.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
}

// Addr returns the host:port dial address.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MySQLConfig locates the database backend.
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// DSN returns the go-sql-driver connection string.
func (m MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/?parseTime=true", m.User, m.Password, m.Host, m.Port)
}

// LokiConfig locates the log aggregation backend.
type LokiConfig struct {
	URL string `yaml:"url"`
	Job string `yaml:"job"`
}

// DockerConfig controls the container inventory client.
type DockerConfig struct {
	SocketPath      string `yaml:"socket_path"`
	ContainerPrefix string `yaml:"container_prefix"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ExternalHost:    "localhost",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			RoutesPath:     "/app/config/routes.yaml",
			LogSourcesPath: "/app/config/log_sources.yaml",
		},
		Nginx: NginxConfig{
			ConfPath:      "/app/nginx/conf.d/routes.conf",
			ContainerName: "forge-nginx",
			ReloadTimeout: 10 * time.Second,
		},
		Promtail: PromtailConfig{
			ConfPath:      "/app/promtail/promtail-config.yml",
			ReloadURL:     "http://localhost:9080/reload",
			ReloadTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		MySQL: MySQLConfig{
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "forgeroot",
		},
		Loki: LokiConfig{
			URL: "http://localhost:3100",
			Job: "forge",
		},
		Docker: DockerConfig{
			SocketPath:      "/var/run/docker.sock",
			ContainerPrefix: "forge-",
		},
	}
}

// Load builds the effective configuration. path may be empty, meaning no
// file: defaults plus environment overrides only. A missing file at a
// non-empty path is an error; a present file must parse.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapFatal(err, "config", "Load", "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "parse config file")
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables. Variable
// names match the ones the deployment's compose files export.
func (c *Config) applyEnv() {
	setString(&c.Server.ExternalHost, "EXTERNAL_HOST")
	setInt(&c.Server.Port, "PORT")

	setString(&c.Store.RoutesPath, "ROUTES_CONFIG_PATH")
	setString(&c.Store.LogSourcesPath, "LOG_SOURCES_CONFIG_PATH")

	setString(&c.Nginx.ConfPath, "NGINX_CONF_PATH")
	setString(&c.Nginx.ContainerName, "NGINX_CONTAINER")

	setString(&c.Promtail.ConfPath, "PROMTAIL_CONF_PATH")
	setString(&c.Promtail.ReloadURL, "PROMTAIL_RELOAD_URL")

	setString(&c.Redis.Host, "REDIS_HOST")
	setInt(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	setString(&c.MySQL.Host, "MYSQL_HOST")
	setInt(&c.MySQL.Port, "MYSQL_PORT")
	setString(&c.MySQL.User, "MYSQL_USER")
	setString(&c.MySQL.Password, "MYSQL_PASSWORD")

	setString(&c.Loki.URL, "LOKI_URL")
	setString(&c.Loki.Job, "LOKI_JOB")

	setString(&c.Docker.SocketPath, "DOCKER_SOCKET")
	setString(&c.Docker.ContainerPrefix, "CONTAINER_PREFIX")
}

// Validate checks the configuration for values the gateway cannot start
// with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.WrapInvalid(
			fmt.Errorf("port %d out of range", c.Server.Port),
			"config", "Validate", "invalid server port")
	}
	if c.Store.RoutesPath == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"config", "Validate", "routes store path required")
	}
	if c.Store.LogSourcesPath == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"config", "Validate", "log sources store path required")
	}
	if c.Store.RoutesPath == c.Store.LogSourcesPath {
		return errors.WrapInvalid(
			fmt.Errorf("routes and log sources share path %s", c.Store.RoutesPath),
			"config", "Validate", "store paths must differ")
	}
	if c.Nginx.ConfPath == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"config", "Validate", "nginx conf path required")
	}
	if c.Promtail.ConfPath == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"config", "Validate", "promtail conf path required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
