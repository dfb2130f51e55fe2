package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/vango-dev/storefront/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "storefront.json"

	// EnvPrefix prefixes environment overrides, e.g. STOREFRONT_SERVER_PORT.
	EnvPrefix = "STOREFRONT"

	// DefaultPort is the default server port.
	DefaultPort = 8080

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultToastDuration is how long a toast stays visible.
	DefaultToastDuration = 3 * time.Second
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendS3     = "s3"
)

// Config represents the complete storefront.json configuration.
type Config struct {
	// Name is the document title of rendered pages.
	Name string `mapstructure:"name"`

	// BaseURL is the path prefix all routes live under.
	BaseURL string `mapstructure:"baseUrl"`

	// RootID is the id of the root container.
	RootID string `mapstructure:"rootId"`

	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Toast   ToastConfig   `mapstructure:"toast"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	// configPath stores the path the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// RenderTimeout bounds a server render (e.g. "5s").
	RenderTimeout time.Duration `mapstructure:"renderTimeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

// StorageConfig selects where the cart record lives.
type StorageConfig struct {
	// Backend is "memory", "file" or "s3".
	Backend string `mapstructure:"backend"`

	// Path is the file backend's document.
	Path string `mapstructure:"path"`

	// Key is the cart record key.
	Key string `mapstructure:"key"`

	S3 S3Config `mapstructure:"s3"`
}

// S3Config contains S3 backend settings.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	UsePathStyle    bool   `mapstructure:"usePathStyle"`
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
}

// ToastConfig contains toast settings.
type ToastConfig struct {
	Duration time.Duration `mapstructure:"duration"`
}

// CatalogConfig selects the product source. An empty Path uses the
// built-in fixture.
type CatalogConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `mapstructure:"level"`

	// Format is "text" or "json".
	Format string `mapstructure:"format"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Name:   "Storefront",
		RootID: "root",
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			RenderTimeout:   5 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Key:     "cart",
		},
		Toast: ToastConfig{Duration: DefaultToastDuration},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "storefront",
		},
	}
}

// setDefaults registers every key on v so environment overrides apply even
// when the file omits the key.
func setDefaults(v *viper.Viper) {
	d := New()
	v.SetDefault("name", d.Name)
	v.SetDefault("baseUrl", d.BaseURL)
	v.SetDefault("rootId", d.RootID)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.renderTimeout", d.Server.RenderTimeout)
	v.SetDefault("server.shutdownTimeout", d.Server.ShutdownTimeout)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.key", d.Storage.Key)
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.usePathStyle", false)
	v.SetDefault("storage.s3.accessKeyId", "")
	v.SetDefault("storage.s3.secretAccessKey", "")

	v.SetDefault("toast.duration", d.Toast.Duration)

	v.SetDefault("catalog.path", d.Catalog.Path)
	v.SetDefault("catalog.watch", d.Catalog.Watch)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	// STOREFRONT_STORAGE_S3_BUCKET for storage.s3.bucket
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads storefront.json from dir. A missing file is not an error: the
// defaults and environment apply.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	cfg, err := LoadFile(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return decode(newViper(), "")
	}
	return cfg, err
}

// LoadFile reads the config at path. The file must exist.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.New("E105").
			WithDetail(fmt.Sprintf("%s: %v", path, err)).
			Wrap(err)
	}
	return decode(v, path)
}

func decode(v *viper.Viper, path string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.New("E105").WithDetail(err.Error()).Wrap(err)
	}
	cfg.configPath = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return apperrors.New("E102").WithDetail(fmt.Sprintf("server.port is %d", c.Server.Port))
	}
	if c.Toast.Duration <= 0 {
		return apperrors.New("E103").WithDetail(fmt.Sprintf("toast.duration is %s", c.Toast.Duration))
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Storage.Path == "" {
			return apperrors.New("E104")
		}
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			return apperrors.New("E101")
		}
	default:
		return apperrors.New("E100").WithDetail(fmt.Sprintf("storage.backend is %q", c.Storage.Backend))
	}
	return nil
}

// Path returns the path the config was loaded from, or "".
func (c *Config) Path() string {
	return c.configPath
}

// Address returns the server listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// URL returns the server's base URL.
func (c *Config) URL() string {
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Server.Port)) + strings.TrimSuffix(c.BaseURL, "/") + "/"
}
