package server

import (
	"fmt"
	"time"
)

// Config configures the HTTP server.
type Config struct {
	// Address is the listen address (default: ":8080").
	Address string

	// ReadHeaderTimeout bounds reading request headers.
	ReadHeaderTimeout time.Duration

	// ReadTimeout bounds reading the whole request.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing the response. Hijacked live connections
	// are not affected.
	WriteTimeout time.Duration

	// IdleTimeout closes idle keep-alive connections.
	IdleTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration

	// RenderTimeout bounds how long a page render waits for data loads.
	RenderTimeout time.Duration

	// Title is the document title of rendered pages.
	Title string

	// RootID is the id of the element the page markup is rendered into.
	RootID string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		RenderTimeout:     5 * time.Second,
		Title:             "Storefront",
		RootID:            "root",
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("server: address is required")
	}
	if c.RenderTimeout <= 0 {
		return fmt.Errorf("server: render timeout must be positive, got %s", c.RenderTimeout)
	}
	if c.RootID == "" {
		return fmt.Errorf("server: root id is required")
	}
	return nil
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return DefaultConfig()
	}
	clone := *c
	return &clone
}
