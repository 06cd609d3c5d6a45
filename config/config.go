// Package config loads broker connection settings from the environment.
package config

import (
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the RabbitMQ connection settings. Required values must be
// present in the environment (or a .env file) at startup.
type Config struct {
	Host        string `envconfig:"RABBITMQ_HOST" required:"true"`
	Port        string `envconfig:"RABBITMQ_PORT" default:"5672"`
	User        string `envconfig:"RABBITMQ_USER" required:"true"`
	Password    string `envconfig:"RABBITMQ_PASSWORD" required:"true"`
	VirtualHost string `envconfig:"RABBITMQ_VIRTUAL_HOST" default:"/"`
}

// Load reads configuration from the environment, falling back to a .env file
// in the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: unable to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}

// MustLoad is like Load but exits the process on error. Missing required
// settings are a startup-time fatal condition.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("loading rabbitmq configuration: %v", err)
	}
	return cfg
}

// URL returns a connection URI for the rabbitmq/amqp091-go package.
func (c *Config) URL() string {
	vhost := c.VirtualHost
	if vhost == "/" {
		vhost = ""
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.PathEscape(vhost),
	)
}
