// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"wagerquiz/internal/services/questions"
)

// Config is everything the server reads from the environment.
type Config struct {
	Host string `env:"WAGERQUIZ_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"WAGERQUIZ_PORT" envDefault:"8172"`

	// Questions
	QuestionsFile  string           `env:"WAGERQUIZ_QUESTIONS_FILE"`
	QuestionSource questions.Policy `env:"WAGERQUIZ_QUESTION_SOURCE" envDefault:"file"`
	NumbersAPIURL  string           `env:"WAGERQUIZ_NUMBERS_API_URL" envDefault:"http://numbersapi.com/random/trivia?json"`
	FetchTimeout   time.Duration    `env:"WAGERQUIZ_FETCH_TIMEOUT" envDefault:"3s"`
	FetchAttempts  uint             `env:"WAGERQUIZ_FETCH_ATTEMPTS" envDefault:"5"`
	FetchBackoff   time.Duration    `env:"WAGERQUIZ_FETCH_BACKOFF" envDefault:"200ms"`

	// Events
	NATSURL           string `env:"WAGERQUIZ_NATS_URL"`
	NATSSubjectPrefix string `env:"WAGERQUIZ_NATS_SUBJECT_PREFIX" envDefault:"wagerquiz"`

	// Cluster
	ConsulAddrs   string `env:"CONSUL_HTTP_ADDR"`
	ServiceName   string `env:"WAGERQUIZ_SERVICE_NAME" envDefault:"wagerquiz"`
	AdvertiseHost string `env:"SERVICE_ADVERTISED_HOSTNAME"`

	ShutdownTimeout time.Duration `env:"WAGERQUIZ_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses the environment and fills in what can only be known at run
// time, such as the advertised hostname.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.AdvertiseHost == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not determine hostname: %w", err)
		}
		cfg.AdvertiseHost = hostname
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("WAGERQUIZ_PORT out of range: %d", c.Port))
	}
	if c.FetchAttempts < 1 {
		errs = append(errs, errors.New("WAGERQUIZ_FETCH_ATTEMPTS must be at least 1"))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, errors.New("WAGERQUIZ_FETCH_TIMEOUT must be positive"))
	}
	if c.FetchBackoff < 0 {
		errs = append(errs, errors.New("WAGERQUIZ_FETCH_BACKOFF may not be negative"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("WAGERQUIZ_SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the address the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
