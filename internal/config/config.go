package config

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/nfrund/shellbus/internal/pubsub"
)

// Config holds all configuration for the application.
type Config struct {
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	Delivery  string `env:"SHELLBUS_DELIVERY" envDefault:"sync" validate:"oneof=sync deferred"`
	Codec     string `env:"SHELLBUS_CODEC" envDefault:"json" validate:"oneof=json msgpack"`
	Transport string `env:"SHELLBUS_TRANSPORT" envDefault:"none" validate:"oneof=none memory watermill nats redis websocket"`
	Origin    string `env:"SHELLBUS_ORIGIN"`

	NATSURL  string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222" validate:"required_if=Transport nats,omitempty,url"`
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0" validate:"required_if=Transport redis,omitempty,url"`
	HubURL   string `env:"SHELLBUS_HUB_URL" envDefault:"ws://localhost:8080/ws" validate:"required_if=Transport websocket,omitempty,url"`

	HTTPAddr       string   `env:"HTTP_ADDR" envDefault:":8080" validate:"required"`
	OriginPatterns []string `env:"SHELLBUS_ORIGIN_PATTERNS" envSeparator:","`
	SendBuffer     int      `env:"SHELLBUS_SEND_BUFFER" envDefault:"256" validate:"min=1"`
	ConnectRate    float64  `env:"SHELLBUS_CONNECT_RATE" envDefault:"10" validate:"gt=0"`

	Tracing pubsub.TracingConfig
}

// New loads configuration from an optional .env file and the environment,
// then validates it.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv parses and validates the environment without reading .env.
func FromEnv() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its validation tags.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
