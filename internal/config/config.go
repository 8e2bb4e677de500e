// Package config loads podroom process settings from a TOML file and the
// environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"

	"github.com/jacentio/podroom/store"
)

// Environment variables that override file values.
const (
	EnvTable    = "PODROOM_TABLE"
	EnvRegion   = "AWS_REGION"
	EnvEndpoint = "PODROOM_DYNAMODB_ENDPOINT"
	EnvLogLevel = "PODROOM_LOG_LEVEL"
	EnvLogDev   = "PODROOM_LOG_DEVELOPMENT"
)

// Config holds process settings.
type Config struct {
	Table  string `toml:"table"`
	Region string `toml:"region"`

	// Endpoint points the DynamoDB client at DynamoDB Local or another
	// compatible service. Empty uses the AWS endpoint for Region.
	Endpoint string `toml:"endpoint"`

	LogLevel       string `toml:"log_level"`
	LogDevelopment bool   `toml:"log_development"`

	ReadyPollSeconds int `toml:"ready_poll_seconds"`
	ReadyMaxAttempts int `toml:"ready_max_attempts"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	engine := store.DefaultConfig()
	return Config{
		Table:            engine.TableName,
		LogLevel:         "info",
		ReadyPollSeconds: int(engine.ReadyPollInterval / time.Second),
		ReadyMaxAttempts: engine.ReadyMaxAttempts,
	}
}

// Load reads path if it exists, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			decoder := toml.NewDecoder(file)
			decoder.DisallowUnknownFields()
			if err := decoder.Decode(&cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Table = getEnv(EnvTable, c.Table)
	c.Region = getEnv(EnvRegion, c.Region)
	c.Endpoint = getEnv(EnvEndpoint, c.Endpoint)
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
	c.LogDevelopment = getEnvBool(EnvLogDev, c.LogDevelopment)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Table == "" {
		return errors.New("table must be set")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("endpoint %q must be an absolute URL", c.Endpoint)
		}
	}
	if c.ReadyPollSeconds < 0 {
		return fmt.Errorf("ready_poll_seconds must not be negative, got %d", c.ReadyPollSeconds)
	}
	if c.ReadyMaxAttempts < 0 || c.ReadyMaxAttempts > 600 {
		return fmt.Errorf("ready_max_attempts must be between 0 and 600, got %d", c.ReadyMaxAttempts)
	}
	return nil
}

// StoreConfig returns the engine settings. Zero values fall back to the
// engine defaults.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		TableName:         c.Table,
		ReadyPollInterval: time.Duration(c.ReadyPollSeconds) * time.Second,
		ReadyMaxAttempts:  c.ReadyMaxAttempts,
	}
}

// AWSConfig loads the shared AWS configuration, pinned to Region when set.
func (c *Config) AWSConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// DynamoDB builds a DynamoDB client, honoring Endpoint.
func (c *Config) DynamoDB(ctx context.Context) (*dynamodb.Client, error) {
	awsCfg, err := c.AWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(awsCfg, c.dynamoOptions), nil
}

func (c *Config) dynamoOptions(o *dynamodb.Options) {
	if c.Endpoint != "" {
		o.BaseEndpoint = aws.String(c.Endpoint)
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
