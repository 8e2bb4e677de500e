package store

import "time"

const (
	defaultTableName         = "podroom"
	defaultReadyPollInterval = time.Second
	defaultReadyMaxAttempts  = 10
)

// Config holds configuration for the Store.
type Config struct {
	// TableName is the name of the single table holding every Room subtree.
	// Default: "podroom"
	TableName string

	// ReadyPollInterval is the fixed delay between DescribeTable calls while
	// the table is CREATING.
	// Default: 1s
	ReadyPollInterval time.Duration

	// ReadyMaxAttempts bounds the number of DescribeTable polls before
	// Initiate gives up with ErrTableNotReady.
	// Default: 10
	// Max: 600
	ReadyMaxAttempts int
}

// DefaultConfig returns the settings used in production.
func DefaultConfig() Config {
	return Config{
		TableName:         defaultTableName,
		ReadyPollInterval: defaultReadyPollInterval,
		ReadyMaxAttempts:  defaultReadyMaxAttempts,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = defaultTableName
	}
	if c.ReadyPollInterval <= 0 {
		c.ReadyPollInterval = defaultReadyPollInterval
	}
	if c.ReadyMaxAttempts < 1 {
		c.ReadyMaxAttempts = defaultReadyMaxAttempts
	}
	if c.ReadyMaxAttempts > 600 {
		c.ReadyMaxAttempts = 600
	}
}
