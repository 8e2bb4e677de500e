package main

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jacentio/podroom/internal/config"
	"github.com/jacentio/podroom/internal/logging"
	"github.com/jacentio/podroom/store"
)

// clientFactory builds the DynamoDB client for a loaded configuration.
type clientFactory func(ctx context.Context, cfg *config.Config) (store.Client, error)

func dynamoClient(ctx context.Context, cfg *config.Config) (store.Client, error) {
	client, err := cfg.DynamoDB(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type commandContext struct {
	configFlag *string
	newClient  clientFactory

	configOnce sync.Once
	config     *config.Config
	logger     *zap.Logger
	configErr  error

	storeOnce sync.Once
	store     *store.Store
	storeErr  error
}

func newCommandContext(configFlag *string, newClient clientFactory) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		newClient:  newClient,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

// ensureStore builds the engine on first use. It does not create the table;
// commands that write call Initiate themselves.
func (c *commandContext) ensureStore(ctx context.Context) (*store.Store, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		client, err := c.newClient(ctx, cfg)
		if err != nil {
			c.storeErr = err
			return
		}
		c.store = store.New(client, cfg.StoreConfig(), store.WithLogger(c.logger))
	})
	return c.store, c.storeErr
}

// writableStore returns the engine after making sure the table is ACTIVE.
func (c *commandContext) writableStore(ctx context.Context) (*store.Store, error) {
	s, err := c.ensureStore(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.Initiate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
