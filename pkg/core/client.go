package core

import (
	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"

	"github.com/tabzero/tabzero-go/pkg/crypto"
	"github.com/tabzero/tabzero-go/pkg/inference"
	openaiInference "github.com/tabzero/tabzero-go/pkg/inference/openai"
	sidecarInference "github.com/tabzero/tabzero-go/pkg/inference/sidecar"
	"github.com/tabzero/tabzero-go/pkg/logger"
	"github.com/tabzero/tabzero-go/pkg/storage"
	mysqlStore "github.com/tabzero/tabzero-go/pkg/storage/mysql"
	postgresStore "github.com/tabzero/tabzero-go/pkg/storage/postgres"
	sqliteStore "github.com/tabzero/tabzero-go/pkg/storage/sqlite"
)

// Client is the assistant core: the encrypted record store plus the
// chat-turn orchestration pipeline.
//
// All personal data is encrypted before it reaches the store; the remote
// inference service receives decrypted context for one turn and nothing is
// retried or logged in plaintext. The client is safe for concurrent use;
// concurrent turns serialize only at the store's own concurrency control.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	client, _ := core.NewClient(config)
//	defer client.Close()
//
//	resp, _ := client.Send(ctx, "remind me to stretch")
type Client struct {
	// config contains the client configuration.
	config *Config

	// store persists the four record kinds.
	store storage.Store

	// crypto seals and opens record payloads.
	crypto *crypto.Service

	// inference is the remote chat backend.
	inference inference.Provider

	// node generates unique record ids.
	node *snowflake.Node

	// log is the structured logger. Never receives record plaintext.
	log zerolog.Logger
}

// NewClient creates a new assistant client.
//
// The client is initialized with:
//   - Record store (SQLite by default, PostgreSQL or MySQL by config)
//   - Crypto service over the installation master key
//   - Inference provider (local sidecar or direct OpenAI)
//
// A key-unwrap failure is returned as-is and must be treated as fatal;
// constructing a client with a fresh key would orphan existing records.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cryptoService, err := crypto.NewService(crypto.NewFileKeyStore(cfg.BaseDir))
	if err != nil {
		return nil, NewAssistantError("NewClient", err)
	}

	store, err := initStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	provider, err := initInference(cfg.Inference)
	if err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewAssistantError("NewClient", err)
	}

	return &Client{
		config:    cfg,
		store:     store,
		crypto:    cryptoService,
		inference: provider,
		node:      node,
		log:       logger.New("tabzero"),
	}, nil
}

// Close releases the store and inference provider.
func (c *Client) Close() error {
	if err := c.store.Close(); err != nil {
		return NewAssistantError("Close", err)
	}
	return c.inference.Close()
}

// newID generates an opaque unique record id.
func (c *Client) newID() string {
	return c.node.Generate().String()
}

// initStore initializes the record store backend.
func initStore(cfg StorageConfig) (storage.Store, error) {
	switch cfg.Provider {
	case "sqlite":
		return sqliteStore.NewClient(&sqliteStore.Config{
			DBPath: cfg.Config["db_path"].(string),
		})
	case "postgres":
		sslMode := "disable"
		if s, ok := cfg.Config["ssl_mode"].(string); ok {
			sslMode = s
		}
		return postgresStore.NewClient(&postgresStore.Config{
			Host:     cfg.Config["host"].(string),
			Port:     cfg.Config["port"].(int),
			User:     cfg.Config["user"].(string),
			Password: cfg.Config["password"].(string),
			DBName:   cfg.Config["db_name"].(string),
			SSLMode:  sslMode,
		})
	case "mysql":
		return mysqlStore.NewClient(&mysqlStore.Config{
			Host:     cfg.Config["host"].(string),
			Port:     cfg.Config["port"].(int),
			User:     cfg.Config["user"].(string),
			Password: cfg.Config["password"].(string),
			DBName:   cfg.Config["db_name"].(string),
		})
	default:
		return nil, NewAssistantError("initStore", ErrInvalidConfig)
	}
}

// initInference initializes the inference provider.
func initInference(cfg InferenceConfig) (inference.Provider, error) {
	switch cfg.Provider {
	case "sidecar":
		return sidecarInference.NewClient(&sidecarInference.Config{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	case "openai":
		return openaiInference.NewClient(&openaiInference.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, NewAssistantError("initInference", ErrInvalidConfig)
	}
}
