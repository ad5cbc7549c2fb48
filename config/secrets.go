package config

import (
	"context"
	"fmt"
	"os"
)

// SecretStore abstracts secret lookup so deployments can swap the
// environment for a real secret manager.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, fallback string) string
}

// EnvironmentSecretStore reads secrets from process environment variables.
type EnvironmentSecretStore struct{}

func NewEnvironmentSecretStore() *EnvironmentSecretStore {
	return &EnvironmentSecretStore{}
}

func (s *EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret %s not found", key)
	}
	return value, nil
}

func (s *EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, fallback string) string {
	value, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	return value
}

var _ SecretStore = (*EnvironmentSecretStore)(nil)

// LoadSecretsFromEnv overlays sensitive values from the secret store. Existing
// values act as fallbacks so local runs keep working without a secret manager.
func (c *Config) LoadSecretsFromEnv(ctx context.Context) error {
	return c.LoadSecrets(ctx, NewEnvironmentSecretStore())
}

// LoadSecrets overlays sensitive values from the given store.
func (c *Config) LoadSecrets(ctx context.Context, store SecretStore) error {
	c.Storage.Redis.Password = store.GetWithDefault(ctx, "PROGRESSION_STORAGE_REDIS_PASSWORD", c.Storage.Redis.Password)
	c.Storage.SQL.DSN = store.GetWithDefault(ctx, "PROGRESSION_STORAGE_SQL_DSN", c.Storage.SQL.DSN)
	c.Webhook.Secret = store.GetWithDefault(ctx, "PROGRESSION_WEBHOOK_SECRET", c.Webhook.Secret)
	if c.Storage.Adapter == "sql" && c.Storage.SQL.DSN == "" {
		return fmt.Errorf("sql storage selected but no DSN secret available")
	}
	return nil
}
