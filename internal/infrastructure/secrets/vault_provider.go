// Package secrets resolves runtime credentials from HashiCorp Vault.
package secrets

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/sentrasec/sentra/internal/config"
	"github.com/sentrasec/sentra/internal/infrastructure/explain"
	"github.com/sentrasec/sentra/pkg/logger"
)

// secretReader is the slice of the Vault client the provider needs.
type secretReader interface {
	ReadWithDataWithContext(ctx context.Context, path string, data map[string][]string) (*vault.Secret, error)
}

// VaultKeyProvider reads the explanation service API key from a Vault KV
// secret. The key is read per request so a rotated secret takes effect
// without a restart.
type VaultKeyProvider struct {
	reader secretReader
	path   string
	logger logger.Logger
}

// NewVaultKeyProvider builds a Vault client from configuration.
func NewVaultKeyProvider(cfg *config.VaultConfig, log logger.Logger) (*VaultKeyProvider, error) {
	vaultCfg := vault.DefaultConfig()
	vaultCfg.Address = cfg.Address

	client, err := vault.NewClient(vaultCfg)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &VaultKeyProvider{
		reader: client.Logical(),
		path:   cfg.SecretPath,
		logger: log.WithComponent("VaultKeyProvider"),
	}, nil
}

// APIKey reads the explanation service key from the configured secret path.
func (p *VaultKeyProvider) APIKey(ctx context.Context) (string, error) {
	secret, err := p.reader.ReadWithDataWithContext(ctx, p.path, nil)
	if err != nil {
		return "", fmt.Errorf("read vault secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret not found at %s", p.path)
	}

	data := secret.Data
	// KV v2 nests the payload under a "data" key.
	if nested, ok := secret.Data["data"].(map[string]interface{}); ok {
		data = nested
	}

	key, ok := data["api_key"].(string)
	if !ok || key == "" {
		return "", fmt.Errorf("api_key missing from secret at %s", p.path)
	}
	return key, nil
}

var _ explain.KeyProvider = (*VaultKeyProvider)(nil)
