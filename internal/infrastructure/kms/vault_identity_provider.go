// Package kms provides a Vault-backed signing identity provider as an
// alternative to PEM file pairs on disk.
package kms

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"

	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/internal/infrastructure/crypto"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/errors"
	"github.com/logigrain/portauth/pkg/logger"
)

// VaultIdentityProvider loads signing material from a Vault KV v2 secret.
// The secret is expected to hold "certificate" and "private_key" fields with
// PEM content, plus an optional "passphrase".
type VaultIdentityProvider struct {
	client    *api.Client
	mountPath string
	cfg       *config.ARCAConfig
	logger    logger.Logger
}

// NewVaultIdentityProvider creates a Vault-backed identity provider.
func NewVaultIdentityProvider(vaultCfg *config.VaultConfig, arcaCfg *config.ARCAConfig, log logger.Logger) (*VaultIdentityProvider, error) {
	apiCfg := api.DefaultConfig()
	apiCfg.Address = vaultCfg.Address

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("creating vault client: %w", err)
	}
	client.SetToken(vaultCfg.Token)

	return &VaultIdentityProvider{
		client:    client,
		mountPath: vaultCfg.MountPath,
		cfg:       arcaCfg,
		logger:    log,
	}, nil
}

// Identity fetches and parses the signing material for the kind.
func (p *VaultIdentityProvider) Identity(ctx context.Context, kind constants.ServiceKind) (*service.SigningIdentity, error) {
	svc, err := p.cfg.Service(kind)
	if err != nil {
		return nil, errors.ErrInvalidRequest(err.Error())
	}
	if svc.VaultSecretPath == "" {
		return nil, errors.ErrSigningIdentityMissing(
			fmt.Sprintf("no vault secret path configured for service kind %s", kind))
	}

	secret, err := p.client.KVv2(p.mountPath).Get(ctx, svc.VaultSecretPath)
	if err != nil {
		p.logger.Error(ctx, "failed to read signing identity from vault", err,
			logger.Fields{"service_kind": kind, "secret_path": svc.VaultSecretPath})
		return nil, errors.ErrSigningIdentityMissing("vault secret unreadable").WithCause(err)
	}

	certPEM, ok := secret.Data["certificate"].(string)
	if !ok || certPEM == "" {
		return nil, errors.ErrSigningIdentityMissing("vault secret has no certificate field")
	}
	keyPEM, ok := secret.Data["private_key"].(string)
	if !ok || keyPEM == "" {
		return nil, errors.ErrSigningIdentityMissing("vault secret has no private_key field")
	}
	passphrase, _ := secret.Data["passphrase"].(string)

	return crypto.ParseIdentity([]byte(certPEM), []byte(keyPEM), passphrase)
}

var _ service.IdentityProvider = (*VaultIdentityProvider)(nil)
