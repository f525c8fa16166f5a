// Package crypto implements the request-signing capabilities: loading
// certificate/key material and producing the CMS envelope over a login ticket
// request, either in-process or through an external openssl invocation.
package crypto

import (
	"context"
	stdcrypto "crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/errors"
	"github.com/logigrain/portauth/pkg/logger"
)

// FileIdentityProvider loads the PEM certificate/key pair for a service kind
// from the configured file paths. Material is re-read on every call; signing
// is infrequent enough that the simplicity wins over caching.
type FileIdentityProvider struct {
	cfg    *config.ARCAConfig
	logger logger.Logger
}

// NewFileIdentityProvider creates a file-backed identity provider.
func NewFileIdentityProvider(cfg *config.ARCAConfig, log logger.Logger) *FileIdentityProvider {
	return &FileIdentityProvider{cfg: cfg, logger: log}
}

// Identity loads and parses the signing material for the kind.
func (p *FileIdentityProvider) Identity(ctx context.Context, kind constants.ServiceKind) (*service.SigningIdentity, error) {
	svc, err := p.cfg.Service(kind)
	if err != nil {
		return nil, errors.ErrInvalidRequest(err.Error())
	}
	if svc.CertFile == "" || svc.KeyFile == "" {
		return nil, errors.ErrSigningIdentityMissing(
			fmt.Sprintf("no certificate/key pair configured for service kind %s", kind))
	}

	certPEM, err := os.ReadFile(svc.CertFile)
	if err != nil {
		p.logger.Error(ctx, "failed to read signing certificate", err,
			logger.Fields{"service_kind": kind, "cert_file": svc.CertFile})
		return nil, errors.ErrSigningIdentityMissing("certificate file unreadable").WithCause(err)
	}
	keyPEM, err := os.ReadFile(svc.KeyFile)
	if err != nil {
		p.logger.Error(ctx, "failed to read signing key", err,
			logger.Fields{"service_kind": kind, "key_file": svc.KeyFile})
		return nil, errors.ErrSigningIdentityMissing("private key file unreadable").WithCause(err)
	}

	return ParseIdentity(certPEM, keyPEM, svc.KeyPassphrase)
}

// ParseIdentity parses PEM certificate and private key material into a
// SigningIdentity. Error messages never embed the material itself.
func ParseIdentity(certPEM, keyPEM []byte, passphrase string) (*service.SigningIdentity, error) {
	cert, err := parseCertificate(certPEM)
	if err != nil {
		return nil, errors.ErrSigningIdentityMissing(err.Error())
	}
	key, err := parsePrivateKey(keyPEM, passphrase)
	if err != nil {
		return nil, errors.ErrSigningIdentityMissing(err.Error())
	}
	return &service.SigningIdentity{
		Certificate:   cert,
		PrivateKey:    key,
		CertPEM:       certPEM,
		KeyPEM:        keyPEM,
		KeyPassphrase: passphrase,
	}, nil
}

var _ service.IdentityProvider = (*FileIdentityProvider)(nil)

func parseCertificate(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("no CERTIFICATE block in certificate material")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing certificate: %v", err)
	}
	return cert, nil
}

func parsePrivateKey(keyPEM []byte, passphrase string) (stdcrypto.Signer, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in private key material")
	}

	der := block.Bytes
	if x509.IsEncryptedPEMBlock(block) { //nolint:staticcheck // legacy RFC 1423 keys still exist in the field
		if passphrase == "" {
			return nil, fmt.Errorf("private key is encrypted and no passphrase is configured")
		}
		decrypted, err := x509.DecryptPEMBlock(block, []byte(passphrase)) //nolint:staticcheck
		if err != nil {
			return nil, fmt.Errorf("decrypting private key: %v", err)
		}
		der = decrypted
	}

	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		signer, ok := key.(stdcrypto.Signer)
		if !ok {
			return nil, fmt.Errorf("private key type does not support signing")
		}
		return signer, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("unsupported private key format")
}
