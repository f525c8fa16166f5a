package crypto

import (
	"context"
	"encoding/base64"

	"github.com/smallstep/pkcs7"

	"github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/pkg/errors"
	"github.com/logigrain/portauth/pkg/logger"
)

// CMSSigner builds the signed-and-enveloped PKCS#7 structure in-process. The
// login ticket request bytes are embedded (not detached) and digested with
// SHA-256, with the signer certificate attached.
type CMSSigner struct {
	logger logger.Logger
}

// NewCMSSigner creates an in-process CMS signer.
func NewCMSSigner(log logger.Logger) *CMSSigner {
	return &CMSSigner{logger: log}
}

// SignBase64 returns the base64 of the DER-encoded SignedData over content.
func (s *CMSSigner) SignBase64(ctx context.Context, content []byte, identity *service.SigningIdentity) (string, error) {
	if identity == nil || identity.Certificate == nil || identity.PrivateKey == nil {
		return "", errors.ErrSigningIdentityMissing("no certificate or key loaded")
	}

	signedData, err := pkcs7.NewSignedData(content)
	if err != nil {
		return "", errors.ErrSigningFailed("initializing signed data").WithCause(err)
	}
	signedData.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)

	if err := signedData.AddSigner(identity.Certificate, identity.PrivateKey, pkcs7.SignerInfoConfig{}); err != nil {
		return "", errors.ErrSigningFailed("attaching signer").WithCause(err)
	}

	der, err := signedData.Finish()
	if err != nil {
		return "", errors.ErrSigningFailed("finalizing signed data").WithCause(err)
	}

	s.logger.Debug(ctx, "signed login ticket request in-process",
		logger.Fields{"content_bytes": len(content), "cms_bytes": len(der)})

	return base64.StdEncoding.EncodeToString(der), nil
}

var _ service.Signer = (*CMSSigner)(nil)
