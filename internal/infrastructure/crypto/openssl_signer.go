package crypto

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/errors"
	"github.com/logigrain/portauth/pkg/logger"
)

// OpenSSLSigner delegates CMS construction to an external openssl invocation.
// The request document and the PEM material are written to a private temp
// directory that is removed regardless of outcome, and the subprocess is
// bounded by the signing timeout.
type OpenSSLSigner struct {
	binPath string
	logger  logger.Logger
}

// NewOpenSSLSigner creates an external-tool signer using the given openssl
// binary path ("openssl" resolves through PATH).
func NewOpenSSLSigner(binPath string, log logger.Logger) *OpenSSLSigner {
	if binPath == "" {
		binPath = "openssl"
	}
	return &OpenSSLSigner{binPath: binPath, logger: log}
}

// SignBase64 runs `openssl smime -sign -nodetach` over content and returns
// the raw base64 payload recovered from the PEM-armored output.
func (s *OpenSSLSigner) SignBase64(ctx context.Context, content []byte, identity *service.SigningIdentity) (string, error) {
	if identity == nil || len(identity.CertPEM) == 0 || len(identity.KeyPEM) == 0 {
		return "", errors.ErrSigningIdentityMissing("no certificate or key material loaded")
	}

	dir, err := os.MkdirTemp("", "portauth-tra-")
	if err != nil {
		return "", errors.ErrSigningFailed("creating temp directory").WithCause(err)
	}
	defer os.RemoveAll(dir)

	inFile := filepath.Join(dir, "tra.xml")
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	outFile := filepath.Join(dir, "tra.cms")

	for _, f := range []struct {
		path string
		data []byte
	}{
		{inFile, content},
		{certFile, identity.CertPEM},
		{keyFile, identity.KeyPEM},
	} {
		if err := os.WriteFile(f.path, f.data, 0o600); err != nil {
			return "", errors.ErrSigningFailed("writing signing input").WithCause(err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, constants.SigningTimeout)
	defer cancel()

	args := []string{
		"smime", "-sign", "-nodetach",
		"-signer", certFile,
		"-inkey", keyFile,
		"-in", inFile,
		"-out", outFile,
		"-outform", "PEM",
	}
	if identity.KeyPassphrase != "" {
		args = append(args, "-passin", "stdin")
	}

	cmd := exec.CommandContext(ctx, s.binPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if identity.KeyPassphrase != "" {
		cmd.Stdin = strings.NewReader(identity.KeyPassphrase + "\n")
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			s.logger.Error(ctx, "signing tool timed out", err,
				logger.Fields{"timeout": constants.SigningTimeout.String()})
			return "", errors.ErrSigningFailed(
				fmt.Sprintf("signing tool exceeded %s", constants.SigningTimeout))
		}
		s.logger.Error(ctx, "signing tool failed", err,
			logger.Fields{"stderr": stderr.String()})
		return "", errors.ErrSigningFailed("signing tool exited with error").WithCause(err)
	}

	armored, err := os.ReadFile(outFile)
	if err != nil {
		return "", errors.ErrSigningFailed("reading signing tool output").WithCause(err)
	}

	payload := stripPEMArmor(string(armored))
	if payload == "" {
		return "", errors.ErrSigningFailed("signing tool produced no PEM payload")
	}

	s.logger.Debug(ctx, "signed login ticket request via external tool",
		logger.Fields{"content_bytes": len(content), "payload_chars": len(payload)})

	return payload, nil
}

// stripPEMArmor removes the BEGIN/END lines and line wrapping from a PEM
// document, leaving the raw base64 payload.
func stripPEMArmor(armored string) string {
	var b strings.Builder
	for _, line := range strings.Split(armored, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-----") {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

var _ service.Signer = (*OpenSSLSigner)(nil)
