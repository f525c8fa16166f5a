package crypto

import (
	"context"
	"encoding/base64"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/errors"
	"github.com/logigrain/portauth/pkg/logger"
)

func TestStripPEMArmor(t *testing.T) {
	armored := "-----BEGIN PKCS7-----\nAAAA\nBBBB\nCCCC\n-----END PKCS7-----\n"
	assert.Equal(t, "AAAABBBBCCCC", stripPEMArmor(armored))
}

func TestStripPEMArmor_EmptyInput(t *testing.T) {
	assert.Equal(t, "", stripPEMArmor(""))
	assert.Equal(t, "", stripPEMArmor("-----BEGIN PKCS7-----\n-----END PKCS7-----"))
}

func TestOpenSSLSigner_MissingIdentity(t *testing.T) {
	signer := NewOpenSSLSigner("openssl", logger.NewNoopLogger())

	_, err := signer.SignBase64(context.Background(), []byte("x"), &service.SigningIdentity{})
	assert.True(t, errors.IsCode(err, constants.ErrCodeSigningIdentityMissing))
}

func TestOpenSSLSigner_SignBase64(t *testing.T) {
	if _, err := exec.LookPath("openssl"); err != nil {
		t.Skip("openssl not available")
	}

	identity := newTestIdentity(t)
	signer := NewOpenSSLSigner("openssl", logger.NewNoopLogger())

	encoded, err := signer.SignBase64(context.Background(),
		[]byte(`<loginTicketRequest version="1.0"/>`), identity)
	require.NoError(t, err)

	_, err = base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err, "output must be the raw base64 payload without armor")
}

func TestOpenSSLSigner_BadBinary(t *testing.T) {
	identity := newTestIdentity(t)
	signer := NewOpenSSLSigner("/nonexistent/openssl", logger.NewNoopLogger())

	_, err := signer.SignBase64(context.Background(), []byte("x"), identity)
	assert.True(t, errors.IsCode(err, constants.ErrCodeSigningFailed))
}
