package crypto

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/smallstep/pkcs7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/errors"
	"github.com/logigrain/portauth/pkg/logger"
)

func newTestIdentity(t *testing.T) *service.SigningIdentity {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "portauth test signer"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	return &service.SigningIdentity{
		Certificate: cert,
		PrivateKey:  key,
		CertPEM:     certPEM,
		KeyPEM:      keyPEM,
	}
}

func TestCMSSigner_SignBase64RoundTrip(t *testing.T) {
	identity := newTestIdentity(t)
	signer := NewCMSSigner(logger.NewNoopLogger())

	content := []byte(`<loginTicketRequest version="1.0"><service>wscpe</service></loginTicketRequest>`)
	encoded, err := signer.SignBase64(context.Background(), content, identity)
	require.NoError(t, err)

	der, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	p7, err := pkcs7.Parse(der)
	require.NoError(t, err)
	assert.Equal(t, content, p7.Content, "signed structure must embed the request, not detach it")
	require.NoError(t, p7.Verify())
}

func TestCMSSigner_SignaturesDifferBetweenCalls(t *testing.T) {
	identity := newTestIdentity(t)
	signer := NewCMSSigner(logger.NewNoopLogger())
	content := []byte("<loginTicketRequest/>")

	first, err := signer.SignBase64(context.Background(), content, identity)
	require.NoError(t, err)
	second, err := signer.SignBase64(context.Background(), content, identity)
	require.NoError(t, err)

	// Signing attributes include a timestamp; identical output would be
	// suspicious but is not strictly impossible, so only check both verify.
	for _, encoded := range []string{first, second} {
		der, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		p7, err := pkcs7.Parse(der)
		require.NoError(t, err)
		require.NoError(t, p7.Verify())
	}
}

func TestCMSSigner_MissingIdentity(t *testing.T) {
	signer := NewCMSSigner(logger.NewNoopLogger())

	_, err := signer.SignBase64(context.Background(), []byte("x"), nil)
	assert.True(t, errors.IsCode(err, constants.ErrCodeSigningIdentityMissing))

	_, err = signer.SignBase64(context.Background(), []byte("x"), &service.SigningIdentity{})
	assert.True(t, errors.IsCode(err, constants.ErrCodeSigningIdentityMissing))
}

func TestParseIdentity(t *testing.T) {
	identity := newTestIdentity(t)

	parsed, err := ParseIdentity(identity.CertPEM, identity.KeyPEM, "")
	require.NoError(t, err)
	assert.Equal(t, identity.Certificate.SerialNumber, parsed.Certificate.SerialNumber)
	assert.NotNil(t, parsed.PrivateKey)
}

func TestParseIdentity_BadMaterial(t *testing.T) {
	_, err := ParseIdentity([]byte("not pem"), []byte("not pem"), "")
	assert.True(t, errors.IsCode(err, constants.ErrCodeSigningIdentityMissing))
}
