// Package service defines the domain-level capabilities of the ticket
// acquisition pipeline: building the login ticket request, signing it, and
// submitting it to the WSAA gateway. Implementations live under
// internal/infrastructure.
package service

import (
	"context"
	"crypto"
	"crypto/x509"

	"github.com/logigrain/portauth/pkg/constants"
)

// SigningIdentity is the certificate and private key material a request is
// signed with. It is read-only once loaded; providers may reload it per call.
type SigningIdentity struct {
	Certificate *x509.Certificate
	PrivateKey  crypto.Signer

	// Raw PEM material, kept for the external-tool signer which hands files
	// to the subprocess.
	CertPEM []byte
	KeyPEM  []byte

	// KeyPassphrase decrypts the private key when non-empty.
	KeyPassphrase string
}

// IdentityProvider loads the signing identity for a service kind. Absent or
// unparsable material yields a signing_identity_missing error.
type IdentityProvider interface {
	Identity(ctx context.Context, kind constants.ServiceKind) (*SigningIdentity, error)
}

// Signer produces the signed-and-enveloped CMS message over a login ticket
// request. Two interchangeable implementations exist: an in-process one built
// on a PKCS#7 library and one delegating to an external openssl invocation.
// Signatures over identical input legitimately differ between calls.
type Signer interface {
	// SignBase64 returns the base64 encoding of the CMS structure embedding
	// content, signed with identity using SHA-256.
	SignBase64(ctx context.Context, content []byte, identity *SigningIdentity) (string, error)
}

// Credentials is the (token, sign) pair extracted from a successful gateway
// login response.
type Credentials struct {
	Token string
	Sign  string
}

// GatewayClient submits a signed envelope to the WSAA authentication gateway.
// A single attempt is made per call; retry policy belongs to the caller.
type GatewayClient interface {
	// LoginCms sends the base64 CMS as the single input parameter of the
	// gateway's login call and extracts the credential pair, or a structured
	// gateway_* error.
	LoginCms(ctx context.Context, cmsBase64 string) (*Credentials, error)

	// Endpoint returns the gateway URL this client talks to.
	Endpoint() string
}

// RateLimitService bounds how often an operator may hit gateway-facing
// endpoints.
type RateLimitService interface {
	// Allow reports whether one more request fits the operator's budget.
	Allow(ctx context.Context, scope string, key string) (bool, error)
}

// AuditService records security-relevant events on the audit stream. Emission
// is best-effort and must never fail the request path.
type AuditService interface {
	Record(ctx context.Context, event constants.AuditEventType, fields map[string]interface{})
}
