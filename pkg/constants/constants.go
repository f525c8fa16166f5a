// Package constants defines system-wide constants for the LogiGrain port
// authentication service. This package provides type-safe constant definitions
// used across all modules.
package constants

import "time"

// ================================================================================
// Service Kind Constants
// ================================================================================

// ServiceKind identifies a downstream ARCA/AFIP webservice a ticket can be
// requested for. The set is closed: unknown kinds are rejected at construction
// time instead of being looked up in a runtime string table.
type ServiceKind string

const (
	// ServiceKindCPE is the electronic cargo-manifest validation service
	// (Carta de Porte Electrónica).
	ServiceKindCPE ServiceKind = "CPE"

	// ServiceKindEmbarques is the shipment notification service
	// (Comunicaciones de Embarques).
	ServiceKindEmbarques ServiceKind = "EMBARQUES"

	// ServiceKindFacturacion is the electronic invoicing service.
	ServiceKindFacturacion ServiceKind = "FACTURACION"
)

// AllServiceKinds lists every supported kind, in a stable order.
var AllServiceKinds = []ServiceKind{ServiceKindCPE, ServiceKindEmbarques, ServiceKindFacturacion}

// IsValid reports whether the kind belongs to the closed set.
func (k ServiceKind) IsValid() bool {
	switch k {
	case ServiceKindCPE, ServiceKindEmbarques, ServiceKindFacturacion:
		return true
	}
	return false
}

// GatewayServiceID returns the service identifier the WSAA gateway expects in
// the login ticket request for this kind. The mapping is total over the closed
// set and returns "" for anything else.
func (k ServiceKind) GatewayServiceID() string {
	switch k {
	case ServiceKindCPE:
		return "wscpe"
	case ServiceKindEmbarques:
		return "wsembarques"
	case ServiceKindFacturacion:
		return "wsfe"
	}
	return ""
}

// DisplayName returns the human-readable service name persisted with issued
// tickets.
func (k ServiceKind) DisplayName() string {
	switch k {
	case ServiceKindCPE:
		return "Carta de Porte Electrónica"
	case ServiceKindEmbarques:
		return "Comunicaciones de Embarques"
	case ServiceKindFacturacion:
		return "Facturación Electrónica"
	}
	return ""
}

// ================================================================================
// Gateway Environment Constants
// ================================================================================

// Environment selects between the production and homologation WSAA gateways.
type Environment string

const (
	// EnvironmentProd targets the production AFIP gateway.
	EnvironmentProd Environment = "PROD"

	// EnvironmentTest targets the homologation (testing) AFIP gateway.
	EnvironmentTest Environment = "TEST"
)

const (
	// WSAAProdURL is the production login endpoint.
	WSAAProdURL = "https://wsaa.afip.gov.ar/ws/services/LoginCms"

	// WSAATestURL is the homologation login endpoint.
	WSAATestURL = "https://wsaahomo.afip.gov.ar/ws/services/LoginCms"
)

// IsValid reports whether the environment is one of PROD or TEST.
func (e Environment) IsValid() bool {
	return e == EnvironmentProd || e == EnvironmentTest
}

// GatewayURL returns the WSAA endpoint for the environment.
func (e Environment) GatewayURL() string {
	if e == EnvironmentProd {
		return WSAAProdURL
	}
	return WSAATestURL
}

// ================================================================================
// Lifetime and Timeout Constants
// ================================================================================

const (
	// TicketTTL is the validity window of an issued (token, sign) pair.
	// Entries older than this are evicted lazily at lookup time.
	TicketTTL = 8 * time.Hour

	// SessionTokenTTL is the lifetime of operator session JWTs. It matches
	// TicketTTL so a session never outlives the tickets issued under it.
	SessionTokenTTL = 8 * time.Hour

	// TRAValidityWindow is how far the login ticket request's generation and
	// expiration times bracket the current instant, on each side.
	TRAValidityWindow = 10 * time.Minute

	// SigningTimeout bounds an external signing subprocess invocation.
	SigningTimeout = 30 * time.Second

	// GatewayTimeout bounds a single WSAA login round trip.
	GatewayTimeout = 30 * time.Second

	// TicketL1TTL is the lifetime of in-memory cache entries in front of the
	// durable ticket store.
	TicketL1TTL = 5 * time.Minute
)

// TRAUniqueIDMax bounds the random uniqueId drawn for each login ticket
// request. Collision tolerance is best-effort; the gateway only requires the
// id to differ between closely spaced requests.
const TRAUniqueIDMax = 10_000_000

// DefaultUTCOffset is the fixed offset appended to TRA timestamps. It is a
// configuration constant (Argentina, GMT-3) and deliberately not derived from
// the host clock's zone.
const DefaultUTCOffset = "-03:00"

// TRATimestampLayout is the ISO-8601 layout of TRA timestamps, without the
// offset suffix.
const TRATimestampLayout = "2006-01-02T15:04:05"

// ================================================================================
// Error Code Constants
// ================================================================================

// ErrorCode is a machine-readable error category carried end to end by every
// failure. Distinct causes are never collapsed into a generic code.
type ErrorCode string

const (
	// ErrCodeAccessDenied indicates the operator has no enabled grant for the
	// requested facility.
	ErrCodeAccessDenied ErrorCode = "access_denied"

	// ErrCodeSigningIdentityMissing indicates certificate or key material is
	// absent or unreadable.
	ErrCodeSigningIdentityMissing ErrorCode = "signing_identity_missing"

	// ErrCodeSigningFailed indicates the CMS construction or the external
	// signing tool failed, including by timeout.
	ErrCodeSigningFailed ErrorCode = "signing_failed"

	// ErrCodeGatewayTransport indicates a transport-level failure reaching the
	// WSAA gateway.
	ErrCodeGatewayTransport ErrorCode = "gateway_transport_error"

	// ErrCodeGatewayMalformedResponse indicates the gateway body was not
	// well-formed XML.
	ErrCodeGatewayMalformedResponse ErrorCode = "gateway_malformed_response"

	// ErrCodeGatewayRemoteRejected indicates the gateway returned a fault
	// envelope; the fault string is carried verbatim.
	ErrCodeGatewayRemoteRejected ErrorCode = "gateway_remote_rejected"

	// ErrCodeGatewayUnrecognizedResponse indicates a well-formed response with
	// neither credentials nor a fault.
	ErrCodeGatewayUnrecognizedResponse ErrorCode = "gateway_unrecognized_response"

	// ErrCodeCacheStore indicates a ticket store read or write failure.
	ErrCodeCacheStore ErrorCode = "cache_store_error"

	// ErrCodeInvalidRequest indicates a malformed or incomplete client request.
	ErrCodeInvalidRequest ErrorCode = "invalid_request"

	// ErrCodeUnauthorized indicates a missing or invalid operator session.
	ErrCodeUnauthorized ErrorCode = "unauthorized"

	// ErrCodeRateLimitExceeded indicates the per-operator request budget is
	// exhausted.
	ErrCodeRateLimitExceeded ErrorCode = "rate_limit_exceeded"

	// ErrCodeNotFound indicates a referenced record does not exist.
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeInternal indicates an unexpected server-side condition.
	ErrCodeInternal ErrorCode = "internal_error"
)

// ================================================================================
// Context Key Constants
// ================================================================================

// ContextKey is the type for request-scoped context values.
type ContextKey string

const (
	// ContextKeyRequestID carries the per-request correlation id.
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyTraceID carries the distributed trace id.
	ContextKeyTraceID ContextKey = "trace_id"

	// ContextKeyOperatorID carries the authenticated operator id.
	ContextKeyOperatorID ContextKey = "operator_id"

	// ContextKeyLogger carries a request-scoped logger.
	ContextKeyLogger ContextKey = "logger"
)

// ================================================================================
// Audit Event Constants
// ================================================================================

// AuditEventType classifies entries on the audit stream.
type AuditEventType string

const (
	// AuditEventTicketIssued records a fresh (token, sign) issuance.
	AuditEventTicketIssued AuditEventType = "ticket_issued"

	// AuditEventTicketCacheHit records a ticket served from cache.
	AuditEventTicketCacheHit AuditEventType = "ticket_cache_hit"

	// AuditEventAccessDenied records a grant check failure.
	AuditEventAccessDenied AuditEventType = "access_denied"

	// AuditEventGatewayRejected records a WSAA fault response.
	AuditEventGatewayRejected AuditEventType = "gateway_rejected"

	// AuditEventSigningFailed records a signing failure.
	AuditEventSigningFailed AuditEventType = "signing_failed"

	// AuditEventOperatorLogin records a successful operator login.
	AuditEventOperatorLogin AuditEventType = "operator_login"

	// AuditEventLoginFailed records a failed operator login.
	AuditEventLoginFailed AuditEventType = "login_failed"
)
