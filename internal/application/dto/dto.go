// Package dto defines the request and response shapes of the HTTP API.
package dto

import "time"

// LoginRequest is the operator login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// OperatorInfo is the non-sensitive operator projection returned on login.
type OperatorInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// LoginResponse carries the session token issued on successful login.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	Operator    OperatorInfo `json:"operator"`
}

// TicketRequest asks for a gateway ticket scoped to a facility.
type TicketRequest struct {
	FacilityCode string `json:"facility_code" binding:"required"`
}

// CacheInfo describes where a returned ticket came from and how long it
// remains valid.
type CacheInfo struct {
	// Cached is false only when this request triggered a fresh issuance.
	Cached bool `json:"cached"`

	// Source is "l1", "store", or "gateway".
	Source string `json:"source"`

	IssuedAt         time.Time `json:"issued_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int64     `json:"remaining_seconds"`
}

// TicketResponse carries the credential pair and its cache provenance.
type TicketResponse struct {
	Token        string    `json:"token"`
	Sign         string    `json:"sign"`
	ServiceKind  string    `json:"service_kind"`
	ServiceName  string    `json:"service_name"`
	FacilityCode string    `json:"facility_code"`
	GatewayURL   string    `json:"gateway_url"`
	CacheInfo    CacheInfo `json:"cache_info"`
}

// InvalidateResponse reports how many cached rows an invalidation removed.
type InvalidateResponse struct {
	Deleted int64 `json:"deleted"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse reports service liveness or readiness.
type HealthResponse struct {
	Status string `json:"status"`
}
