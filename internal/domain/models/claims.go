package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the JWT claims carried by operator session tokens. The
// session lifetime matches the ticket validity window so a session never
// outlives the tickets issued under it.
type SessionClaims struct {
	jwt.RegisteredClaims

	OperatorID int64  `json:"operator_id"`
	Username   string `json:"username"`
}
