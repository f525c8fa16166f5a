package models

import (
	"fmt"
	"time"

	"github.com/logigrain/portauth/pkg/constants"
)

// TicketKey identifies the cache slot of a ticket: at most one live row may
// exist per key at any time.
type TicketKey struct {
	OperatorID   int64
	FacilityCode string
	ServiceKind  constants.ServiceKind
}

// String renders the key in a form usable for single-flight and L1 cache keys.
func (k TicketKey) String() string {
	return fmt.Sprintf("%d:%s:%s", k.OperatorID, k.FacilityCode, k.ServiceKind)
}

// Ticket is a cached (token, sign) pair issued by the WSAA gateway for an
// operator, facility, and downstream service kind. Rows are immutable once
// inserted; a refresh deletes the old row and inserts a new one.
type Ticket struct {
	ID           int64                 `gorm:"primaryKey;autoIncrement" json:"id"`
	OperatorID   int64                 `gorm:"index:idx_ticket_key" json:"operator_id"`
	FacilityCode string                `gorm:"size:10;index:idx_ticket_key" json:"facility_code"`
	ServiceKind  constants.ServiceKind `gorm:"size:20;index:idx_ticket_key" json:"service_kind"`

	// Token is the XML-bearing blob returned by the gateway; Sign is its
	// companion signature. Both are used verbatim as bearer credentials by
	// downstream service calls.
	Token string `gorm:"type:text" json:"token"`
	Sign  string `gorm:"size:1000" json:"sign"`

	IssuedAt  time.Time `gorm:"index" json:"issued_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`

	// Metadata persisted alongside the pair for diagnostics.
	WSAAURL     string `gorm:"size:200" json:"wsaa_url"`
	ServiceName string `gorm:"size:50" json:"service_name"`
}

// TableName maps the model to its durable table.
func (Ticket) TableName() string { return "arca_tickets" }

// NewTicket builds a ticket issued at the given instant, expiring after the
// fixed 8-hour window.
func NewTicket(key TicketKey, token, sign, wsaaURL string, issuedAt time.Time) *Ticket {
	return &Ticket{
		OperatorID:   key.OperatorID,
		FacilityCode: key.FacilityCode,
		ServiceKind:  key.ServiceKind,
		Token:        token,
		Sign:         sign,
		IssuedAt:     issuedAt,
		ExpiresAt:    issuedAt.Add(constants.TicketTTL),
		WSAAURL:      wsaaURL,
		ServiceName:  key.ServiceKind.DisplayName(),
	}
}

// Key returns the cache slot this ticket occupies.
func (t *Ticket) Key() TicketKey {
	return TicketKey{
		OperatorID:   t.OperatorID,
		FacilityCode: t.FacilityCode,
		ServiceKind:  t.ServiceKind,
	}
}

// IsExpired reports whether the ticket is no longer valid at now. The boundary
// is inclusive: a ticket whose expiration equals now is already expired.
func (t *Ticket) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Remaining returns the validity left at now, or 0 when expired.
func (t *Ticket) Remaining(now time.Time) time.Duration {
	if t.IsExpired(now) {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}
