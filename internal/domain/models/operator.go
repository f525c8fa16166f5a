package models

import "time"

// Operator is a terminal operator account in the identity store.
type Operator struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	FullName     string `gorm:"size:120" json:"full_name"`
	Username     string `gorm:"size:60;uniqueIndex" json:"username"`
	PasswordHash string `gorm:"size:120" json:"-"`
	Email        string `gorm:"size:120" json:"email"`
	Enabled      bool   `gorm:"default:true" json:"enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName maps the model to its durable table.
func (Operator) TableName() string { return "operators" }

// Facility is a port facility (e.g. truck yard, scale, gatehouse sector) an
// operator may be granted access to. Codes are short identifiers such as
// "TRP1" or "TSL1".
type Facility struct {
	Code    string `gorm:"primaryKey;size:10" json:"code"`
	Name    string `gorm:"size:120" json:"name"`
	Enabled bool   `gorm:"default:true" json:"enabled"`
}

// TableName maps the model to its durable table.
func (Facility) TableName() string { return "facilities" }

// FacilityGrant links an operator to a facility. A ticket request is
// authorized only when an enabled grant joins an enabled operator to an
// enabled facility.
type FacilityGrant struct {
	OperatorID   int64  `gorm:"primaryKey" json:"operator_id"`
	FacilityCode string `gorm:"primaryKey;size:10" json:"facility_code"`
	Enabled      bool   `gorm:"default:true" json:"enabled"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName maps the model to its durable table.
func (FacilityGrant) TableName() string { return "facility_grants" }
