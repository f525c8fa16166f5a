package service

import (
	"time"

	"github.com/logigrain/portauth/internal/domain/models"
	"github.com/logigrain/portauth/pkg/errors"
)

// TRABuilder constructs login ticket requests with a fixed UTC offset. It is
// pure computation: no I/O, no shared state.
type TRABuilder struct {
	utcOffset string
}

// NewTRABuilder creates a builder serializing timestamps with the given fixed
// offset (e.g. "-03:00").
func NewTRABuilder(utcOffset string) *TRABuilder {
	return &TRABuilder{utcOffset: utcOffset}
}

// Build creates the TRA for a gateway service identifier around now and
// returns it together with its XML serialization.
func (b *TRABuilder) Build(serviceID string, now time.Time) (*models.LoginTicketRequest, []byte, error) {
	tra, err := models.NewLoginTicketRequest(serviceID, now, b.utcOffset)
	if err != nil {
		return nil, nil, errors.ErrInvalidRequest(err.Error())
	}
	xmlBytes, err := tra.XML()
	if err != nil {
		return nil, nil, errors.ErrInternal("serializing login ticket request").WithCause(err)
	}
	return tra, xmlBytes, nil
}
