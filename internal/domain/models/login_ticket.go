// Package models defines the domain models for the port authentication
// service: the login ticket request sent to the WSAA gateway, the cached
// access ticket, and the identity records behind the access-control gate.
package models

import (
	"encoding/xml"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"time"

	"github.com/logigrain/portauth/pkg/constants"
)

// offsetPattern matches a fixed UTC offset of the form +HH:MM or -HH:MM.
var offsetPattern = regexp.MustCompile(`^[+-]\d{2}:\d{2}$`)

// LoginTicketRequest is the TRA (Ticket de Requerimiento de Acceso) document
// asserting which downstream service a ticket is being requested for. It is
// built per signing attempt, never persisted, and discarded after use.
//
// The generation and expiration times bracket the construction instant by
// exactly the TRA validity window on each side, and are serialized with a
// fixed configured UTC offset. The offset is a constant of the deployment,
// not derived from the host clock's zone: a server running in a different
// zone with a stale offset produces self-consistent but incorrectly offset
// timestamps.
type LoginTicketRequest struct {
	UniqueID       int64
	GenerationTime time.Time
	ExpirationTime time.Time
	ServiceID      string

	offset string
}

// NewLoginTicketRequest builds a TRA for the given gateway service identifier
// around the instant now. The unique id is drawn from a non-cryptographic
// random source; collision tolerance is best-effort.
func NewLoginTicketRequest(serviceID string, now time.Time, utcOffset string) (*LoginTicketRequest, error) {
	if serviceID == "" {
		return nil, fmt.Errorf("service id must not be empty")
	}
	loc, err := locationFor(utcOffset)
	if err != nil {
		return nil, err
	}

	local := now.In(loc)
	return &LoginTicketRequest{
		UniqueID:       rand.Int64N(constants.TRAUniqueIDMax),
		GenerationTime: local.Add(-constants.TRAValidityWindow),
		ExpirationTime: local.Add(constants.TRAValidityWindow),
		ServiceID:      serviceID,
		offset:         utcOffset,
	}, nil
}

// Offset returns the fixed UTC offset the timestamps are serialized with.
func (r *LoginTicketRequest) Offset() string { return r.offset }

// Window returns the distance between expiration and generation time.
func (r *LoginTicketRequest) Window() time.Duration {
	return r.ExpirationTime.Sub(r.GenerationTime)
}

type traHeaderXML struct {
	UniqueID       int64  `xml:"uniqueId"`
	GenerationTime string `xml:"generationTime"`
	ExpirationTime string `xml:"expirationTime"`
}

type traXML struct {
	XMLName xml.Name     `xml:"loginTicketRequest"`
	Version string       `xml:"version,attr"`
	Header  traHeaderXML `xml:"header"`
	Service string       `xml:"service"`
}

// XML serializes the TRA in the wire form the gateway expects:
//
//	<loginTicketRequest version="1.0">
//	  <header>
//	    <uniqueId>...</uniqueId>
//	    <generationTime>2025-12-10T15:40:00-03:00</generationTime>
//	    <expirationTime>2025-12-10T16:00:00-03:00</expirationTime>
//	  </header>
//	  <service>wscpe</service>
//	</loginTicketRequest>
func (r *LoginTicketRequest) XML() ([]byte, error) {
	doc := traXML{
		Version: "1.0",
		Header: traHeaderXML{
			UniqueID:       r.UniqueID,
			GenerationTime: r.formatTimestamp(r.GenerationTime),
			ExpirationTime: r.formatTimestamp(r.ExpirationTime),
		},
		Service: r.ServiceID,
	}
	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling login ticket request: %w", err)
	}
	return out, nil
}

func (r *LoginTicketRequest) formatTimestamp(t time.Time) string {
	return t.Format(constants.TRATimestampLayout) + r.offset
}

// locationFor converts a fixed offset string like "-03:00" into a time zone.
func locationFor(offset string) (*time.Location, error) {
	if !offsetPattern.MatchString(offset) {
		return nil, fmt.Errorf("invalid utc offset %q, want ±HH:MM", offset)
	}
	hours, _ := strconv.Atoi(offset[1:3])
	minutes, _ := strconv.Atoi(offset[4:6])
	seconds := hours*3600 + minutes*60
	if offset[0] == '-' {
		seconds = -seconds
	}
	return time.FixedZone("UTC"+offset, seconds), nil
}
