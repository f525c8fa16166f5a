// Package service implements the application-level use cases: ticket
// acquisition with its two cache tiers, and operator session handling.
package service

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/logigrain/portauth/internal/application/dto"
	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/internal/domain/models"
	"github.com/logigrain/portauth/internal/domain/repository"
	domainservice "github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/internal/infrastructure/monitoring"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/errors"
	"github.com/logigrain/portauth/pkg/logger"
)

// GatewayFactory builds a gateway client for an endpoint. Injection point for
// tests; production wiring passes the WSAA client constructor.
type GatewayFactory func(endpoint string) domainservice.GatewayClient

// TicketAppService is the ticket acquisition pipeline: grant check, two cache
// tiers, and the build-sign-login sequence on a miss. Concurrent requests for
// the same key collapse into a single issuance.
type TicketAppService struct {
	arcaCfg  *config.ARCAConfig
	builder  *domainservice.TRABuilder
	identity domainservice.IdentityProvider
	signer   domainservice.Signer

	gatewayFactory GatewayFactory
	gatewayMu      sync.Mutex
	gateways       map[string]domainservice.GatewayClient

	ticketRepo repository.TicketRepository
	grantRepo  repository.GrantRepository

	l1     *gocache.Cache
	flight singleflight.Group

	metrics *monitoring.Metrics
	audit   domainservice.AuditService
	logger  logger.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewTicketAppService wires the acquisition pipeline.
func NewTicketAppService(
	arcaCfg *config.ARCAConfig,
	builder *domainservice.TRABuilder,
	identity domainservice.IdentityProvider,
	signer domainservice.Signer,
	gatewayFactory GatewayFactory,
	ticketRepo repository.TicketRepository,
	grantRepo repository.GrantRepository,
	metrics *monitoring.Metrics,
	audit domainservice.AuditService,
	log logger.Logger,
) *TicketAppService {
	return &TicketAppService{
		arcaCfg:        arcaCfg,
		builder:        builder,
		identity:       identity,
		signer:         signer,
		gatewayFactory: gatewayFactory,
		gateways:       make(map[string]domainservice.GatewayClient),
		ticketRepo:     ticketRepo,
		grantRepo:      grantRepo,
		l1:             gocache.New(constants.TicketL1TTL, 2*constants.TicketL1TTL),
		metrics:        metrics,
		audit:          audit,
		logger:         log,
		now:            time.Now,
	}
}

type acquisition struct {
	ticket *models.Ticket
	source string
}

// GetOrIssue returns a valid (token, sign) pair for the operator, facility,
// and service kind, issuing a fresh one through the gateway only on a cache
// miss. The grant check runs before any cache or network work.
func (s *TicketAppService) GetOrIssue(ctx context.Context, operatorID int64, facilityCode string, kind constants.ServiceKind) (*dto.TicketResponse, error) {
	if !kind.IsValid() {
		return nil, errors.ErrInvalidRequest("unknown service kind").
			WithMetadata("service_kind", string(kind))
	}
	if facilityCode == "" {
		return nil, errors.ErrInvalidRequest("facility_code is required")
	}

	authorized, err := s.grantRepo.Authorized(ctx, operatorID, facilityCode)
	if err != nil {
		return nil, err
	}
	if !authorized {
		s.audit.Record(ctx, constants.AuditEventAccessDenied, map[string]interface{}{
			"operator_id":   operatorID,
			"facility_code": facilityCode,
			"service_kind":  string(kind),
		})
		return nil, errors.ErrAccessDenied(operatorID, facilityCode)
	}

	key := models.TicketKey{OperatorID: operatorID, FacilityCode: facilityCode, ServiceKind: kind}
	now := s.now()

	if cached, ok := s.l1.Get(key.String()); ok {
		ticket := cached.(*models.Ticket)
		if !ticket.IsExpired(now) {
			s.metrics.ObserveCacheHit("l1", string(kind))
			s.audit.Record(ctx, constants.AuditEventTicketCacheHit, auditFields(key))
			return s.response(ticket, true, "l1"), nil
		}
		s.l1.Delete(key.String())
	}

	result, err, _ := s.flight.Do(key.String(), func() (interface{}, error) {
		return s.lookupOrIssue(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	acq := result.(*acquisition)
	cached := acq.source != "gateway"
	if cached {
		s.audit.Record(ctx, constants.AuditEventTicketCacheHit, auditFields(key))
	}
	return s.response(acq.ticket, cached, acq.source), nil
}

// lookupOrIssue runs under the single-flight lock for the key: durable store
// lookup with lazy eviction, then a fresh issuance on a miss.
func (s *TicketAppService) lookupOrIssue(ctx context.Context, key models.TicketKey) (*acquisition, error) {
	now := s.now()

	stored, err := s.ticketRepo.FindByKey(ctx, key)
	switch {
	case err == nil && !stored.IsExpired(now):
		s.metrics.ObserveCacheHit("store", string(key.ServiceKind))
		s.l1.SetDefault(key.String(), stored)
		return &acquisition{ticket: stored, source: "store"}, nil
	case err == nil:
		// Expired row: evict lazily. A failed delete is survivable because
		// Replace clears the key anyway.
		if _, delErr := s.ticketRepo.DeleteByKey(ctx, key); delErr != nil {
			s.logger.Warn(ctx, "failed to evict expired ticket",
				logger.Fields{"ticket_key": key.String(), "error": delErr.Error()})
		}
	case !errors.IsNotFound(err):
		return nil, err
	}

	s.metrics.ObserveCacheMiss(string(key.ServiceKind))
	ticket, err := s.issue(ctx, key)
	if err != nil {
		return nil, err
	}
	return &acquisition{ticket: ticket, source: "gateway"}, nil
}

// issue performs the build-sign-login sequence and persists the result. Steps
// run strictly in order; the first failure propagates with its own error code.
func (s *TicketAppService) issue(ctx context.Context, key models.TicketKey) (*models.Ticket, error) {
	started := s.now()
	kind := key.ServiceKind

	svc, err := s.arcaCfg.Service(kind)
	if err != nil {
		return nil, errors.ErrInvalidRequest(err.Error())
	}

	_, traXML, err := s.builder.Build(svc.ServiceID, started)
	if err != nil {
		s.metrics.ObserveIssue(string(kind), "build_failed", s.now().Sub(started))
		return nil, err
	}

	identity, err := s.identity.Identity(ctx, kind)
	if err != nil {
		s.metrics.ObserveIssue(string(kind), "identity_missing", s.now().Sub(started))
		return nil, err
	}

	cmsBase64, err := s.signer.SignBase64(ctx, traXML, identity)
	if err != nil {
		s.metrics.ObserveSigningFailure()
		s.metrics.ObserveIssue(string(kind), "signing_failed", s.now().Sub(started))
		s.audit.Record(ctx, constants.AuditEventSigningFailed, auditFields(key))
		return nil, err
	}

	gateway := s.gatewayFor(svc.URL)
	credentials, err := gateway.LoginCms(ctx, cmsBase64)
	if err != nil {
		s.metrics.ObserveGatewayCall(string(errors.CodeOf(err)))
		s.metrics.ObserveIssue(string(kind), "gateway_failed", s.now().Sub(started))
		if errors.IsCode(err, constants.ErrCodeGatewayRemoteRejected) {
			s.audit.Record(ctx, constants.AuditEventGatewayRejected, map[string]interface{}{
				"operator_id":   key.OperatorID,
				"facility_code": key.FacilityCode,
				"service_kind":  string(kind),
				"fault":         err.Error(),
			})
		}
		return nil, err
	}
	s.metrics.ObserveGatewayCall("ok")

	ticket := models.NewTicket(key, credentials.Token, credentials.Sign, gateway.Endpoint(), s.now())
	if err := s.ticketRepo.Replace(ctx, ticket); err != nil {
		s.metrics.ObserveIssue(string(kind), "store_failed", s.now().Sub(started))
		return nil, err
	}
	s.l1.SetDefault(key.String(), ticket)

	s.metrics.ObserveIssue(string(kind), "ok", s.now().Sub(started))
	s.audit.Record(ctx, constants.AuditEventTicketIssued, map[string]interface{}{
		"operator_id":   key.OperatorID,
		"facility_code": key.FacilityCode,
		"service_kind":  string(kind),
		"expires_at":    ticket.ExpiresAt,
	})
	s.logger.Info(ctx, "issued fresh gateway ticket",
		logger.Fields{
			"ticket_key": key.String(),
			"gateway":    gateway.Endpoint(),
			"expires_at": ticket.ExpiresAt,
			"token":      logger.Preview(credentials.Token),
		})

	return ticket, nil
}

// Invalidate drops the cached ticket for the key from both tiers. The next
// request for the key will issue a fresh pair.
func (s *TicketAppService) Invalidate(ctx context.Context, operatorID int64, facilityCode string, kind constants.ServiceKind) (int64, error) {
	if !kind.IsValid() {
		return 0, errors.ErrInvalidRequest("unknown service kind")
	}
	authorized, err := s.grantRepo.Authorized(ctx, operatorID, facilityCode)
	if err != nil {
		return 0, err
	}
	if !authorized {
		return 0, errors.ErrAccessDenied(operatorID, facilityCode)
	}

	key := models.TicketKey{OperatorID: operatorID, FacilityCode: facilityCode, ServiceKind: kind}
	s.l1.Delete(key.String())
	return s.ticketRepo.DeleteByKey(ctx, key)
}

// SweepExpired removes every durably stored row that is already expired.
// Intended for a periodic background run; lazy eviction remains the contract.
func (s *TicketAppService) SweepExpired(ctx context.Context) (int64, error) {
	return s.ticketRepo.DeleteExpired(ctx, s.now())
}

func (s *TicketAppService) gatewayFor(endpoint string) domainservice.GatewayClient {
	s.gatewayMu.Lock()
	defer s.gatewayMu.Unlock()
	if client, ok := s.gateways[endpoint]; ok {
		return client
	}
	client := s.gatewayFactory(endpoint)
	s.gateways[endpoint] = client
	return client
}

func (s *TicketAppService) response(ticket *models.Ticket, cached bool, source string) *dto.TicketResponse {
	now := s.now()
	return &dto.TicketResponse{
		Token:        ticket.Token,
		Sign:         ticket.Sign,
		ServiceKind:  string(ticket.ServiceKind),
		ServiceName:  ticket.ServiceName,
		FacilityCode: ticket.FacilityCode,
		GatewayURL:   ticket.WSAAURL,
		CacheInfo: dto.CacheInfo{
			Cached:           cached,
			Source:           source,
			IssuedAt:         ticket.IssuedAt,
			ExpiresAt:        ticket.ExpiresAt,
			RemainingSeconds: int64(ticket.Remaining(now).Seconds()),
		},
	}
}

func auditFields(key models.TicketKey) map[string]interface{} {
	return map[string]interface{}{
		"operator_id":   key.OperatorID,
		"facility_code": key.FacilityCode,
		"service_kind":  string(key.ServiceKind),
	}
}
