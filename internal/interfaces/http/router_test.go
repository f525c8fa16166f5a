package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/logigrain/portauth/internal/application/dto"
	appservice "github.com/logigrain/portauth/internal/application/service"
	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/internal/domain/models"
	domainservice "github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/internal/infrastructure/audit"
	"github.com/logigrain/portauth/internal/infrastructure/gateway"
	"github.com/logigrain/portauth/internal/infrastructure/monitoring"
	"github.com/logigrain/portauth/internal/infrastructure/persistence/postgres"
	"github.com/logigrain/portauth/internal/infrastructure/ratelimit"
	"github.com/logigrain/portauth/internal/interfaces/http/handlers"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/logger"
)

const wsaaSuccessEnvelope = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <loginCmsResponse>
      <loginCmsReturn>&lt;loginTicketResponse&gt;&lt;credentials&gt;&lt;token&gt;e2e-token&lt;/token&gt;&lt;sign&gt;e2e-sign&lt;/sign&gt;&lt;/credentials&gt;&lt;/loginTicketResponse&gt;</loginCmsReturn>
    </loginCmsResponse>
  </soapenv:Body>
</soapenv:Envelope>`

type stubIdentityProvider struct{}

func (stubIdentityProvider) Identity(ctx context.Context, kind constants.ServiceKind) (*domainservice.SigningIdentity, error) {
	return &domainservice.SigningIdentity{CertPEM: []byte("cert"), KeyPEM: []byte("key")}, nil
}

type stubSigner struct{}

func (stubSigner) SignBase64(ctx context.Context, content []byte, identity *domainservice.SigningIdentity) (string, error) {
	return "Q01TLXNpZ25lZA==", nil
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, postgres.AutoMigrate(db))

	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	operatorRepo := postgres.NewOperatorRepository(db)
	grantRepo := postgres.NewGrantRepository(db)
	operator := &models.Operator{Username: "jperez", PasswordHash: string(hash), Enabled: true}
	require.NoError(t, operatorRepo.Create(ctx, operator))
	require.NoError(t, grantRepo.CreateFacility(ctx, &models.Facility{Code: "TRP1", Name: "Truck yard 1", Enabled: true}))
	require.NoError(t, grantRepo.CreateGrant(ctx, &models.FacilityGrant{OperatorID: operator.ID, FacilityCode: "TRP1", Enabled: true}))

	wsaa := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(wsaaSuccessEnvelope))
	}))
	t.Cleanup(wsaa.Close)

	log := logger.NewNoopLogger()
	cfg := &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Session: config.SessionConfig{Secret: "router-test-secret", Issuer: "portauth-test"},
		ARCA: config.ARCAConfig{
			Environment: string(constants.EnvironmentTest),
			UTCOffset:   constants.DefaultUTCOffset,
			SignerMode:  "cms",
			CPE:         config.ARCAServiceConfig{URL: wsaa.URL},
		},
		RateLimit: config.RateLimitConfig{Enabled: false, DefaultRPM: 30},
	}

	tm, err := monitoring.NewTracingManager(&cfg.Tracing, log)
	require.NoError(t, err)
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	ticketService := appservice.NewTicketAppService(
		&cfg.ARCA,
		domainservice.NewTRABuilder(cfg.ARCA.UTCOffset),
		stubIdentityProvider{},
		stubSigner{},
		func(endpoint string) domainservice.GatewayClient { return gateway.NewWSAAClient(endpoint, log) },
		postgres.NewTicketRepository(db, log),
		grantRepo,
		metrics,
		audit.NoopAuditService{},
		log,
	)
	authService := appservice.NewAuthAppService(operatorRepo, &cfg.Session, audit.NoopAuditService{}, log)

	return NewRouter(
		cfg, log, tm, metrics, ratelimit.NoopRateLimiter{}, authService,
		handlers.NewAuthHandler(authService),
		handlers.NewTicketHandler(ticketService),
		handlers.NewHealthHandler(db),
	)
}

func doJSON(t *testing.T, router *Router, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.Engine().ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *Router) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"jperez","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken
}

func TestRouter_LoginAndAcquireTicket(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/v1/tickets/cpe", token,
		`{"facility_code":"TRP1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.TicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "e2e-token", resp.Token)
	assert.Equal(t, "e2e-sign", resp.Sign)
	assert.False(t, resp.CacheInfo.Cached)

	// The second request must come from cache.
	w = doJSON(t, router, http.MethodPost, "/api/v1/tickets/cpe", token,
		`{"facility_code":"TRP1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.CacheInfo.Cached)
}

func TestRouter_TicketRequiresSession(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/tickets/cpe", "",
		`{"facility_code":"TRP1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/tickets/cpe", "garbage-token",
		`{"facility_code":"TRP1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_UngrantedFacilityIsForbidden(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/v1/tickets/cpe", token,
		`{"facility_code":"TSL9"}`)
	require.Equal(t, http.StatusForbidden, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(constants.ErrCodeAccessDenied), resp.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestRouter_UnknownServiceKind(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/v1/tickets/bogus", token,
		`{"facility_code":"TRP1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_BadLogin(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"jperez","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_HealthProbes(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/live", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
