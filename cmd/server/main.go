// Command server runs the port authentication HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	appservice "github.com/logigrain/portauth/internal/application/service"
	"github.com/logigrain/portauth/internal/config"
	domainservice "github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/internal/infrastructure/audit"
	"github.com/logigrain/portauth/internal/infrastructure/crypto"
	"github.com/logigrain/portauth/internal/infrastructure/gateway"
	"github.com/logigrain/portauth/internal/infrastructure/kms"
	"github.com/logigrain/portauth/internal/infrastructure/monitoring"
	"github.com/logigrain/portauth/internal/infrastructure/persistence/postgres"
	"github.com/logigrain/portauth/internal/infrastructure/ratelimit"
	httpiface "github.com/logigrain/portauth/internal/interfaces/http"
	"github.com/logigrain/portauth/internal/interfaces/http/handlers"
	"github.com/logigrain/portauth/pkg/logger"
)

// sweepInterval is how often expired ticket rows are removed in the
// background. Lazy per-lookup eviction remains the correctness mechanism.
const sweepInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(logger.NewNoopLogger())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log, err := monitoring.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	ctx := context.Background()

	tm, err := monitoring.NewTracingManager(&cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer tm.Shutdown(ctx)

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	db, err := postgres.NewDBConnection(&cfg.Database)
	if err != nil {
		return err
	}
	if err := postgres.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	ticketRepo := postgres.NewTicketRepository(db, log)
	operatorRepo := postgres.NewOperatorRepository(db)
	grantRepo := postgres.NewGrantRepository(db)

	var identityProvider domainservice.IdentityProvider
	if cfg.Vault.Enabled {
		identityProvider, err = kms.NewVaultIdentityProvider(&cfg.Vault, &cfg.ARCA, log)
		if err != nil {
			return fmt.Errorf("initializing vault identity provider: %w", err)
		}
		log.Info(ctx, "signing identities served from vault")
	} else {
		identityProvider = crypto.NewFileIdentityProvider(&cfg.ARCA, log)
	}

	var signer domainservice.Signer
	if cfg.ARCA.SignerMode == "openssl" {
		signer = crypto.NewOpenSSLSigner(cfg.ARCA.OpenSSLPath, log)
	} else {
		signer = crypto.NewCMSSigner(log)
	}

	var limiter domainservice.RateLimitService = ratelimit.NoopRateLimiter{}
	if cfg.RateLimit.Enabled && cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		limiter = ratelimit.NewRedisRateLimiter(redisClient, &cfg.RateLimit, log)
	}

	var auditService domainservice.AuditService = audit.NoopAuditService{}
	if cfg.Audit.Enabled {
		producer := audit.NewKafkaProducer(&cfg.Audit, log)
		defer producer.Close()
		auditService = producer
	}

	builder := domainservice.NewTRABuilder(cfg.ARCA.UTCOffset)
	gatewayFactory := func(endpoint string) domainservice.GatewayClient {
		return gateway.NewWSAAClient(endpoint, log)
	}

	ticketService := appservice.NewTicketAppService(
		&cfg.ARCA, builder, identityProvider, signer, gatewayFactory,
		ticketRepo, grantRepo, metrics, auditService, log,
	)
	authService := appservice.NewAuthAppService(operatorRepo, &cfg.Session, auditService, log)

	router := httpiface.NewRouter(
		cfg, log, tm, metrics, limiter, authService,
		handlers.NewAuthHandler(authService),
		handlers.NewTicketHandler(ticketService),
		handlers.NewHealthHandler(db),
	)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go runSweeper(sweepCtx, ticketService, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info(ctx, "shutdown signal received", logger.Fields{"signal": sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return router.Stop(shutdownCtx)
}

func runSweeper(ctx context.Context, ticketService *appservice.TicketAppService, log logger.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := ticketService.SweepExpired(ctx); err != nil {
				log.Warn(ctx, "expired ticket sweep failed", logger.Fields{"error": err.Error()})
			}
		}
	}
}
