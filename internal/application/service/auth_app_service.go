package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/logigrain/portauth/internal/application/dto"
	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/internal/domain/models"
	"github.com/logigrain/portauth/internal/domain/repository"
	domainservice "github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/errors"
	"github.com/logigrain/portauth/pkg/logger"
)

// AuthAppService handles operator login and session token validation.
type AuthAppService struct {
	operatorRepo repository.OperatorRepository
	sessionCfg   *config.SessionConfig
	audit        domainservice.AuditService
	logger       logger.Logger

	now func() time.Time
}

// NewAuthAppService wires the operator session service.
func NewAuthAppService(
	operatorRepo repository.OperatorRepository,
	sessionCfg *config.SessionConfig,
	audit domainservice.AuditService,
	log logger.Logger,
) *AuthAppService {
	return &AuthAppService{
		operatorRepo: operatorRepo,
		sessionCfg:   sessionCfg,
		audit:        audit,
		logger:       log,
		now:          time.Now,
	}
}

// Login verifies the operator's credentials and issues a session token. A
// missing account and a wrong password produce the same error so the endpoint
// does not leak which usernames exist.
func (s *AuthAppService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	operator, err := s.operatorRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.IsNotFound(err) {
			s.recordLoginFailure(ctx, req.Username, "unknown_username")
			return nil, errors.ErrUnauthorized("invalid username or password")
		}
		return nil, err
	}
	if !operator.Enabled {
		s.recordLoginFailure(ctx, req.Username, "account_disabled")
		return nil, errors.ErrUnauthorized("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(req.Password)); err != nil {
		s.recordLoginFailure(ctx, req.Username, "wrong_password")
		return nil, errors.ErrUnauthorized("invalid username or password")
	}

	now := s.now()
	claims := models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.sessionCfg.Issuer,
			Subject:   operator.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(constants.SessionTokenTTL)),
		},
		OperatorID: operator.ID,
		Username:   operator.Username,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.sessionCfg.Secret))
	if err != nil {
		return nil, errors.ErrInternal("signing session token").WithCause(err)
	}

	s.audit.Record(ctx, constants.AuditEventOperatorLogin, map[string]interface{}{
		"operator_id": operator.ID,
		"username":    operator.Username,
	})
	s.logger.Info(ctx, "operator logged in",
		logger.Fields{"operator_id": operator.ID, "username": operator.Username})

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(constants.SessionTokenTTL.Seconds()),
		Operator: dto.OperatorInfo{
			ID:       operator.ID,
			Username: operator.Username,
			FullName: operator.FullName,
		},
	}, nil
}

// ValidateSession parses and verifies a session token, returning its claims.
func (s *AuthAppService) ValidateSession(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.ErrUnauthorized("unexpected signing method")
		}
		return []byte(s.sessionCfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.ErrUnauthorized("invalid or expired session token")
	}
	return claims, nil
}

func (s *AuthAppService) recordLoginFailure(ctx context.Context, username, reason string) {
	s.audit.Record(ctx, constants.AuditEventLoginFailed, map[string]interface{}{
		"username": username,
		"reason":   reason,
	})
	s.logger.Warn(ctx, "operator login failed",
		logger.Fields{"username": username, "reason": reason})
}
