package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"safepath-server/internal/domain"
	"safepath-server/internal/interfaces"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// AuthService handles NGO account lifecycle and token verification.
type AuthService interface {
	// Signup registers the organization and returns a fresh access token.
	Signup(ctx context.Context, orgName, email, password string) (*domain.TokenDetails, error)
	// Login verifies credentials and returns a fresh access token.
	Login(ctx context.Context, email, password string) (*domain.TokenDetails, error)
	// VerifyAccessToken validates the signature, expiry and role of a bearer
	// token and returns its claims. Every protected operation derives the
	// acting identity from the returned claims.
	VerifyAccessToken(tokenString string) (*domain.Claims, error)
}

// Compile-time check to ensure authServiceImpl implements AuthService
var _ AuthService = (*authServiceImpl)(nil)

type authServiceImpl struct {
	accountRepo interfaces.NgoAccountRepository
	jwtSecret   []byte
	tokenTTL    time.Duration
	logger      *zap.Logger
}

// NewAuthService creates a new instance of authServiceImpl.
func NewAuthService(accountRepo interfaces.NgoAccountRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		accountRepo: accountRepo,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		logger:      logger.Named("AuthService"),
	}
}

// Signup registers a new NGO account.
func (s *authServiceImpl) Signup(ctx context.Context, orgName, email, password string) (*domain.TokenDetails, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	orgName = strings.TrimSpace(orgName)

	logFields := []zap.Field{zap.String("orgName", orgName), zap.String("email", email)}
	s.logger.Info("Registering new NGO account", logFields...)

	if _, err := mail.ParseAddress(email); err != nil {
		s.logger.Warn("Signup attempt with invalid email format", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("invalid email format: %w", domain.ErrInvalidInput)
	}
	if orgName == "" || password == "" {
		s.logger.Warn("Signup attempt with empty organization name or password", logFields...)
		return nil, domain.ErrInvalidInput
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		s.logger.Error("Failed to hash password during signup", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &domain.NgoAccount{
		OrgName:      orgName,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			s.logger.Warn("Signup attempt for existing email", logFields...)
			return nil, err
		}
		s.logger.Error("Failed to create account via repository", append(logFields, zap.Error(err))...)
		return nil, err
	}

	s.logger.Info("NGO account registered successfully",
		zap.String("ngoID", account.ID.String()), zap.String("email", account.Email))
	return s.issueToken(account)
}

// Login authenticates an NGO account and returns token details.
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*domain.TokenDetails, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.logger.Info("Login attempt", zap.String("email", email))

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.logger.Warn("Login failed: account not found", zap.String("email", email))
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Error("Login failed: error getting account from repository",
			zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("Login failed: invalid password",
			zap.String("email", email), zap.String("ngoID", account.ID.String()))
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info("Login successful", zap.String("ngoID", account.ID.String()))
	return s.issueToken(account)
}

// issueToken signs a fresh HS256 access token for the account.
func (s *authServiceImpl) issueToken(account *domain.NgoAccount) (*domain.TokenDetails, error) {
	now := time.Now()
	claims := &domain.Claims{
		Email:   account.Email,
		OrgName: account.OrgName,
		Role:    domain.RoleNgo,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		s.logger.Error("Failed to sign access token",
			zap.String("ngoID", account.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &domain.TokenDetails{
		NgoID:       account.ID,
		Email:       account.Email,
		OrgName:     account.OrgName,
		AccessToken: signed,
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}

// VerifyAccessToken parses and validates a bearer token.
func (s *authServiceImpl) VerifyAccessToken(tokenString string) (*domain.Claims, error) {
	claims := &domain.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, domain.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.ErrTokenExpired
		default:
			return nil, domain.ErrTokenInvalid
		}
	}
	if !token.Valid {
		return nil, domain.ErrTokenInvalid
	}
	if claims.Role != domain.RoleNgo {
		s.logger.Warn("Token with unexpected role", zap.String("role", claims.Role))
		return nil, domain.ErrForbidden
	}
	if _, err := claims.NgoID(); err != nil {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}
