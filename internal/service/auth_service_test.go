package service

import (
	"context"
	"testing"
	"time"

	"safepath-server/internal/domain"
	"safepath-server/internal/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "unit-test-secret"

func newTestAuthService(repo *mocks.NgoAccountRepository, ttl time.Duration) AuthService {
	return NewAuthService(repo, testJWTSecret, ttl, zap.NewNop())
}

func TestSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(mocks.NgoAccountRepository)
		svc := newTestAuthService(repo, time.Hour)

		generatedID := uuid.New()
		repo.On("Create", ctx, mock.AnythingOfType("*domain.NgoAccount")).
			Run(func(args mock.Arguments) {
				account := args.Get(1).(*domain.NgoAccount)
				account.ID = generatedID
			}).
			Return(nil).Once()

		td, err := svc.Signup(ctx, "Safe Kids Trust", "Admin@SafeKids.org", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, generatedID, td.NgoID)
		assert.Equal(t, "admin@safekids.org", td.Email)
		assert.Equal(t, "Safe Kids Trust", td.OrgName)
		assert.NotEmpty(t, td.AccessToken)
		assert.Equal(t, int64(3600), td.ExpiresIn)
		repo.AssertExpectations(t)
	})

	t.Run("PasswordIsHashedBeforeStorage", func(t *testing.T) {
		repo := new(mocks.NgoAccountRepository)
		svc := newTestAuthService(repo, time.Hour)

		var storedHash string
		repo.On("Create", ctx, mock.AnythingOfType("*domain.NgoAccount")).
			Run(func(args mock.Arguments) {
				account := args.Get(1).(*domain.NgoAccount)
				account.ID = uuid.New()
				storedHash = account.PasswordHash
			}).
			Return(nil).Once()

		_, err := svc.Signup(ctx, "Safe Kids Trust", "admin@safekids.org", "s3cret-pass")
		require.NoError(t, err)
		assert.NotEqual(t, "s3cret-pass", storedHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("s3cret-pass")))
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo := new(mocks.NgoAccountRepository)
		svc := newTestAuthService(repo, time.Hour)

		repo.On("Create", ctx, mock.AnythingOfType("*domain.NgoAccount")).
			Return(domain.ErrEmailAlreadyExists).Once()

		_, err := svc.Signup(ctx, "Safe Kids Trust", "admin@safekids.org", "s3cret-pass")
		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		repo := new(mocks.NgoAccountRepository)
		svc := newTestAuthService(repo, time.Hour)

		_, err := svc.Signup(ctx, "Safe Kids Trust", "not-an-email", "s3cret-pass")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("EmptyOrgName", func(t *testing.T) {
		repo := new(mocks.NgoAccountRepository)
		svc := newTestAuthService(repo, time.Hour)

		_, err := svc.Signup(ctx, "   ", "admin@safekids.org", "s3cret-pass")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-pass"), bcryptCost)
	require.NoError(t, err)

	account := &domain.NgoAccount{
		ID:           uuid.New(),
		OrgName:      "Safe Kids Trust",
		Email:        "admin@safekids.org",
		PasswordHash: string(hash),
	}

	t.Run("Success", func(t *testing.T) {
		repo := new(mocks.NgoAccountRepository)
		svc := newTestAuthService(repo, time.Hour)

		repo.On("GetByEmail", ctx, "admin@safekids.org").Return(account, nil).Once()

		td, err := svc.Login(ctx, "Admin@SafeKids.org", "correct-pass")
		require.NoError(t, err)
		assert.Equal(t, account.ID, td.NgoID)
		assert.NotEmpty(t, td.AccessToken)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		repo := new(mocks.NgoAccountRepository)
		svc := newTestAuthService(repo, time.Hour)

		repo.On("GetByEmail", ctx, "admin@safekids.org").Return(account, nil).Once()

		_, err := svc.Login(ctx, "admin@safekids.org", "wrong-pass")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		repo := new(mocks.NgoAccountRepository)
		svc := newTestAuthService(repo, time.Hour)

		repo.On("GetByEmail", ctx, "ghost@safekids.org").
			Return(nil, domain.ErrAccountNotFound).Once()

		_, err := svc.Login(ctx, "ghost@safekids.org", "whatever")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestVerifyAccessToken(t *testing.T) {
	ctx := context.Background()

	issue := func(svc AuthService, repo *mocks.NgoAccountRepository) *domain.TokenDetails {
		repo.On("Create", ctx, mock.AnythingOfType("*domain.NgoAccount")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.NgoAccount).ID = uuid.New()
			}).
			Return(nil).Once()
		td, err := svc.Signup(ctx, "Safe Kids Trust", "admin@safekids.org", "s3cret-pass")
		require.NoError(t, err)
		return td
	}

	t.Run("RoundTrip", func(t *testing.T) {
		repo := new(mocks.NgoAccountRepository)
		svc := newTestAuthService(repo, time.Hour)
		td := issue(svc, repo)

		claims, err := svc.VerifyAccessToken(td.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "admin@safekids.org", claims.Email)
		assert.Equal(t, "Safe Kids Trust", claims.OrgName)
		assert.Equal(t, domain.RoleNgo, claims.Role)

		ngoID, err := claims.NgoID()
		require.NoError(t, err)
		assert.Equal(t, td.NgoID, ngoID)
	})

	t.Run("Expired", func(t *testing.T) {
		repo := new(mocks.NgoAccountRepository)
		svc := newTestAuthService(repo, -time.Minute)
		td := issue(svc, repo)

		_, err := svc.VerifyAccessToken(td.AccessToken)
		assert.ErrorIs(t, err, domain.ErrTokenExpired)
	})

	t.Run("Malformed", func(t *testing.T) {
		repo := new(mocks.NgoAccountRepository)
		svc := newTestAuthService(repo, time.Hour)

		_, err := svc.VerifyAccessToken("not.a.jwt")
		assert.ErrorIs(t, err, domain.ErrTokenMalformed)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		repo := new(mocks.NgoAccountRepository)
		issuer := NewAuthService(repo, "other-secret", time.Hour, zap.NewNop())
		td := issue(issuer, repo)

		verifier := newTestAuthService(new(mocks.NgoAccountRepository), time.Hour)
		_, err := verifier.VerifyAccessToken(td.AccessToken)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})
}
