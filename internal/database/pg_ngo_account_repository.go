package database

import (
	"context"
	"errors"
	"fmt"

	"safepath-server/internal/domain"
	"safepath-server/internal/interfaces"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgNgoAccountRepository implements NgoAccountRepository
var _ interfaces.NgoAccountRepository = (*pgNgoAccountRepository)(nil)

type pgNgoAccountRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgNgoAccountRepository creates a new PostgreSQL-backed NgoAccountRepository.
func NewPgNgoAccountRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.NgoAccountRepository {
	return &pgNgoAccountRepository{
		db:     db,
		logger: logger.Named("PgNgoAccountRepo"),
	}
}

const ngoAccountFields = `id, org_name, email, password_hash, created_at, updated_at`

// Create inserts a new NGO account. The id is generated by the database
// (gen_random_uuid) and written back into the struct; it is never derived
// from the email or any caller input.
func (r *pgNgoAccountRepository) Create(ctx context.Context, account *domain.NgoAccount) error {
	query := `INSERT INTO ngo_accounts (org_name, email, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("email", account.Email), zap.String("orgName", account.OrgName))
	err := r.db.QueryRow(ctx, query, account.OrgName, account.Email, account.PasswordHash).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			r.logger.Warn("Attempted to create duplicate NGO account by email", zap.String("email", account.Email), zap.String("constraint", pgErr.ConstraintName))
			return domain.ErrEmailAlreadyExists
		}
		r.logger.Error("Failed to create ngo account in postgres", zap.Error(err), zap.String("email", account.Email))
		return fmt.Errorf("failed to create ngo account in postgres: %w", err)
	}

	r.logger.Info("NGO account created successfully", zap.String("ngoID", account.ID.String()), zap.String("email", account.Email))
	return nil
}

// GetByEmail retrieves an account by its unique email.
func (r *pgNgoAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.NgoAccount, error) {
	query := `SELECT ` + ngoAccountFields + ` FROM ngo_accounts WHERE email = $1`
	account := &domain.NgoAccount{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("email", email))
	err := r.db.QueryRow(ctx, query, email).
		Scan(&account.ID, &account.OrgName, &account.Email, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("NGO account not found by email", zap.String("email", email))
			return nil, domain.ErrAccountNotFound
		}
		r.logger.Error("Failed to get ngo account by email from postgres", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get ngo account by email from postgres: %w", err)
	}
	return account, nil
}

// GetByID retrieves an account by its id.
func (r *pgNgoAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.NgoAccount, error) {
	query := `SELECT ` + ngoAccountFields + ` FROM ngo_accounts WHERE id = $1`
	account := &domain.NgoAccount{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("id", id.String()))
	err := r.db.QueryRow(ctx, query, id).
		Scan(&account.ID, &account.OrgName, &account.Email, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("NGO account not found by ID", zap.String("id", id.String()))
			return nil, domain.ErrAccountNotFound
		}
		r.logger.Error("Failed to get ngo account by id from postgres", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get ngo account by id from postgres: %w", err)
	}
	return account, nil
}
