package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

// AccountRepository handles persistence for identities.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts an identity and its profile in one transaction, so a profile
// row exists for every identity from the moment the account is visible.
func (r *AccountRepository) Create(ctx context.Context, email, passwordHash string, meta model.UserMetadata) (ident *model.Identity, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	ident = &model.Identity{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
		Metadata:  meta,
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO identities (id, email, password_hash, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ident.ID, ident.Email, passwordHash, meta, ident.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO profiles (id, full_name, user_type) VALUES ($1, $2, $3)`,
		ident.ID, meta.FullName, string(meta.UserType),
	)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return ident, nil
}

// FindByEmail returns the identity and its password hash, or ErrNotFound.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*model.Identity, string, error) {
	var (
		ident model.Identity
		hash  string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, email, password_hash, metadata, created_at
		 FROM identities WHERE email = $1`,
		email,
	).Scan(&ident.ID, &ident.Email, &hash, &ident.Metadata, &ident.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("find identity: %w", err)
	}
	return &ident, hash, nil
}

// GetByID returns a single identity or ErrNotFound.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*model.Identity, error) {
	var ident model.Identity
	err := r.db.QueryRow(ctx,
		`SELECT id, email, metadata, created_at FROM identities WHERE id = $1`,
		id,
	).Scan(&ident.ID, &ident.Email, &ident.Metadata, &ident.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return &ident, nil
}

// UpdateFullName rewrites the full_name key of the identity metadata.
func (r *AccountRepository) UpdateFullName(ctx context.Context, id, fullName string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE identities
		 SET metadata = jsonb_set(metadata, '{full_name}', to_jsonb($2::text))
		 WHERE id = $1`,
		id, fullName,
	)
	if err != nil {
		return fmt.Errorf("update identity metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
