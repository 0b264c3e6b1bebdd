package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

// ProfileRepository handles persistence for profiles.
type ProfileRepository struct {
	db DBTX
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID returns a single profile or ErrNotFound. A stored user_type outside
// the known roles is reported as an error rather than passed through.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var (
		p   model.Profile
		raw string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, full_name, user_type FROM profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.FullName, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	role, err := model.ParseRole(raw)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, err)
	}
	p.UserType = role
	return &p, nil
}

// UpdateFullName sets the profile's display name.
func (r *ProfileRepository) UpdateFullName(ctx context.Context, id, fullName string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles SET full_name = $2 WHERE id = $1`,
		id, fullName,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
