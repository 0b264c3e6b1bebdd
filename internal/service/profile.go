package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/policy"
)

// ProfileService reads and edits profiles.
type ProfileService struct {
	profiles ProfileStore
}

func NewProfileService(profiles ProfileStore) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Get returns the profile with the given id.
func (s *ProfileService) Get(ctx context.Context, p policy.Principal, id string) (*model.Profile, error) {
	if err := policy.CanReadProfile(p, id); err != nil {
		return nil, err
	}
	return s.profiles.GetByID(ctx, id)
}

// UpdateFullName sets a trimmed, non-empty display name.
func (s *ProfileService) UpdateFullName(ctx context.Context, p policy.Principal, id string, req model.UpdateProfileRequest) (*model.Profile, error) {
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, fmt.Errorf("%w: full_name cannot be empty", model.ErrInvalidInput)
	}
	if err := policy.CanWriteProfile(p, id); err != nil {
		return nil, err
	}
	if err := s.profiles.UpdateFullName(ctx, id, name); err != nil {
		return nil, err
	}
	return s.profiles.GetByID(ctx, id)
}
