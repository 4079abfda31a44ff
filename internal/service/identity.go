package service

import (
	"context"

	"facilityops/internal/model"
	"facilityops/internal/repository"

	"github.com/google/uuid"
)

// IdentityResolver answers who a caller is.
type IdentityResolver interface {
	Lookup(ctx context.Context, userID uuid.UUID) (*model.User, error)
	RoleOf(ctx context.Context, userID uuid.UUID) (model.Role, error)
}

type identityResolver struct {
	users repository.UserRepository
}

func NewIdentityResolver(users repository.UserRepository) IdentityResolver {
	return &identityResolver{users: users}
}

func (r *identityResolver) Lookup(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user %s", userID)
	}
	return user, nil
}

func (r *identityResolver) RoleOf(ctx context.Context, userID uuid.UUID) (model.Role, error) {
	user, err := r.Lookup(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}
