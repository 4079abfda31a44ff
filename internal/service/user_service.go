package service

import (
	"context"
	"fmt"
	"time"

	"facilityops/internal/model"
	"facilityops/internal/repository"

	"github.com/google/uuid"
)

// UserResponse is the public view of a user
type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CreatedAt string     `json:"created_at"`
}

// UserService exposes the directory used for display names and assignee pickers
type UserService interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	ListUsers(ctx context.Context, role model.Role) ([]UserResponse, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user %s", id)
	}
	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) ListUsers(ctx context.Context, role model.Role) ([]UserResponse, error) {
	if role != "" && !role.IsValid() {
		return nil, newValidationError(fmt.Sprintf("unknown role %q", role))
	}
	users, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out, nil
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}
