package user

import (
	"context"
	"fmt"

	"github.com/go-auth-api/internal/domain"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldPhone     = "phone"
	fieldFirstName = "first_name"
	fieldLastName  = "last_name"
	fieldImage     = "image"
	fieldFCMToken  = "fcm_token"
	fieldStatus    = "status"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Block(ctx context.Context, userID string) error
	Unblock(ctx context.Context, userID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

type service struct {
	repo userStore
}

type ServiceDeps struct {
	UserRepo userStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.UserRepo}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return u, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
	}
	if req.Image != nil {
		updates[fieldImage] = *req.Image
	}
	if req.FCMToken != nil {
		updates[fieldFCMToken] = *req.FCMToken
	}
	if len(updates) == 0 {
		return s.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Block(ctx context.Context, userID string) error {
	return s.setStatus(ctx, userID, domain.StatusBlocked)
}

func (s *service) Unblock(ctx context.Context, userID string) error {
	return s.setStatus(ctx, userID, domain.StatusActive)
}

func (s *service) setStatus(ctx context.Context, userID string, status domain.Status) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.IsDeleted {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldStatus: status})
}
