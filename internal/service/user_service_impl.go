package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/idia-astro/ilifudb/internal/password"
	"github.com/idia-astro/ilifudb/internal/repository"
)

type userService struct {
	users    repository.UserRepo
	projects repository.ProjectRepo
	observer UseCaseObserver
}

func NewUserService(
	users repository.UserRepo,
	projects repository.ProjectRepo,
	observers ...UseCaseObserver,
) UserService {
	return &userService{
		users:    users,
		projects: projects,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *userService) Create(ctx context.Context, req NewUserRequest) (user *domain.User, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"username": req.Username}
	defer func() {
		observe(ctx, s.observer, "create-user", startedAt, fields, err)
	}()

	u := &domain.User{
		Enabled:     req.Enabled,
		Username:    req.Username,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Institution: req.Institution,
	}
	if req.ContactNumber != "" {
		contact := req.ContactNumber
		u.ContactNumber = &contact
	}
	if req.PublicKey != "" {
		key, err := password.ValidatePublicKey(req.PublicKey)
		if err != nil {
			return nil, err
		}
		u.PublicKey = &key
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if req.Password != "" {
		hash, err := password.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = &hash
		fields["password_set"] = true
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *userService) List(ctx context.Context, includeDisabled bool) ([]*domain.User, error) {
	return s.users.List(ctx, includeDisabled)
}

func (s *userService) Update(ctx context.Context, u *domain.User) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"username": u.Username, "id": u.ID}
	defer func() {
		observe(ctx, s.observer, "update-user", startedAt, fields, err)
	}()

	if u.PublicKey != nil && *u.PublicKey != "" {
		key, err := password.ValidatePublicKey(*u.PublicKey)
		if err != nil {
			return err
		}
		u.PublicKey = &key
	}
	if err := u.Validate(); err != nil {
		return err
	}
	return s.users.Update(ctx, u)
}

func (s *userService) SetEnabled(ctx context.Context, username string, enabled bool) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"username": username, "enabled": enabled}
	defer func() {
		observe(ctx, s.observer, "set-user-enabled", startedAt, fields, err)
	}()

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.users.SetEnabled(ctx, u.ID, enabled)
}

func (s *userService) SetPassword(ctx context.Context, username, plain string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"username": username}
	defer func() {
		observe(ctx, s.observer, "set-user-password", startedAt, fields, err)
	}()

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	hash, err := password.Hash(plain)
	if err != nil {
		return err
	}
	u.PasswordHash = &hash
	return s.users.Update(ctx, u)
}

func (s *userService) ProjectRoles(ctx context.Context, username string) ([]*domain.Project, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.projects.ListByUser(ctx, u.ID)
}

func (s *userService) Delete(ctx context.Context, username string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"username": username}
	defer func() {
		observe(ctx, s.observer, "delete-user", startedAt, fields, err)
	}()

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("user %q: %w", username, err)
		}
		return err
	}
	return nil
}
