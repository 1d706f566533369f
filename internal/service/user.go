package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/idplane/idplane/internal/credentials"
	"github.com/idplane/idplane/internal/domain"
)

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserService struct {
	users  userRepo
	hasher credentials.Hasher
	log    *slog.Logger
}

func NewUserService(users userRepo, hasher credentials.Hasher, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserService{users: users, hasher: hasher, log: log}
}

type CreateUserParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateUserParams carries partial updates. A nil field is untouched;
// a non-nil pointer overwrites, including with the empty string.
type UpdateUserParams struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
}

func (s *UserService) Create(ctx context.Context, params CreateUserParams) (*domain.UserView, error) {
	start := time.Now()

	if strings.TrimSpace(params.Email) == "" || strings.TrimSpace(params.Password) == "" {
		return nil, fmt.Errorf("Create: email and password are required: %w", domain.ErrInvalidArgument)
	}

	s.log.Info("creating user", "email", params.Email)

	_, err := s.users.GetByEmail(ctx, params.Email)
	if err == nil {
		s.log.Warn("attempt to create user with existing email", "email", params.Email)
		return nil, fmt.Errorf("Create: %w", domain.ErrEmailTaken)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, s.internal("Create", "failed to check existing email", err, "email", params.Email)
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, s.internal("Create", "failed to hash password", err, "email", params.Email)
	}

	user := &domain.User{
		ID:            uuid.New(),
		Email:         params.Email,
		PasswordHash:  hash,
		FirstName:     params.FirstName,
		LastName:      params.LastName,
		Status:        domain.UserStatusActive,
		EmailVerified: false,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// The unique constraint is the real guard; losing the race
		// still reads as a conflict, never as a duplicate user.
		if errors.Is(err, domain.ErrEmailTaken) {
			s.log.Warn("concurrent create for same email", "email", params.Email)
			return nil, fmt.Errorf("Create: %w", domain.ErrEmailTaken)
		}
		return nil, s.internal("Create", "failed to create user", err, "email", params.Email)
	}

	s.log.Info("user created",
		"user_id", user.ID,
		"email", user.Email,
		"status", user.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	view := user.View()
	return &view, nil
}

// FindAll returns all users, newest first. An empty directory is an
// empty slice, not an error.
func (s *UserService) FindAll(ctx context.Context) ([]domain.UserView, error) {
	start := time.Now()

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, s.internal("FindAll", "failed to list users", err)
	}

	views := make([]domain.UserView, 0, len(users))
	for i := range users {
		views = append(views, users[i].View())
	}

	s.log.Info("users listed", "total", len(views), "duration_ms", time.Since(start).Milliseconds())
	return views, nil
}

func (s *UserService) FindByID(ctx context.Context, id uuid.UUID) (*domain.UserView, error) {
	user, err := s.getUser(ctx, "FindByID", id)
	if err != nil {
		return nil, err
	}
	view := user.View()
	return &view, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.UserView, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("FindByEmail: email is required: %w", domain.ErrInvalidArgument)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("user not found by email", "email", email)
			return nil, fmt.Errorf("FindByEmail: %w", err)
		}
		return nil, s.internal("FindByEmail", "failed to find user by email", err, "email", email)
	}

	view := user.View()
	return &view, nil
}

// FindByEmailWithPassword returns the full record, hash included. It
// exists for an authenticating collaborator that needs to call
// VerifyPassword; everything external goes through UserView.
func (s *UserService) FindByEmailWithPassword(ctx context.Context, email string) (*domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("FindByEmailWithPassword: email is required: %w", domain.ErrInvalidArgument)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("FindByEmailWithPassword: %w", err)
		}
		return nil, s.internal("FindByEmailWithPassword", "failed to find user by email", err, "email", email)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, params UpdateUserParams) (*domain.UserView, error) {
	start := time.Now()

	user, err := s.getUser(ctx, "Update", id)
	if err != nil {
		return nil, err
	}

	if params.Email != nil && *params.Email != user.Email {
		_, err := s.users.GetByEmail(ctx, *params.Email)
		if err == nil {
			s.log.Warn("attempt to update user to existing email", "user_id", id, "new_email", *params.Email)
			return nil, fmt.Errorf("Update: %w", domain.ErrEmailTaken)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, s.internal("Update", "failed to check existing email", err, "user_id", id)
		}
		user.Email = *params.Email
	}
	if params.Password != nil {
		hash, err := s.hasher.Hash(*params.Password)
		if err != nil {
			return nil, s.internal("Update", "failed to hash password", err, "user_id", id)
		}
		user.PasswordHash = hash
	}
	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			return nil, fmt.Errorf("Update: %w", domain.ErrEmailTaken)
		case errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("Update: %w", err)
		default:
			return nil, s.internal("Update", "failed to update user", err, "user_id", id)
		}
	}

	s.log.Info("user updated", "user_id", id, "duration_ms", time.Since(start).Milliseconds())

	view := user.View()
	return &view, nil
}

func (s *UserService) Disable(ctx context.Context, id uuid.UUID) (*domain.UserView, error) {
	return s.setStatus(ctx, "Disable", id, domain.UserStatusDisabled)
}

func (s *UserService) Enable(ctx context.Context, id uuid.UUID) (*domain.UserView, error) {
	return s.setStatus(ctx, "Enable", id, domain.UserStatusActive)
}

// VerifyEmail marks the address verified. There is no unverify path,
// so repeating the call is harmless.
func (s *UserService) VerifyEmail(ctx context.Context, id uuid.UUID) (*domain.UserView, error) {
	user, err := s.getUser(ctx, "VerifyEmail", id)
	if err != nil {
		return nil, err
	}

	user.EmailVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("VerifyEmail: %w", err)
		}
		return nil, s.internal("VerifyEmail", "failed to verify email", err, "user_id", id)
	}

	s.log.Info("email verified", "user_id", id, "email", user.Email)

	view := user.View()
	return &view, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("Delete: user id is required: %w", domain.ErrInvalidArgument)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("attempt to delete non-existent user", "user_id", id)
			return fmt.Errorf("Delete: %w", err)
		}
		return s.internal("Delete", "failed to delete user", err, "user_id", id)
	}

	s.log.Info("user deleted permanently", "user_id", id)
	return nil
}

// VerifyPassword reports whether plain matches the stored hash. A
// wrong password is (false, nil); only an infrastructure failure of
// the hasher is an error.
func (s *UserService) VerifyPassword(ctx context.Context, plain, hash string) (bool, error) {
	ok, err := s.hasher.Verify(plain, hash)
	if err != nil {
		return false, s.internal("VerifyPassword", "failed to verify password", err)
	}
	return ok, nil
}

func (s *UserService) setStatus(ctx context.Context, op string, id uuid.UUID, status domain.UserStatus) (*domain.UserView, error) {
	start := time.Now()

	user, err := s.getUser(ctx, op, id)
	if err != nil {
		return nil, err
	}

	old := user.Status
	user.Status = status
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, s.internal(op, "failed to update user status", err, "user_id", id)
	}

	s.log.Info("user status updated",
		"user_id", id,
		"from", old,
		"to", status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	view := user.View()
	return &view, nil
}

func (s *UserService) getUser(ctx context.Context, op string, id uuid.UUID) (*domain.User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%s: user id is required: %w", op, domain.ErrInvalidArgument)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("user not found", "user_id", id)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, s.internal(op, "failed to find user", err, "user_id", id)
	}
	return user, nil
}

// internal logs the real cause and returns a masked error so storage
// details never reach external callers.
func (s *UserService) internal(op, msg string, err error, attrs ...any) error {
	s.log.Error(msg, append(attrs, "error", err)...)
	return fmt.Errorf("%s: %w", op, domain.ErrInternal)
}
