package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/idplane/idplane/internal/domain"
	"github.com/idplane/idplane/internal/logging"
	"github.com/idplane/idplane/internal/service"
)

type userService interface {
	Create(ctx context.Context, params service.CreateUserParams) (*domain.UserView, error)
	FindAll(ctx context.Context) ([]domain.UserView, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.UserView, error)
	FindByEmail(ctx context.Context, email string) (*domain.UserView, error)
	Update(ctx context.Context, id uuid.UUID, params service.UpdateUserParams) (*domain.UserView, error)
	Disable(ctx context.Context, id uuid.UUID) (*domain.UserView, error)
	Enable(ctx context.Context, id uuid.UUID) (*domain.UserView, error)
	VerifyEmail(ctx context.Context, id uuid.UUID) (*domain.UserView, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserHandler struct {
	users userService
}

func NewUserHandler(users userService) *UserHandler {
	return &UserHandler{users: users}
}

type createUserRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (r createUserRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type updateUserRequest struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type userDTO struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Status        string    `json:"status"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toUserDTO(v *domain.UserView) userDTO {
	return userDTO{
		ID:            v.ID,
		Email:         v.Email,
		FirstName:     v.FirstName,
		LastName:      v.LastName,
		Status:        string(v.Status),
		EmailVerified: v.EmailVerified,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	user, err := h.users.Create(r.Context(), service.CreateUserParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toUserDTO(user))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.FindAll(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list users", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]userDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, toUserDTO(&users[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	user, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	user, err := h.users.Update(r.Context(), id, service.UpdateUserParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.users.Disable)
}

func (h *UserHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.users.Enable)
}

func (h *UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.users.VerifyEmail)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) setStatus(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID) (*domain.UserView, error)) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	user, err := op(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

func idFromPath(r *http.Request) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, ErrInvalidArgument
	}
	return id, nil
}
