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

type clientService interface {
	Create(ctx context.Context, params service.CreateClientParams) (*domain.ClientCredentials, error)
	FindAll(ctx context.Context) ([]domain.ClientView, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ClientView, error)
	FindByClientID(ctx context.Context, clientID string) (*domain.ClientView, error)
	Update(ctx context.Context, id uuid.UUID, params service.UpdateClientParams) (*domain.ClientView, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ClientStatus) (*domain.ClientView, error)
	Delete(ctx context.Context, id uuid.UUID) error
	VerifyClientSecret(ctx context.Context, clientID, secret string) (bool, error)
	IsClientActive(ctx context.Context, id uuid.UUID) (bool, error)
}

type ClientHandler struct {
	clients clientService
}

func NewClientHandler(clients clientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

type createClientRequest struct {
	Name        string `json:"name"`
	RedirectURI string `json:"redirect_uri"`
}

func (r createClientRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	return errs
}

type updateClientRequest struct {
	Name        *string `json:"name"`
	RedirectURI *string `json:"redirect_uri"`
}

type updateClientStatusRequest struct {
	Status string `json:"status"`
}

func (r updateClientStatusRequest) Validate() []FieldError {
	if !domain.ClientStatus(r.Status).IsValid() {
		return []FieldError{{Field: "status", Message: "must be active or disabled"}}
	}
	return nil
}

type verifySecretRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

func (r verifySecretRequest) Validate() []FieldError {
	var errs []FieldError
	if r.ClientID == "" {
		errs = append(errs, FieldError{Field: "client_id", Message: "required"})
	}
	if r.ClientSecret == "" {
		errs = append(errs, FieldError{Field: "client_secret", Message: "required"})
	}
	return errs
}

type clientDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ClientID    string    `json:"client_id"`
	RedirectURI string    `json:"redirect_uri"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// clientCreatedDTO is the only wire shape that carries the plaintext
// secret. Every other endpoint serializes clientDTO.
type clientCreatedDTO struct {
	clientDTO
	ClientSecret string `json:"client_secret"`
}

func toClientDTO(v *domain.ClientView) clientDTO {
	return clientDTO{
		ID:          v.ID,
		Name:        v.Name,
		ClientID:    v.ClientID,
		RedirectURI: v.RedirectURI,
		Status:      string(v.Status),
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	creds, err := h.clients.Create(r.Context(), service.CreateClientParams{
		Name:        req.Name,
		RedirectURI: req.RedirectURI,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, clientCreatedDTO{
		clientDTO:    toClientDTO(&creds.ClientView),
		ClientSecret: creds.ClientSecret,
	})
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.FindAll(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list clients", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]clientDTO, 0, len(clients))
	for i := range clients {
		dtos = append(dtos, toClientDTO(&clients[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *ClientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	client, err := h.clients.FindByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toClientDTO(client))
}

func (h *ClientHandler) GetByClientID(w http.ResponseWriter, r *http.Request) {
	client, err := h.clients.FindByClientID(r.Context(), r.PathValue("clientId"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toClientDTO(client))
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	client, err := h.clients.Update(r.Context(), id, service.UpdateClientParams{
		Name:        req.Name,
		RedirectURI: req.RedirectURI,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toClientDTO(client))
}

func (h *ClientHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updateClientStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	client, err := h.clients.UpdateStatus(r.Context(), id, domain.ClientStatus(req.Status))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toClientDTO(client))
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.clients.Delete(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ClientHandler) VerifySecret(w http.ResponseWriter, r *http.Request) {
	var req verifySecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	valid, err := h.clients.VerifyClientSecret(r.Context(), req.ClientID, req.ClientSecret)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *ClientHandler) Active(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	active, err := h.clients.IsClientActive(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]bool{"active": active})
}
