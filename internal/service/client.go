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

type clientRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.OAuthClient, error)
	GetByClientID(ctx context.Context, clientID string) (*domain.OAuthClient, error)
	List(ctx context.Context) ([]domain.OAuthClient, error)
	Create(ctx context.Context, c *domain.OAuthClient) error
	Update(ctx context.Context, c *domain.OAuthClient) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ClientService struct {
	clients clientRepo
	hasher  credentials.Hasher
	log     *slog.Logger
}

func NewClientService(clients clientRepo, hasher credentials.Hasher, log *slog.Logger) *ClientService {
	if log == nil {
		log = slog.Default()
	}
	return &ClientService{clients: clients, hasher: hasher, log: log}
}

type CreateClientParams struct {
	Name        string
	RedirectURI string
}

// UpdateClientParams carries partial updates to name and redirect URI.
// Status and secret are out of reach of this operation.
type UpdateClientParams struct {
	Name        *string
	RedirectURI *string
}

// Create registers a new client and returns the one response that ever
// carries the plaintext secret. The astronomically unlikely client id
// collision is not retried; it surfaces as a conflict from the unique
// constraint.
func (s *ClientService) Create(ctx context.Context, params CreateClientParams) (*domain.ClientCredentials, error) {
	start := time.Now()

	if strings.TrimSpace(params.Name) == "" {
		return nil, fmt.Errorf("Create: client name is required: %w", domain.ErrInvalidArgument)
	}

	s.log.Info("creating oauth client", "name", params.Name)

	clientID, err := credentials.NewClientID()
	if err != nil {
		return nil, s.internal("Create", "failed to generate client id", err)
	}
	secret, err := credentials.NewClientSecret()
	if err != nil {
		return nil, s.internal("Create", "failed to generate client secret", err)
	}
	secretHash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, s.internal("Create", "failed to hash client secret", err)
	}

	client := &domain.OAuthClient{
		ID:          uuid.New(),
		Name:        params.Name,
		ClientID:    clientID,
		SecretHash:  secretHash,
		RedirectURI: params.RedirectURI,
		Status:      domain.ClientStatusActive,
	}

	if err := s.clients.Create(ctx, client); err != nil {
		if errors.Is(err, domain.ErrClientIDTaken) {
			s.log.Warn("client id collision on create", "client_id", clientID)
			return nil, fmt.Errorf("Create: %w", domain.ErrClientIDTaken)
		}
		return nil, s.internal("Create", "failed to create oauth client", err, "name", params.Name)
	}

	s.log.Info("oauth client created",
		"id", client.ID,
		"client_id", client.ClientID,
		"name", client.Name,
		"status", client.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &domain.ClientCredentials{
		ClientView:   client.View(),
		ClientSecret: secret,
	}, nil
}

func (s *ClientService) FindAll(ctx context.Context) ([]domain.ClientView, error) {
	start := time.Now()

	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, s.internal("FindAll", "failed to list oauth clients", err)
	}

	views := make([]domain.ClientView, 0, len(clients))
	for i := range clients {
		views = append(views, clients[i].View())
	}

	s.log.Info("oauth clients listed", "total", len(views), "duration_ms", time.Since(start).Milliseconds())
	return views, nil
}

func (s *ClientService) FindByID(ctx context.Context, id uuid.UUID) (*domain.ClientView, error) {
	client, err := s.getClient(ctx, "FindByID", id)
	if err != nil {
		return nil, err
	}
	view := client.View()
	return &view, nil
}

func (s *ClientService) FindByClientID(ctx context.Context, clientID string) (*domain.ClientView, error) {
	client, err := s.getByClientID(ctx, "FindByClientID", clientID)
	if err != nil {
		return nil, err
	}
	view := client.View()
	return &view, nil
}

func (s *ClientService) Update(ctx context.Context, id uuid.UUID, params UpdateClientParams) (*domain.ClientView, error) {
	start := time.Now()

	client, err := s.getClient(ctx, "Update", id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		client.Name = *params.Name
	}
	if params.RedirectURI != nil {
		client.RedirectURI = *params.RedirectURI
	}

	if err := s.clients.Update(ctx, client); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Update: %w", err)
		}
		return nil, s.internal("Update", "failed to update oauth client", err, "id", id)
	}

	s.log.Info("oauth client updated",
		"id", id,
		"name", client.Name,
		"redirect_uri", client.RedirectURI,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	view := client.View()
	return &view, nil
}

func (s *ClientService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ClientStatus) (*domain.ClientView, error) {
	start := time.Now()

	if !status.IsValid() {
		return nil, fmt.Errorf("UpdateStatus: unknown status %q: %w", status, domain.ErrInvalidArgument)
	}

	client, err := s.getClient(ctx, "UpdateStatus", id)
	if err != nil {
		return nil, err
	}

	old := client.Status
	client.Status = status
	if err := s.clients.Update(ctx, client); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("UpdateStatus: %w", err)
		}
		return nil, s.internal("UpdateStatus", "failed to update oauth client status", err, "id", id)
	}

	s.log.Info("oauth client status updated",
		"id", id,
		"from", old,
		"to", status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	view := client.View()
	return &view, nil
}

func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	client, err := s.getClient(ctx, "Delete", id)
	if err != nil {
		return err
	}

	if err := s.clients.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("Delete: %w", err)
		}
		return s.internal("Delete", "failed to delete oauth client", err, "id", id)
	}

	s.log.Info("oauth client deleted", "id", id, "client_id", client.ClientID, "name", client.Name)
	return nil
}

// VerifyClientSecret checks a presented secret against the stored
// hash. An unknown client id is NotFound; a wrong secret is
// (false, nil).
func (s *ClientService) VerifyClientSecret(ctx context.Context, clientID, secret string) (bool, error) {
	start := time.Now()

	client, err := s.getByClientID(ctx, "VerifyClientSecret", clientID)
	if err != nil {
		return false, err
	}

	ok, err := s.hasher.Verify(secret, client.SecretHash)
	if err != nil {
		return false, s.internal("VerifyClientSecret", "failed to verify client secret", err, "client_id", clientID)
	}

	if ok {
		s.log.Info("client secret verified", "client_id", clientID, "duration_ms", time.Since(start).Milliseconds())
	} else {
		s.log.Warn("invalid client secret attempt", "client_id", clientID, "duration_ms", time.Since(start).Milliseconds())
	}
	return ok, nil
}

func (s *ClientService) IsClientActive(ctx context.Context, id uuid.UUID) (bool, error) {
	client, err := s.getClient(ctx, "IsClientActive", id)
	if err != nil {
		return false, err
	}

	active := client.Status == domain.ClientStatusActive
	s.log.Info("client status checked", "id", id, "status", client.Status, "active", active)
	return active, nil
}

func (s *ClientService) getClient(ctx context.Context, op string, id uuid.UUID) (*domain.OAuthClient, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%s: client id is required: %w", op, domain.ErrInvalidArgument)
	}

	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("oauth client not found", "id", id)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, s.internal(op, "failed to find oauth client", err, "id", id)
	}
	return client, nil
}

func (s *ClientService) getByClientID(ctx context.Context, op string, clientID string) (*domain.OAuthClient, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, fmt.Errorf("%s: client id is required: %w", op, domain.ErrInvalidArgument)
	}

	client, err := s.clients.GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("oauth client not found by client id", "client_id", clientID)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, s.internal(op, "failed to find oauth client", err, "client_id", clientID)
	}
	return client, nil
}

func (s *ClientService) internal(op, msg string, err error, attrs ...any) error {
	s.log.Error(msg, append(attrs, "error", err)...)
	return fmt.Errorf("%s: %w", op, domain.ErrInternal)
}
