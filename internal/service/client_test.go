package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idplane/idplane/internal/credentials"
	"github.com/idplane/idplane/internal/domain"
)

type mockClientRepo struct {
	clients map[uuid.UUID]domain.OAuthClient

	createErr error
	updateErr error
	listErr   error
}

func newMockClientRepo() *mockClientRepo {
	return &mockClientRepo{clients: make(map[uuid.UUID]domain.OAuthClient)}
}

func (m *mockClientRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.OAuthClient, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
	}
	copied := c
	return &copied, nil
}

func (m *mockClientRepo) GetByClientID(_ context.Context, clientID string) (*domain.OAuthClient, error) {
	for _, c := range m.clients {
		if c.ClientID == clientID {
			copied := c
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("GetByClientID: %w", domain.ErrNotFound)
}

func (m *mockClientRepo) List(_ context.Context) ([]domain.OAuthClient, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.OAuthClient
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockClientRepo) Create(_ context.Context, c *domain.OAuthClient) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.clients {
		if existing.ClientID == c.ClientID {
			return fmt.Errorf("Create: %w", domain.ErrClientIDTaken)
		}
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	m.clients[c.ID] = *c
	return nil
}

func (m *mockClientRepo) Update(_ context.Context, c *domain.OAuthClient) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.clients[c.ID]; !ok {
		return fmt.Errorf("Update: %w", domain.ErrNotFound)
	}
	c.UpdatedAt = time.Now().UTC()
	m.clients[c.ID] = *c
	return nil
}

func (m *mockClientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.clients[id]; !ok {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	delete(m.clients, id)
	return nil
}

func newClientService(repo *mockClientRepo) *ClientService {
	return NewClientService(repo, credentials.NewBcryptHasher(), slog.Default())
}

func TestClientCreate(t *testing.T) {
	repo := newMockClientRepo()
	svc := newClientService(repo)
	ctx := context.Background()

	creds, err := svc.Create(ctx, CreateClientParams{Name: "dashboard", RedirectURI: "https://example.com/cb"})
	require.NoError(t, err)

	assert.Equal(t, "dashboard", creds.Name)
	assert.Equal(t, domain.ClientStatusActive, creds.Status)
	assert.True(t, strings.HasPrefix(creds.ClientID, "client_"))
	assert.Len(t, creds.ClientSecret, 64)

	// At rest the secret exists only as a hash.
	stored := repo.clients[creds.ID]
	assert.NotEmpty(t, stored.SecretHash)
	assert.NotEqual(t, creds.ClientSecret, stored.SecretHash)
}

func TestClientCreateRequiresName(t *testing.T) {
	svc := newClientService(newMockClientRepo())

	_, err := svc.Create(context.Background(), CreateClientParams{Name: "  "})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestClientCreateMasksRepoFailure(t *testing.T) {
	repo := newMockClientRepo()
	repo.createErr = errors.New("pq: out of disk")
	svc := newClientService(repo)

	_, err := svc.Create(context.Background(), CreateClientParams{Name: "dashboard"})
	require.ErrorIs(t, err, domain.ErrInternal)
	assert.NotContains(t, err.Error(), "out of disk")
}

func TestClientSecretRevealedExactlyOnce(t *testing.T) {
	repo := newMockClientRepo()
	svc := newClientService(repo)
	ctx := context.Background()

	creds, err := svc.Create(ctx, CreateClientParams{Name: "dashboard"})
	require.NoError(t, err)
	secret := creds.ClientSecret
	require.NotEmpty(t, secret)

	// Subsequent reads return ClientView, which has no secret field at
	// all; the stored hash must not leak the plaintext either.
	found, err := svc.FindByID(ctx, creds.ID)
	require.NoError(t, err)
	assert.Equal(t, creds.ClientID, found.ClientID)

	all, err := svc.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotContains(t, repo.clients[creds.ID].SecretHash, secret)
}

func TestClientVerifySecret(t *testing.T) {
	svc := newClientService(newMockClientRepo())
	ctx := context.Background()

	creds, err := svc.Create(ctx, CreateClientParams{Name: "dashboard"})
	require.NoError(t, err)

	ok, err := svc.VerifyClientSecret(ctx, creds.ClientID, creds.ClientSecret)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyClientSecret(ctx, creds.ClientID, "not-the-secret")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.VerifyClientSecret(ctx, "client_unknown", "whatever")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.VerifyClientSecret(ctx, "", "whatever")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestClientFindByID(t *testing.T) {
	svc := newClientService(newMockClientRepo())
	ctx := context.Background()

	creds, err := svc.Create(ctx, CreateClientParams{Name: "dashboard"})
	require.NoError(t, err)

	found, err := svc.FindByID(ctx, creds.ID)
	require.NoError(t, err)
	assert.Equal(t, creds.ClientID, found.ClientID)

	_, err = svc.FindByID(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.FindByID(ctx, uuid.Nil)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestClientFindByClientID(t *testing.T) {
	svc := newClientService(newMockClientRepo())
	ctx := context.Background()

	creds, err := svc.Create(ctx, CreateClientParams{Name: "dashboard"})
	require.NoError(t, err)

	found, err := svc.FindByClientID(ctx, creds.ClientID)
	require.NoError(t, err)
	assert.Equal(t, creds.ID, found.ID)

	_, err = svc.FindByClientID(ctx, "client_unknown")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientUpdatePartial(t *testing.T) {
	repo := newMockClientRepo()
	svc := newClientService(repo)
	ctx := context.Background()

	creds, err := svc.Create(ctx, CreateClientParams{Name: "dashboard", RedirectURI: "https://example.com/cb"})
	require.NoError(t, err)
	originalHash := repo.clients[creds.ID].SecretHash

	newName := "admin console"
	updated, err := svc.Update(ctx, creds.ID, UpdateClientParams{Name: &newName})
	require.NoError(t, err)

	assert.Equal(t, "admin console", updated.Name)
	assert.Equal(t, creds.RedirectURI, updated.RedirectURI)
	assert.Equal(t, creds.ClientID, updated.ClientID)
	assert.Equal(t, creds.Status, updated.Status)
	assert.Equal(t, originalHash, repo.clients[creds.ID].SecretHash)

	newURI := "https://example.com/other"
	updated, err = svc.Update(ctx, creds.ID, UpdateClientParams{RedirectURI: &newURI})
	require.NoError(t, err)
	assert.Equal(t, "admin console", updated.Name)
	assert.Equal(t, newURI, updated.RedirectURI)

	_, err = svc.Update(ctx, uuid.New(), UpdateClientParams{Name: &newName})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientUpdateStatus(t *testing.T) {
	svc := newClientService(newMockClientRepo())
	ctx := context.Background()

	creds, err := svc.Create(ctx, CreateClientParams{Name: "dashboard"})
	require.NoError(t, err)

	disabled, err := svc.UpdateStatus(ctx, creds.ID, domain.ClientStatusDisabled)
	require.NoError(t, err)
	assert.Equal(t, domain.ClientStatusDisabled, disabled.Status)

	active, err := svc.IsClientActive(ctx, creds.ID)
	require.NoError(t, err)
	assert.False(t, active)

	enabled, err := svc.UpdateStatus(ctx, creds.ID, domain.ClientStatusActive)
	require.NoError(t, err)
	assert.Equal(t, domain.ClientStatusActive, enabled.Status)

	active, err = svc.IsClientActive(ctx, creds.ID)
	require.NoError(t, err)
	assert.True(t, active)

	_, err = svc.UpdateStatus(ctx, creds.ID, domain.ClientStatus("frozen"))
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.UpdateStatus(ctx, uuid.New(), domain.ClientStatusDisabled)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientIsClientActiveNotFound(t *testing.T) {
	svc := newClientService(newMockClientRepo())

	_, err := svc.IsClientActive(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientDelete(t *testing.T) {
	svc := newClientService(newMockClientRepo())
	ctx := context.Background()

	creds, err := svc.Create(ctx, CreateClientParams{Name: "dashboard"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, creds.ID))

	_, err = svc.FindByID(ctx, creds.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.Delete(ctx, creds.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientFindAll(t *testing.T) {
	svc := newClientService(newMockClientRepo())
	ctx := context.Background()

	views, err := svc.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)

	for _, name := range []string{"one", "two", "three"} {
		_, err := svc.Create(ctx, CreateClientParams{Name: name})
		require.NoError(t, err)
	}

	views, err = svc.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, views, 3)
}
