package domain

import (
	"time"

	"github.com/google/uuid"
)

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusDisabled ClientStatus = "disabled"
)

func (s ClientStatus) IsValid() bool {
	return s == ClientStatusActive || s == ClientStatusDisabled
}

// OAuthClient is a registered client application. The secret is stored
// only as a bcrypt hash; the plaintext exists for the duration of the
// create call and is never persisted.
type OAuthClient struct {
	ID          uuid.UUID
	Name        string
	ClientID    string
	SecretHash  string
	RedirectURI string
	Status      ClientStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ClientView is the externally safe projection of an OAuthClient.
type ClientView struct {
	ID          uuid.UUID
	Name        string
	ClientID    string
	RedirectURI string
	Status      ClientStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ClientCredentials is returned exactly once, from Create. Subsequent
// reads return ClientView, which has no secret material at all.
type ClientCredentials struct {
	ClientView
	ClientSecret string
}

func (c *OAuthClient) View() ClientView {
	return ClientView{
		ID:          c.ID,
		Name:        c.Name,
		ClientID:    c.ClientID,
		RedirectURI: c.RedirectURI,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
