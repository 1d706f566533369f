package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/idplane/idplane/internal/domain"
)

const clientColumns = `id, name, client_id, secret_hash, redirect_uri, status, created_at, updated_at`

type ClientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OAuthClient, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM oauth_clients WHERE id = $1`, id,
	)
	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (r *ClientRepository) GetByClientID(ctx context.Context, clientID string) (*domain.OAuthClient, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM oauth_clients WHERE client_id = $1`, clientID,
	)
	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByClientID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByClientID: %w", err)
	}
	return c, nil
}

// List returns all clients in insertion order.
func (r *ClientRepository) List(ctx context.Context) ([]domain.OAuthClient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM oauth_clients ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var clients []domain.OAuthClient
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		clients = append(clients, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return clients, nil
}

// Create inserts the client and fills in the database-assigned
// timestamps. A duplicate client_id surfaces as domain.ErrClientIDTaken.
func (r *ClientRepository) Create(ctx context.Context, c *domain.OAuthClient) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO oauth_clients (id, name, client_id, secret_hash, redirect_uri, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		c.ID, c.Name, c.ClientID, c.SecretHash, c.RedirectURI, c.Status,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", mapUniqueViolation(err))
	}
	return nil
}

// Update persists the mutable fields. client_id and secret_hash are
// immutable after create and deliberately absent from the SET list.
func (r *ClientRepository) Update(ctx context.Context, c *domain.OAuthClient) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE oauth_clients
		 SET name = $2, redirect_uri = $3, status = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		c.ID, c.Name, c.RedirectURI, c.Status,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("Update: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("Update: %w", err)
	}
	return nil
}

func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM oauth_clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanClient(s scanner) (*domain.OAuthClient, error) {
	var c domain.OAuthClient
	err := s.Scan(
		&c.ID, &c.Name, &c.ClientID, &c.SecretHash, &c.RedirectURI,
		&c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
