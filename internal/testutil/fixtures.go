package testutil

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SeedUser inserts an active, unverified user and returns its id.
// MinCost keeps the fixtures fast; production hashing goes through the
// credentials package.
func SeedUser(t *testing.T, db *sql.DB, email, password string) uuid.UUID {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	id := uuid.New()
	_, err = db.Exec(
		`INSERT INTO users (id, email, password_hash, first_name, last_name, status, email_verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, email, string(hash), "Test", "User", "active", false,
	)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

// SeedClient inserts an active oauth client and returns its id.
func SeedClient(t *testing.T, db *sql.DB, name, clientID, secret string) uuid.UUID {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash secret: %v", err)
	}

	id := uuid.New()
	_, err = db.Exec(
		`INSERT INTO oauth_clients (id, name, client_id, secret_hash, redirect_uri, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, name, clientID, string(hash), "https://example.com/callback", "active",
	)
	if err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return id
}
