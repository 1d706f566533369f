package repository

import (
	"errors"

	"github.com/lib/pq"

	"github.com/idplane/idplane/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// mapUniqueViolation translates a postgres unique-constraint violation
// into the matching conflict sentinel. The in-service existence checks
// are only a fast path; this mapping is what makes the constraint the
// authoritative guard under concurrent creates.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	switch pqErr.Constraint {
	case "users_email_key":
		return domain.ErrEmailTaken
	case "oauth_clients_client_id_key":
		return domain.ErrClientIDTaken
	}
	return err
}
