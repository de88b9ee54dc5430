package repository

import (
	"context"
	"errors"
	"fmt"

	"zerokey/models"
	"zerokey/observability"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ownerColumns = `id, username, email, auth_method, password_hash, oauth_id, created_at`

func scanOwner(row pgx.Row) (*models.Owner, error) {
	var o models.Owner
	var email, oauthID *string
	err := row.Scan(
		&o.ID,
		&o.Username,
		&email,
		&o.AuthMethod,
		&o.PasswordHash,
		&oauthID,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan owner: %w", err)
	}
	if email != nil {
		o.Email = *email
	}
	if oauthID != nil {
		o.OAuthID = *oauthID
	}
	return &o, nil
}

// CreateOwner inserts a new owner. Returns ErrDuplicate when the
// username is taken.
func (r *Repository) CreateOwner(ctx context.Context, o *models.Owner) error {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("insert", "owners")

	query := `
		INSERT INTO owners (id, username, email, auth_method, password_hash, oauth_id, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7)
	`

	_, err := r.db.Exec(ctx, query,
		o.ID,
		o.Username,
		o.Email,
		o.AuthMethod,
		o.PasswordHash,
		o.OAuthID,
		o.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username %s", ErrDuplicate, o.Username)
		}
		metrics.RecordDBError("insert", "owners")
		return fmt.Errorf("failed to create owner: %w", err)
	}

	return nil
}

// GetOwner retrieves an owner by id
func (r *Repository) GetOwner(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "owners")

	query := `SELECT ` + ownerColumns + ` FROM owners WHERE id = $1`
	o, err := scanOwner(r.db.QueryRow(ctx, query, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordDBError("select", "owners")
	}
	return o, err
}

// GetOwnerByUsername retrieves an owner by username
func (r *Repository) GetOwnerByUsername(ctx context.Context, username string) (*models.Owner, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "owners")

	query := `SELECT ` + ownerColumns + ` FROM owners WHERE username = $1`
	o, err := scanOwner(r.db.QueryRow(ctx, query, username))
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordDBError("select", "owners")
	}
	return o, err
}

// GetOwnerByOAuth retrieves an owner by auth method and provider-side id
func (r *Repository) GetOwnerByOAuth(ctx context.Context, method models.AuthMethod, oauthID string) (*models.Owner, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "owners")

	query := `SELECT ` + ownerColumns + ` FROM owners WHERE auth_method = $1 AND oauth_id = $2`
	o, err := scanOwner(r.db.QueryRow(ctx, query, method, oauthID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordDBError("select", "owners")
	}
	return o, err
}
