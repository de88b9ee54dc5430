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

const credentialColumns = `id, owner_id, provider, name, name_slug,
	       encrypted_key, encrypted_unified, unified_endpoint, expires_at, created_at`

func scanCredential(row pgx.Row) (*models.Credential, error) {
	var c models.Credential
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Provider,
		&c.Name,
		&c.NameSlug,
		&c.EncryptedKey,
		&c.EncryptedUnified,
		&c.UnifiedEndpoint,
		&c.ExpiresAt,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}
	return &c, nil
}

// CreateCredential inserts a new credential row. Returns ErrDuplicate
// when (owner, provider, name_slug) already exists.
func (r *Repository) CreateCredential(ctx context.Context, c *models.Credential) error {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("insert", "credentials")

	query := `
		INSERT INTO credentials (id, owner_id, provider, name, name_slug,
		                         encrypted_key, encrypted_unified, unified_endpoint,
		                         expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.OwnerID,
		c.Provider,
		c.Name,
		c.NameSlug,
		c.EncryptedKey,
		c.EncryptedUnified,
		c.UnifiedEndpoint,
		c.ExpiresAt,
		c.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: credential %s/%s", ErrDuplicate, c.Provider, c.NameSlug)
		}
		metrics.RecordDBError("insert", "credentials")
		return fmt.Errorf("failed to create credential: %w", err)
	}

	return nil
}

// GetCredential retrieves a credential by id, scoped to its owner
func (r *Repository) GetCredential(ctx context.Context, ownerID, id uuid.UUID) (*models.Credential, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "credentials")

	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE id = $1 AND owner_id = $2
	`
	c, err := scanCredential(r.db.QueryRow(ctx, query, id, ownerID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordDBError("select", "credentials")
	}
	return c, err
}

// GetCredentialByName retrieves a credential by provider and name slug.
// The owner filter is optional: a nil ownerID supports the anonymous
// unified-key lookup.
func (r *Repository) GetCredentialByName(ctx context.Context, provider, nameSlug string, ownerID *uuid.UUID) (*models.Credential, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "credentials")

	var row pgx.Row
	if ownerID != nil {
		query := `
			SELECT ` + credentialColumns + `
			FROM credentials
			WHERE provider = $1 AND name_slug = $2 AND owner_id = $3
		`
		row = r.db.QueryRow(ctx, query, provider, nameSlug, *ownerID)
	} else {
		query := `
			SELECT ` + credentialColumns + `
			FROM credentials
			WHERE provider = $1 AND name_slug = $2
			ORDER BY created_at DESC
			LIMIT 1
		`
		row = r.db.QueryRow(ctx, query, provider, nameSlug)
	}

	c, err := scanCredential(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordDBError("select", "credentials")
	}
	return c, err
}

// GetLatestCredential retrieves the newest credential for owner+provider
func (r *Repository) GetLatestCredential(ctx context.Context, ownerID uuid.UUID, provider string) (*models.Credential, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "credentials")

	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE owner_id = $1 AND provider = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	c, err := scanCredential(r.db.QueryRow(ctx, query, ownerID, provider))
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordDBError("select", "credentials")
	}
	return c, err
}

// ListAllCredentials returns every credential across all owners, newest
// first. Operator tooling only.
func (r *Repository) ListAllCredentials(ctx context.Context) ([]models.Credential, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "credentials")

	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		metrics.RecordDBError("select", "credentials")
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var creds []models.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credentials: %w", err)
	}

	return creds, nil
}

// ListCredentials returns all credentials for an owner, newest first
func (r *Repository) ListCredentials(ctx context.Context, ownerID uuid.UUID) ([]models.Credential, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "credentials")

	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		metrics.RecordDBError("select", "credentials")
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var creds []models.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credentials: %w", err)
	}

	return creds, nil
}

// DeleteCredential removes a credential and all of its usage records in
// one transaction. Returns ErrNotFound when the credential is absent or
// owned by someone else.
func (r *Repository) DeleteCredential(ctx context.Context, ownerID, id uuid.UUID) error {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("delete", "credentials")

	tx, txRepo, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := txRepo.db.Exec(ctx, `
		DELETE FROM usage_records WHERE credential_id = $1 AND owner_id = $2
	`, id, ownerID); err != nil {
		metrics.RecordDBError("delete", "usage_records")
		return fmt.Errorf("failed to delete usage records: %w", err)
	}

	tag, err := txRepo.db.Exec(ctx, `
		DELETE FROM credentials WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	if err != nil {
		metrics.RecordDBError("delete", "credentials")
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit credential delete: %w", err)
	}

	return nil
}
