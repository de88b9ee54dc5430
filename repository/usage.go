package repository

import (
	"context"
	"fmt"

	"zerokey/models"
	"zerokey/observability"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const usageColumns = `id, owner_id, credential_id, provider, endpoint_or_model,
	       request_tokens, response_tokens, total_tokens, latency_ms, status_code, created_at`

func scanUsageRecord(row pgx.Row) (*models.UsageRecord, error) {
	var u models.UsageRecord
	err := row.Scan(
		&u.ID,
		&u.OwnerID,
		&u.CredentialID,
		&u.Provider,
		&u.EndpointOrModel,
		&u.RequestTokens,
		&u.ResponseTokens,
		&u.TotalTokens,
		&u.LatencyMs,
		&u.StatusCode,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan usage record: %w", err)
	}
	return &u, nil
}

// CreateUsageRecord appends one usage row. Rows are immutable once
// written; there is no update path.
func (r *Repository) CreateUsageRecord(ctx context.Context, u *models.UsageRecord) error {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("insert", "usage_records")

	query := `
		INSERT INTO usage_records (id, owner_id, credential_id, provider, endpoint_or_model,
		                           request_tokens, response_tokens, total_tokens,
		                           latency_ms, status_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.OwnerID,
		u.CredentialID,
		u.Provider,
		u.EndpointOrModel,
		u.RequestTokens,
		u.ResponseTokens,
		u.TotalTokens,
		u.LatencyMs,
		u.StatusCode,
		u.CreatedAt,
	)

	if err != nil {
		metrics.RecordDBError("insert", "usage_records")
		return fmt.Errorf("failed to create usage record: %w", err)
	}

	return nil
}

// ListUsageByOwner returns all usage rows for an owner, newest first
func (r *Repository) ListUsageByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.UsageRecord, error) {
	query := `
		SELECT ` + usageColumns + `
		FROM usage_records
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	return r.queryUsage(ctx, query, ownerID)
}

// ListUsageByCredential returns usage rows scoped to one credential
func (r *Repository) ListUsageByCredential(ctx context.Context, ownerID, credentialID uuid.UUID) ([]models.UsageRecord, error) {
	query := `
		SELECT ` + usageColumns + `
		FROM usage_records
		WHERE owner_id = $1 AND credential_id = $2
		ORDER BY created_at DESC
	`
	return r.queryUsage(ctx, query, ownerID, credentialID)
}

// ListRecentUsage returns the newest usage rows across all owners.
// Operator tooling only.
func (r *Repository) ListRecentUsage(ctx context.Context, limit int) ([]models.UsageRecord, error) {
	query := `
		SELECT ` + usageColumns + `
		FROM usage_records
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.queryUsage(ctx, query, limit)
}

// CountUsageByCredential returns the number of usage rows for a credential
func (r *Repository) CountUsageByCredential(ctx context.Context, credentialID uuid.UUID) (int, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "usage_records")

	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM usage_records WHERE credential_id = $1
	`, credentialID).Scan(&count)
	if err != nil {
		metrics.RecordDBError("select", "usage_records")
		return 0, fmt.Errorf("failed to count usage records: %w", err)
	}
	return count, nil
}

func (r *Repository) queryUsage(ctx context.Context, query string, args ...any) ([]models.UsageRecord, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "usage_records")

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		metrics.RecordDBError("select", "usage_records")
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	var records []models.UsageRecord
	for rows.Next() {
		u, err := scanUsageRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage records: %w", err)
	}

	return records, nil
}
