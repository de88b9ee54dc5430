package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageRecord is one append-only row describing a single proxy dispatch
// attempt. Immutable once written.
type UsageRecord struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         uuid.UUID `json:"-"`
	CredentialID    uuid.UUID `json:"api_key_id"`
	Provider        string    `json:"provider"`
	EndpointOrModel string    `json:"endpoint_or_model"`
	RequestTokens   int       `json:"request_tokens"`
	ResponseTokens  int       `json:"response_tokens"`
	TotalTokens     int       `json:"total_tokens"`
	LatencyMs       int       `json:"latency_ms"`
	StatusCode      int       `json:"status_code"`
	CreatedAt       time.Time `json:"created_at"`
}
