package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	zhipuURL      = "https://open.bigmodel.cn/api/paas/v4/chat/completions"
	zhipuTokenTTL = 5 * time.Minute
)

// zhipuProvider signs a short-lived JWT per request. The raw key is a
// composite "id.secret": the id travels in the claims, the secret signs.
type zhipuProvider struct {
	now func() time.Time
}

func (p *zhipuProvider) ID() string { return "zhipu" }

func (p *zhipuProvider) Shape(rawSecret string, body map[string]any) (*Request, error) {
	id, secret, ok := strings.Cut(rawSecret, ".")
	if !ok || id == "" || secret == "" {
		return nil, fmt.Errorf("%w: zhipu keys must be formatted as id.secret", ErrInvalidProviderKey)
	}

	now := time.Now()
	if p.now != nil {
		now = p.now()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"api_key":   id,
		"exp":       now.Add(zhipuTokenTTL).UnixMilli(),
		"timestamp": now.UnixMilli(),
	})
	token.Header["sign_type"] = "SIGN"

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign zhipu token: %w", err)
	}

	out, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request body: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+signed)
	headers.Set("Content-Type", "application/json")

	return &Request{URL: zhipuURL, Headers: headers, Body: out}, nil
}

func (p *zhipuProvider) Usage(respBody []byte) Usage {
	return extractOpenAIUsage(respBody)
}
