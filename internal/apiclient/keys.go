package apiclient

import (
	"context"
	"fmt"
	"net/url"

	"docdesk/internal/domain"
)

const (
	defaultRatePerMinute = 100
	defaultRatePerHour   = 5000
)

func (c *Client) ListAPIKeys(ctx context.Context, ep domain.Endpoint) ([]domain.APIKey, error) {
	p := "/v1/api-keys"
	if ep.Credential.Mode == domain.ModeAdmin {
		p = "/admin/api-keys"
	}
	var keys []domain.APIKey
	if err := c.getJSON(ctx, ep, "apiclient.ListAPIKeys", p, nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// CreateAPIKey creates a key. Admin mode passes the name as a query parameter; normal mode
// posts a JSON body with default rate limits.
func (c *Client) CreateAPIKey(ctx context.Context, ep domain.Endpoint, name string) (*domain.CreatedAPIKey, error) {
	const op = "apiclient.CreateAPIKey"

	var payload struct {
		domain.CreatedAPIKey
		LegacyKey string `json:"key"`
	}
	var err error
	if ep.Credential.Mode == domain.ModeAdmin {
		err = c.postJSON(ctx, ep, op, "/admin/api-keys", url.Values{"name": {name}}, nil, &payload)
	} else {
		body := map[string]any{
			"name":                  name,
			"rate_limit_per_minute": defaultRatePerMinute,
			"rate_limit_per_hour":   defaultRatePerHour,
		}
		err = c.postJSON(ctx, ep, op, "/v1/api-keys/", nil, body, &payload)
	}
	if err != nil {
		return nil, err
	}

	created := payload.CreatedAPIKey
	if created.Key == "" {
		created.Key = payload.LegacyKey
	}
	if created.Key == "" {
		return nil, fmt.Errorf("%s: %w: missing api_key", op, domain.ErrInvalidResponse)
	}
	if created.Name == "" {
		created.Name = name
	}
	return &created, nil
}

func (c *Client) SetAPIKeyActive(ctx context.Context, ep domain.Endpoint, keyID string, active bool) error {
	const op = "apiclient.SetAPIKeyActive"
	base := "/v1/api-keys/" + url.PathEscape(keyID)
	action := "revoke"
	if ep.Credential.Mode == domain.ModeAdmin {
		base = "/admin/api-keys/" + url.PathEscape(keyID)
		if active {
			action = "activate"
		}
	} else if active {
		action = "reactivate"
	}
	return c.postJSON(ctx, ep, op, base+"/"+action, nil, nil, nil)
}
