// Package credential decides which secret accompanies each outbound request.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"docdesk/internal/domain"
	"docdesk/internal/port"
)

const (
	KeyAPIKey     = "docparser_api_key"
	KeyAdminToken = "docparser_admin_token"
)

// Provider resolves credentials from the persistent local store.
type Provider struct {
	store      port.KeyValueStore
	defaultKey string
	header     domain.AuthHeader
	now        func() time.Time
}

// NewProvider creates a Provider. defaultKey is used in normal mode when no key is stored.
func NewProvider(store port.KeyValueStore, defaultKey string, header domain.AuthHeader) *Provider {
	return &Provider{
		store:      store,
		defaultKey: defaultKey,
		header:     header,
		now:        time.Now,
	}
}

// Mode reports admin mode when an admin token is stored.
func (p *Provider) Mode(ctx context.Context) domain.CredentialMode {
	if p.read(ctx, KeyAdminToken) != "" {
		return domain.ModeAdmin
	}
	return domain.ModeNormal
}

// Resolve returns the credential for mode. Admin mode without a stored token fails with
// ErrAdminTokenMissing and is never downgraded to the API key.
func (p *Provider) Resolve(ctx context.Context, mode domain.CredentialMode) (domain.Credential, error) {
	if mode == domain.ModeAdmin {
		token := p.read(ctx, KeyAdminToken)
		if token == "" {
			return domain.Credential{}, domain.ErrAdminTokenMissing
		}
		return domain.Credential{Mode: domain.ModeAdmin, Secret: token}, nil
	}

	key := p.read(ctx, KeyAPIKey)
	if key == "" {
		key = p.defaultKey
	}
	return domain.Credential{Mode: domain.ModeNormal, Secret: key, Header: p.header}, nil
}

// EnableAdminMode stores token and switches to admin mode. JWT tokens whose exp claim has
// passed are rejected; the signature is not checked here, the service does that.
func (p *Provider) EnableAdminMode(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: admin token is empty", domain.ErrInvalidInput)
	}
	if exp, ok := jwtExpiry(token); ok && !exp.After(p.now()) {
		return domain.ErrAdminTokenExpired
	}
	if err := p.store.Set(ctx, KeyAdminToken, []byte(token)); err != nil {
		return fmt.Errorf("credential.EnableAdminMode: %w", err)
	}
	return nil
}

// DisableAdminMode forgets the admin token and returns to normal mode.
func (p *Provider) DisableAdminMode(ctx context.Context) error {
	if err := p.store.Delete(ctx, KeyAdminToken); err != nil {
		return fmt.Errorf("credential.DisableAdminMode: %w", err)
	}
	return nil
}

// SetAPIKey persists the API key used in normal mode.
func (p *Provider) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: api key is empty", domain.ErrInvalidInput)
	}
	if err := p.store.Set(ctx, KeyAPIKey, []byte(key)); err != nil {
		return fmt.Errorf("credential.SetAPIKey: %w", err)
	}
	return nil
}

// ClearAPIKey falls back to the configured default key.
func (p *Provider) ClearAPIKey(ctx context.Context) error {
	if err := p.store.Delete(ctx, KeyAPIKey); err != nil {
		return fmt.Errorf("credential.ClearAPIKey: %w", err)
	}
	return nil
}

// HasStoredKey reports whether a user-supplied API key is stored.
func (p *Provider) HasStoredKey(ctx context.Context) bool {
	return p.read(ctx, KeyAPIKey) != ""
}

func (p *Provider) read(ctx context.Context, key string) string {
	b, err := p.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, port.ErrKeyNotFound) {
			log.Printf("credential: reading %s: %v", key, err)
		}
		return ""
	}
	return strings.TrimSpace(string(b))
}

// jwtExpiry reads the exp claim of an unverified JWT. ok is false for opaque tokens
// and for JWTs without exp.
func jwtExpiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
