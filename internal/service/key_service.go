package service

import (
	"context"
	"fmt"
	"strings"

	"docdesk/internal/domain"
	"docdesk/internal/port"
)

// KeyService manages API keys. Requests go through admin routes while admin mode is on.
type KeyService interface {
	List(ctx context.Context, cc *ClientContext) ([]domain.APIKey, error)
	Create(ctx context.Context, cc *ClientContext, name string) (*domain.CreatedAPIKey, error)
	Revoke(ctx context.Context, cc *ClientContext, keyID string) error
	Activate(ctx context.Context, cc *ClientContext, keyID string) error
}

type keyService struct {
	api port.DocParserAPI
}

// NewKeyService creates a new KeyService.
func NewKeyService(api port.DocParserAPI) KeyService {
	return &keyService{api: api}
}

func (s *keyService) endpoint(ctx context.Context, cc *ClientContext) (domain.Endpoint, error) {
	return cc.EndpointFor(ctx, cc.Credentials.Mode(ctx))
}

func (s *keyService) List(ctx context.Context, cc *ClientContext) ([]domain.APIKey, error) {
	ep, err := s.endpoint(ctx, cc)
	if err != nil {
		return nil, err
	}
	return s.api.ListAPIKeys(ctx, ep)
}

func (s *keyService) Create(ctx context.Context, cc *ClientContext, name string) (*domain.CreatedAPIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: key name is required", domain.ErrInvalidInput)
	}
	ep, err := s.endpoint(ctx, cc)
	if err != nil {
		return nil, err
	}
	return s.api.CreateAPIKey(ctx, ep, name)
}

func (s *keyService) Revoke(ctx context.Context, cc *ClientContext, keyID string) error {
	return s.setActive(ctx, cc, keyID, false)
}

func (s *keyService) Activate(ctx context.Context, cc *ClientContext, keyID string) error {
	return s.setActive(ctx, cc, keyID, true)
}

func (s *keyService) setActive(ctx context.Context, cc *ClientContext, keyID string, active bool) error {
	if strings.TrimSpace(keyID) == "" {
		return fmt.Errorf("%w: key id is required", domain.ErrInvalidInput)
	}
	ep, err := s.endpoint(ctx, cc)
	if err != nil {
		return err
	}
	return s.api.SetAPIKeyActive(ctx, ep, keyID, active)
}
