package domain

import "net/http"

// Credential is the secret attached to an outbound request.
type Credential struct {
	Mode   CredentialMode
	Secret string
	Header AuthHeader
}

// Apply sets the credential headers on req. Admin credentials travel as X-Admin-Token;
// normal API keys as a bearer token or x-api-key.
func (c Credential) Apply(req *http.Request) {
	if c.Secret == "" {
		return
	}
	if c.Mode == ModeAdmin {
		req.Header.Set("X-Admin-Token", c.Secret)
		return
	}
	if c.Header == AuthHeaderAPIKey {
		req.Header.Set("x-api-key", c.Secret)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.Secret)
}

// Endpoint is the resolved target of one request: base address plus credential.
type Endpoint struct {
	BaseURL    string
	Credential Credential
}
