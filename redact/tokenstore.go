package redact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// HttpTransportWithBearer wraps the default RoundTripper to add the
// Authorization header.
type HttpTransportWithBearer struct {
	BaseTransport http.RoundTripper
	Token         string
}

// RoundTrip implements the RoundTripper interface to modify the request.
func (t *HttpTransportWithBearer) RoundTrip(req *http.Request) (*http.Response, error) {
	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.Token))
	return t.BaseTransport.RoundTrip(reqClone)
}

// TokenStore registers token-to-value mappings in an external vault over
// HTTP. Tokenization itself is local; the store only makes tokens
// reversible for authorized lookups on the vault side.
type TokenStore struct {
	baseURL string
	client  *retryablehttp.Client
}

// NewTokenStore builds a store client with retries and bearer auth.
func NewTokenStore(baseURL, apiToken string) *TokenStore {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = log
	client.HTTPClient = &http.Client{
		Timeout: 15 * time.Second,
		Transport: &HttpTransportWithBearer{
			BaseTransport: http.DefaultTransport,
			Token:         apiToken,
		},
	}
	return &TokenStore{baseURL: baseURL, client: client}
}

type tokenMapping struct {
	Token      string `json:"token"`
	EntityType string `json:"entity_type"`
	Value      string `json:"value"`
}

// Register stores one mapping. The vault request is the only place the raw
// value leaves the process, and only over the authenticated channel.
func (s *TokenStore) Register(ctx context.Context, token, entityType, value string) error {
	body, err := json.Marshal(tokenMapping{Token: token, EntityType: entityType, Value: value})
	if err != nil {
		return fmt.Errorf("error encoding token mapping: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/tokens", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error registering token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("token store returned status %d", resp.StatusCode)
	}
	return nil
}
