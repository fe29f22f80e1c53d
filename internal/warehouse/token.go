package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mozilla-services/cjms-sub000/pkg/config"
)

const (
	// EnvAccessToken is read by EnvTokenSource in local environments.
	EnvAccessToken = "BQ_ACCESS_TOKEN"

	defaultMetadataBase = "http://metadata.google.internal"
	metadataTokenPath   = "/computeMetadata/v1/instance/service-accounts/default/token"
)

// TokenSource yields a bearer token for warehouse queries. A failed initial
// fetch is fatal to the run.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// NewTokenSource selects the env-var source in local environments and the
// metadata server everywhere else.
func NewTokenSource(env config.Env) TokenSource {
	if env == config.EnvLocal {
		return &EnvTokenSource{}
	}
	return NewMetadataTokenSource(defaultMetadataBase)
}

type EnvTokenSource struct{}

func (s *EnvTokenSource) Token(_ context.Context) (string, error) {
	token := os.Getenv(EnvAccessToken)
	if token == "" {
		return "", fmt.Errorf("%s is not set", EnvAccessToken)
	}
	return token, nil
}

// MetadataTokenSource fetches the default service account token from the
// instance metadata server.
type MetadataTokenSource struct {
	base   string
	client *http.Client
}

func NewMetadataTokenSource(base string) *MetadataTokenSource {
	return &MetadataTokenSource{
		base:   base,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *MetadataTokenSource) Token(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+metadataTokenPath, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build metadata request: %w", err)
	}
	req.Header.Set("Metadata-Flavor", "Google")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("metadata token fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata token fetch returned %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode metadata token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("metadata token response had no access_token")
	}
	return body.AccessToken, nil
}
