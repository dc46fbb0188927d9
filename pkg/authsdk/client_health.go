package authsdk

import (
	"context"
	"net/http"
)

// GetLiveness reports whether the process is serving.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.probe(ctx, "/livez")
}

// GetReadiness also reports the database and, when configured, redis. A
// degraded service answers 503 and surfaces here as an error.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.probe(ctx, "/readyz")
}

func (c *SDKClient) probe(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	out := new(HealthResponse)
	if err := decodeJSON(resp, out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}
