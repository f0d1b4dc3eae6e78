package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/product-catalog/internal/events"
)

// HTTPCatalogClient talks to the catalog service's internal query API.
type HTTPCatalogClient struct {
	baseURL      string
	serviceToken string
	client       *http.Client
}

func NewHTTPCatalogClient(baseURL, serviceToken string) *HTTPCatalogClient {
	return &HTTPCatalogClient{
		baseURL:      baseURL,
		serviceToken: serviceToken,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPCatalogClient) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

func (c *HTTPCatalogClient) ListProducts(ctx context.Context) ([]*events.ProductMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/internal/products", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Service-Token", c.serviceToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list products returned %d", resp.StatusCode)
	}

	var products []*events.ProductMessage
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}
