package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Source supplies a fully-materialized product snapshot. The query pipeline
// never fetches on its own; callers hand it the slice a Source produced.
type Source interface {
	Fetch(ctx context.Context) ([]Product, error)
}

// HTTPSource fetches the product feed from an upstream REST endpoint.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource returns an HTTPSource for the given products URL.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Fetch performs a GET against the products endpoint. The upstream responds
// either with a bare JSON array or a {"products": [...]} envelope.
func (s *HTTPSource) Fetch(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build products request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch products: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read products response: %w", err)
	}

	var products []Product
	if err := json.Unmarshal(body, &products); err == nil {
		return products, nil
	}

	var envelope struct {
		Products []Product `json:"products"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode products response: %w", err)
	}
	return envelope.Products, nil
}

// StaticSource serves a fixed product list, for local runs and tests.
type StaticSource struct {
	Products []Product
}

func (s *StaticSource) Fetch(ctx context.Context) ([]Product, error) {
	return s.Products, nil
}
