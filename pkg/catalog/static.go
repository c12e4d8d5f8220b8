package catalog

import (
	"context"
	"strings"
)

// StaticClient serves a fixed product list. Used in tests and in deployments
// without an upstream catalog.
type StaticClient struct {
	products []Product
}

// NewStaticClient creates a client over the given products.
func NewStaticClient(products []Product) *StaticClient {
	cp := make([]Product, len(products))
	copy(cp, products)
	return &StaticClient{products: cp}
}

// Search matches the query case-insensitively against title and description.
func (c *StaticClient) Search(_ context.Context, query string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	q := strings.ToLower(query)

	results := []Product{}
	for _, p := range c.products {
		if q == "" ||
			strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			results = append(results, p)
			if len(results) == limit {
				break
			}
		}
	}
	return results, nil
}

// Get returns the product with the given id, or ErrNotFound.
func (c *StaticClient) Get(_ context.Context, id string) (Product, error) {
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

// Verify interface compliance.
var _ Client = (*StaticClient)(nil)
