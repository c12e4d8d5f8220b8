// Package catalog talks to the upstream product catalog. The storefront owns
// product data; this package only reads it, with bounded retries on the read
// path since catalog blips should not fail a whole chat turn.
package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a product id does not exist upstream.
var ErrNotFound = errors.New("product not found")

// Product is one catalog entry in the shape the tool layer exposes.
type Product struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	URL         string  `json:"url,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Available   bool    `json:"available"`
}

// Client reads from the product catalog.
type Client interface {
	// Search returns products matching the free-text query, up to limit.
	Search(ctx context.Context, query string, limit int) ([]Product, error)
	// Get returns one product by id, or ErrNotFound.
	Get(ctx context.Context, id string) (Product, error)
}
