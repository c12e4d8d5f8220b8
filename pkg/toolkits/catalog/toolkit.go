// Package catalog exposes product catalog lookups as tools.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opaline/shopassist/pkg/catalog"
	"github.com/opaline/shopassist/pkg/registry"
)

// Tool names.
const (
	searchToolName = "searchProducts"
	getToolName    = "getProduct"
)

const maxSearchLimit = 50

// Toolkit serves catalog read tools over a catalog client.
type Toolkit struct {
	client catalog.Client
}

// New creates a catalog toolkit.
func New(client catalog.Client) *Toolkit {
	return &Toolkit{client: client}
}

type searchInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func (in searchInput) validate() error {
	if in.Query == "" {
		return registry.InvalidParam("query", "must not be empty")
	}
	if in.Limit < 0 || in.Limit > maxSearchLimit {
		return registry.InvalidParam("limit", fmt.Sprintf("must be between 0 and %d", maxSearchLimit))
	}
	return nil
}

type getInput struct {
	ID string `json:"id"`
}

func (in getInput) validate() error {
	if in.ID == "" {
		return registry.InvalidParam("id", "must not be empty")
	}
	return nil
}

// RegisterTools registers the catalog tools.
func (t *Toolkit) RegisterTools(r *registry.Registry) {
	r.MustRegister(registry.Tool{
		Name:        searchToolName,
		Description: "Search the product catalog by free-text query. Returns matching products with title, price and availability.",
		InputSchema: searchProductsSchema,
		Handler:     t.handleSearch,
	})
	r.MustRegister(registry.Tool{
		Name:        getToolName,
		Description: "Fetch one product by its catalog id.",
		InputSchema: getProductSchema,
		Handler:     t.handleGet,
	})
}

func (t *Toolkit) handleSearch(ctx context.Context, args json.RawMessage) (any, error) {
	var in searchInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, registry.InvalidParam("arguments", "must be a JSON object")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	products, err := t.client.Search(ctx, in.Query, in.Limit)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	return map[string]any{"products": products}, nil
}

func (t *Toolkit) handleGet(ctx context.Context, args json.RawMessage) (any, error) {
	var in getInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, registry.InvalidParam("arguments", "must be a JSON object")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	product, err := t.client.Get(ctx, in.ID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, registry.InvalidParam("id", "unknown product")
	}
	if err != nil {
		return nil, fmt.Errorf("fetching product: %w", err)
	}
	return product, nil
}
