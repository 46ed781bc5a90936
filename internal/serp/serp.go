// Package serp queries a search engine for an approximate result count and the
// ordered organic result links.
package serp

import (
	"context"
	"errors"
)

// ErrNoResultCount is returned when the results page has no usable result count.
var ErrNoResultCount = errors.New("result count not found")

// Results is what a provider returns for one query.
type Results struct {
	// Count is the provider's approximate number of matching documents.
	Count int64    `json:"count"`
	Links []string `json:"links"`
}

// Provider abstracts a search engine. Implementations may scrape, use an
// official API, or serve canned results in tests.
type Provider interface {
	Search(ctx context.Context, query string) (*Results, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, query string) (*Results, error)

func (f ProviderFunc) Search(ctx context.Context, query string) (*Results, error) {
	return f(ctx, query)
}
