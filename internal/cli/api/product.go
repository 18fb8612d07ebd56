package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Product is one inventory item as listed by the backend.
type Product struct {
	ID          string   `json:"_id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Quantity    float64  `json:"quantity" yaml:"quantity"`
	Price       *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// ListProducts returns the user's products. search is only sent when not blank.
func (s *Service) ListProducts(ctx context.Context, search string) ([]Product, error) {
	if _, err := s.requireSession(); err != nil {
		return nil, err
	}

	var query url.Values
	if search = strings.TrimSpace(search); search != "" {
		query = url.Values{"search": {search}}
	}

	var products []Product
	if err := s.gw.Get(ctx, "/products", query, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}
