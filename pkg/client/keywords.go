package client

import (
	"context"
	"net/url"

	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// KeywordsClient manages the screening keyword catalog.
type KeywordsClient struct {
	client *Client
}

// KeywordCatalog is the keyword catalog with per-category counts.
type KeywordCatalog struct {
	Categories map[string][]string `json:"categories"`
	Statistics map[string]int      `json:"statistics"`
}

type keywordRequest struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
}

// List returns all screening keywords grouped by category.
func (kc *KeywordsClient) List(ctx context.Context) (*KeywordCatalog, error) {
	var catalog KeywordCatalog
	if err := kc.client.get(ctx, "/api/v1/keywords", &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Add registers a keyword under a category and returns the updated
// catalog.
func (kc *KeywordsClient) Add(ctx context.Context, keyword, category string) (*KeywordCatalog, error) {
	if keyword == "" {
		return nil, errors.InvalidParam("keyword is required")
	}
	if category == "" {
		return nil, errors.InvalidParam("category is required")
	}

	var catalog KeywordCatalog
	err := kc.client.post(ctx, "/api/v1/keywords", keywordRequest{
		Keyword:  keyword,
		Category: category,
	}, &catalog)
	if err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Remove deletes a keyword from a category and returns the updated
// catalog.
func (kc *KeywordsClient) Remove(ctx context.Context, keyword, category string) (*KeywordCatalog, error) {
	if keyword == "" {
		return nil, errors.InvalidParam("keyword is required")
	}
	if category == "" {
		return nil, errors.InvalidParam("category is required")
	}

	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("category", category)

	var catalog KeywordCatalog
	if err := kc.client.delete(ctx, "/api/v1/keywords?"+params.Encode(), &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}
