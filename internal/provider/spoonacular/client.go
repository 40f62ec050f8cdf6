package spoonacular

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rkeshri04/CalPal/internal/provider"
)

const defaultBaseURL = "https://api.spoonacular.com"

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// LookupBarcode resolves a UPC through the grocery products endpoint.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (provider.Descriptor, error) {
	body, err := c.get(ctx, fmt.Sprintf("/food/products/upc/%s", url.PathEscape(strings.TrimSpace(barcode))), nil)
	if err != nil {
		return provider.Descriptor{}, err
	}
	var parsed product
	if err := json.Unmarshal(body, &parsed); err != nil {
		return provider.Descriptor{}, fmt.Errorf("decode spoonacular response: %w", err)
	}
	if strings.TrimSpace(parsed.Title) == "" {
		return provider.Descriptor{}, fmt.Errorf("no spoonacular product found for barcode %q", barcode)
	}
	d := parsed.descriptor()
	d.Barcode = strings.TrimSpace(barcode)
	return d, nil
}

// Search runs a grocery product search and fetches nutrition for every
// hit; the search endpoint alone returns no nutriments.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]provider.Descriptor, error) {
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("query", strings.TrimSpace(query))
	q.Set("number", fmt.Sprintf("%d", limit))
	body, err := c.get(ctx, "/food/products/search", q)
	if err != nil {
		return nil, err
	}
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode spoonacular search response: %w", err)
	}
	out := make([]provider.Descriptor, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if strings.TrimSpace(p.Title) == "" {
			continue
		}
		full, err := c.productByID(ctx, p.ID)
		if err != nil {
			// A hit without nutrition detail is still a hit.
			out = append(out, provider.Descriptor{Name: strings.TrimSpace(p.Title), Image: strings.TrimSpace(p.Image)})
			continue
		}
		out = append(out, full.descriptor())
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no spoonacular product found for query %q", query)
	}
	return out, nil
}

func (c *Client) productByID(ctx context.Context, id int64) (product, error) {
	body, err := c.get(ctx, fmt.Sprintf("/food/products/%d", id), nil)
	if err != nil {
		return product{}, err
	}
	var parsed product
	if err := json.Unmarshal(body, &parsed); err != nil {
		return product{}, fmt.Errorf("decode spoonacular product %d: %w", id, err)
	}
	return parsed, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("missing spoonacular API key")
	}
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	if q == nil {
		q = url.Values{}
	}
	q.Set("apiKey", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create spoonacular request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute spoonacular request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read spoonacular response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("spoonacular request failed with status %d", resp.StatusCode)
	}
	return body, nil
}

type searchResponse struct {
	Products []searchHit `json:"products"`
}

type searchHit struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
}

type product struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	UPC       string    `json:"upc"`
	Nutrition nutrition `json:"nutrition"`
}

type nutrition struct {
	Nutrients []nutrient `json:"nutrients"`
}

type nutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

func (p product) descriptor() provider.Descriptor {
	d := provider.Descriptor{
		Name:    strings.TrimSpace(p.Title),
		Image:   strings.TrimSpace(p.Image),
		Barcode: strings.TrimSpace(p.UPC),
	}
	for _, n := range p.Nutrition.Nutrients {
		v := n.Amount
		switch strings.ToLower(strings.TrimSpace(n.Name)) {
		case "calories":
			d.Calories = &v
		case "fat":
			d.Fat = &v
		case "carbohydrates":
			d.Carbs = &v
		case "protein":
			d.Protein = &v
		}
	}
	return d
}
