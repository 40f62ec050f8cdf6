// Package ai turns free-text food descriptions into normalized
// nutrition descriptors via a hosted text-to-nutrition worker. Prompts
// can carry a restaurant menu so the model grounds its answer in real
// menu items.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rkeshri04/CalPal/internal/provider"
)

const defaultEndpoint = "https://calpalai.rishabh-1keshri.workers.dev/food-from-text"

// Bounds the worker's numbers are clamped into. The model occasionally
// hallucinates units, so anything outside these is treated as noise.
const (
	maxCalories = 3000
	maxWeightG  = 1500
	maxFatG     = 200
	maxCarbsG   = 400
	maxProteinG = 200
	maxCost     = 80
)

var numberRe = regexp.MustCompile(`-?\d+(\.\d+)?`)

type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

type request struct {
	Description  string          `json:"description"`
	RestaurantID string          `json:"restaurantId,omitempty"`
	Menu         json.RawMessage `json:"menu,omitempty"`
}

// FoodFromText asks the worker to turn a description like "large fries
// and a shake" into a structured entry. restaurantID is optional; when
// it names a known menu the menu rides along as context.
func (c *Client) FoodFromText(ctx context.Context, description, restaurantID string) (provider.Descriptor, error) {
	if strings.TrimSpace(description) == "" {
		return provider.Descriptor{}, fmt.Errorf("description is empty")
	}
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	reqBody := request{Description: description}
	if restaurantID != "" {
		reqBody.RestaurantID = restaurantID
		reqBody.Menu = MenuFor(restaurantID)
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return provider.Descriptor{}, fmt.Errorf("marshal ai payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return provider.Descriptor{}, fmt.Errorf("create ai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return provider.Descriptor{}, fmt.Errorf("execute ai request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.Descriptor{}, fmt.Errorf("read ai response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return provider.Descriptor{}, fmt.Errorf("ai service failed with status %d", resp.StatusCode)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return provider.Descriptor{}, fmt.Errorf("decode ai response: %w", err)
	}
	return normalize(raw), nil
}

// normalize tolerates the worker returning numbers as strings with
// units ("780 kcal", "45 g") and clamps everything into sane bounds.
func normalize(raw map[string]any) provider.Descriptor {
	d := provider.Descriptor{
		Name:    stringField(raw, "name"),
		Barcode: stringField(raw, "barcode"),
		Image:   stringField(raw, "image"),
	}
	if d.Name == "" {
		d.Name = "Unknown Food"
	}
	if v, ok := parseNumber(raw["cost"]); ok {
		d.Cost = clamp(v, 0, maxCost)
	}
	if v, ok := parseNumber(raw["weight"]); ok {
		d.Weight = clamp(v, 0, maxWeightG)
	}
	if v, ok := parseNumber(raw["calories"]); ok {
		c := clamp(v, 0, maxCalories)
		d.Calories = &c
	}
	if v, ok := parseNumber(raw["fat"]); ok {
		c := clamp(v, 0, maxFatG)
		d.Fat = &c
	}
	if v, ok := parseNumber(raw["carbs"]); ok {
		c := clamp(v, 0, maxCarbsG)
		d.Carbs = &c
	}
	if v, ok := parseNumber(raw["protein"]); ok {
		c := clamp(v, 0, maxProteinG)
		d.Protein = &c
	}
	return d
}

func parseNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		if m := numberRe.FindString(t); m != "" {
			f, err := strconv.ParseFloat(m, 64)
			return f, err == nil
		}
		return 0, false
	default:
		return 0, false
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}
