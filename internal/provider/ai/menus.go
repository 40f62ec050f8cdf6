package ai

import (
	"embed"
	"encoding/json"
	"sort"
	"strings"
)

// Menus live beside the code so a new restaurant is one JSON file plus
// nothing else: the worker receives the menu verbatim as prompt
// context.
//
//go:embed menus/*.json
var menuFS embed.FS

// MenuFor returns the raw menu JSON for a restaurant id, or nil when
// the id is unknown.
func MenuFor(restaurantID string) json.RawMessage {
	id := strings.ToLower(strings.TrimSpace(restaurantID))
	if id == "" {
		return nil
	}
	data, err := menuFS.ReadFile("menus/" + id + ".json")
	if err != nil {
		return nil
	}
	return json.RawMessage(data)
}

// Restaurants lists the ids with an embedded menu, sorted.
func Restaurants() []string {
	entries, err := menuFS.ReadDir("menus")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".json") {
			out = append(out, strings.TrimSuffix(name, ".json"))
		}
	}
	sort.Strings(out)
	return out
}
