// Package service contains business logic for the plat-style server.
package service

import (
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-style/internal/mapstyle"
)

// StyleSummary is a registry entry without its document.
// Huma reads the tags for OpenAPI and validation.
type StyleSummary struct {
	ID          string     `json:"id" doc:"Style identifier" example:"dark"`
	Label       string     `json:"label" doc:"Display name" example:"Dark"`
	URL         string     `json:"url,omitempty" doc:"Style URL (mapbox://, http(s):// or file:)" example:"mapbox://styles/uberdata/cjoqbbf6l9k302sl96tyvka09"`
	Icon        string     `json:"icon,omitempty" doc:"Preview image URL"`
	Custom      bool       `json:"custom" doc:"Whether the style was added by a user"`
	Loaded      bool       `json:"loaded" doc:"Whether the style document has been downloaded"`
	Active      bool       `json:"active" doc:"Whether this is the selected style"`
	LayerGroups []string   `json:"layerGroups,omitempty" doc:"Layer groups present in the style" example:"[\"label\",\"road\",\"water\"]"`
	Center      *orb.Point `json:"center,omitempty" doc:"Default map center as [lon, lat]" example:"[-122.4,37.8]"`
}

// Summaries lists the registry of s in id order.
func Summaries(s mapstyle.State) []StyleSummary {
	out := make([]StyleSummary, 0, len(s.MapStyles))
	for _, id := range s.StyleIDs() {
		def := s.MapStyles[id]
		var center *orb.Point
		if c, ok := def.Style.Center(); ok {
			center = &c
		}
		out = append(out, StyleSummary{
			ID:          id,
			Label:       def.Label,
			URL:         def.URL,
			Icon:        def.Icon,
			Custom:      def.Custom,
			Loaded:      def.Resolved(),
			Active:      id == s.StyleType,
			LayerGroups: def.LayerGroups,
			Center:      center,
		})
	}
	return out
}

// StyleFile is a style document in the local styles directory.
type StyleFile struct {
	Name string `json:"name" doc:"File name" example:"streets.json"`
	Size string `json:"size" doc:"Human-readable file size" example:"12.4 KB"`
	URL  string `json:"url" doc:"Style URL to register the file with" example:"file:streets.json"`
}
