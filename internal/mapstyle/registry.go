package mapstyle

import "maps"

// StyleDefinition is one entry of the style registry. Style is nil until the
// document has been downloaded. Definitions are replaced wholesale, never
// patched in place.
type StyleDefinition struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	URL         string    `json:"url,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Style       *Document `json:"style,omitempty"`
	LayerGroups []string  `json:"layerGroups,omitempty"`
	AccessToken string    `json:"accessToken,omitempty"`
	Custom      bool      `json:"custom,omitempty"`
}

// Resolved reports whether the style document is present.
func (d StyleDefinition) Resolved() bool {
	return d.Style != nil
}

// groups returns the declared layer groups, classifying the document when
// none were declared.
func (d StyleDefinition) groups() []string {
	if d.LayerGroups != nil || d.Style == nil {
		return d.LayerGroups
	}
	return Classify(d.Style)
}

// Summary returns the definition as persisted in exported configs: the
// document is dropped when it can be fetched again from URL.
func (d StyleDefinition) Summary() StyleDefinition {
	if d.URL != "" {
		d.Style = nil
	}
	return d
}

// DefaultStyleType is the style selected on a fresh state.
const DefaultStyleType = "dark"

const iconPrefix = "https://d1a3f4spazzrp4.cloudfront.net/kepler.gl/geodude"

var defaultMapStyles = []StyleDefinition{
	{
		ID:    "dark",
		Label: "Dark",
		URL:   "mapbox://styles/uberdata/cjoqbbf6l9k302sl96tyvka09",
		Icon:  iconPrefix + "/UBER_DARK_V2.png",
	},
	{
		ID:    "light",
		Label: "Light",
		URL:   "mapbox://styles/uberdata/cjoqb9j339k1f2sl9t5ic5bn4",
		Icon:  iconPrefix + "/UBER_LIGHT_V2.png",
	},
	{
		ID:    "muted",
		Label: "Muted Light",
		URL:   "mapbox://styles/uberdata/cjfyl03kp1tul2smf5v2tbdd4",
		Icon:  iconPrefix + "/UBER_MUTED_LIGHT.png",
	},
	{
		ID:    "muted_night",
		Label: "Muted Night",
		URL:   "mapbox://styles/uberdata/cjfxhlikmaj1b2soyzevnywgs",
		Icon:  iconPrefix + "/UBER_MUTED_NIGHT.png",
	},
	{
		ID:    "satellite",
		Label: "Satellite",
		URL:   "mapbox://styles/mapbox/satellite-v9",
		Icon:  iconPrefix + "/UBER_SATELLITE.png",
	},
}

// DefaultMapStyles returns the preset registry, all entries unresolved.
func DefaultMapStyles() map[string]StyleDefinition {
	out := make(map[string]StyleDefinition, len(defaultMapStyles))
	for _, d := range defaultMapStyles {
		out[d.ID] = d
	}
	return out
}

// mergeStyles returns a new registry with added entries overriding base.
func mergeStyles(base, added map[string]StyleDefinition) map[string]StyleDefinition {
	out := make(map[string]StyleDefinition, len(base)+len(added))
	maps.Copy(out, base)
	maps.Copy(out, added)
	return out
}
