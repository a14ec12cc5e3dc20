package mapstyle

import (
	"maps"

	"github.com/samber/lo"
)

// SavedConfig is the persisted application config as far as map styles are
// concerned. MapStyle is nil when the config carries no map style section.
type SavedConfig struct {
	MapStyle *MapStyleConfig `json:"mapStyle,omitempty"`
}

// MapStyleConfig is the exported map style slice.
type MapStyleConfig struct {
	StyleType           string                     `json:"styleType"`
	VisibleLayerGroups  VisibilityMap              `json:"visibleLayerGroups"`
	TopLayerGroups      VisibilityMap              `json:"topLayerGroups"`
	ThreeDBuildingColor RGB                        `json:"threeDBuildingColor"`
	MapStyles           map[string]StyleDefinition `json:"mapStyles"`
}

// Export returns the persisted form of the state. Only custom styles are
// exported since presets are always registered; their documents are
// dropped when they can be fetched again.
func (s State) Export() SavedConfig {
	custom := lo.PickBy(s.MapStyles, func(_ string, d StyleDefinition) bool { return d.Custom })
	return SavedConfig{MapStyle: &MapStyleConfig{
		StyleType:           s.StyleType,
		VisibleLayerGroups:  maps.Clone(s.VisibleLayerGroups),
		TopLayerGroups:      maps.Clone(s.TopLayerGroups),
		ThreeDBuildingColor: s.ThreeDBuildingColor,
		MapStyles:           lo.MapValues(custom, func(d StyleDefinition, _ string) StyleDefinition { return d.Summary() }),
	}}
}
