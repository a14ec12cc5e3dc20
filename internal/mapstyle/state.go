package mapstyle

import (
	"cmp"
	"errors"
	"maps"
	"slices"

	"github.com/samber/lo"
)

// ErrStyleNotFound is returned when a style id is not in the registry.
var ErrStyleNotFound = errors.New("map style not found")

// State is the map-style slice of a map instance. Canonical fields are
// changed only through the updater methods, which return a new State and
// recompute the derived fields in the same step. Maps held by a State are
// never modified in place, so copies can be shared freely.
type State struct {
	StyleType            string                     `json:"styleType"`
	MapStyles            map[string]StyleDefinition `json:"mapStyles"`
	VisibleLayerGroups   VisibilityMap              `json:"visibleLayerGroups"`
	TopLayerGroups       VisibilityMap              `json:"topLayerGroups"`
	MapboxAPIAccessToken string                     `json:"mapboxApiAccessToken,omitempty"`
	MapboxAPIURL         string                     `json:"mapboxApiUrl"`
	InputStyle           InputStyle                 `json:"inputStyle"`

	// Derived.
	BottomMapStyle      *Document `json:"bottomMapStyle,omitempty"`
	TopMapStyle         *Document `json:"topMapStyle,omitempty"`
	Editable            bool      `json:"editable"`
	ThreeDBuildingColor RGB       `json:"threeDBuildingColor"`

	initialStyleType string
}

// NewState returns the initial state with the preset registry.
func NewState() State {
	return State{
		StyleType:           DefaultStyleType,
		MapStyles:           DefaultMapStyles(),
		VisibleLayerGroups:  VisibilityMap{},
		TopLayerGroups:      VisibilityMap{},
		MapboxAPIURL:        DefaultMapboxAPIURL,
		InputStyle:          NewInputStyle(),
		ThreeDBuildingColor: DefaultBuildingRGB,
		initialStyleType:    DefaultStyleType,
	}
}

// InitConfig is the configuration received when the map instance mounts.
type InitConfig struct {
	MapboxAPIAccessToken string
	MapboxAPIURL         string
	// DefaultStyle overrides the initially selected style id.
	DefaultStyle string
	// Styles are added to the registry next to the presets.
	Styles []StyleDefinition
}

// ConfigChange merges the provided fields into the state. Nil fields are
// not changed.
type ConfigChange struct {
	StyleType          *string                    `json:"styleType,omitempty"`
	VisibleLayerGroups VisibilityMap              `json:"visibleLayerGroups,omitempty"`
	TopLayerGroups     VisibilityMap              `json:"topLayerGroups,omitempty"`
	MapStyles          map[string]StyleDefinition `json:"mapStyles,omitempty"`
}

// LoadRequest asks for one style document to be downloaded.
type LoadRequest struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// LoadedStyle is a downloaded document with its classified layer groups.
type LoadedStyle struct {
	Style       *Document
	LayerGroups []string
}

// LoadTask is a batch of downloads an updater wants performed. Its result
// comes back through StylesLoaded or StylesLoadFailed.
type LoadTask struct {
	Requests    []LoadRequest
	Definitions map[string]StyleDefinition
}

// Resolve builds the registry entries for a successful batch.
func (t LoadTask) Resolve(loaded map[string]LoadedStyle) map[string]StyleDefinition {
	out := make(map[string]StyleDefinition, len(loaded))
	for id, ls := range loaded {
		def := t.Definitions[id]
		def.ID = id
		def.Style = ls.Style
		def.LayerGroups = ls.LayerGroups
		out[id] = def
	}
	return out
}

// Init stores the access token and API url, registers extra styles and
// schedules downloads for every unresolved registry entry.
func (s State) Init(cfg InitConfig) (State, []LoadTask) {
	if cfg.MapboxAPIAccessToken != "" {
		s.MapboxAPIAccessToken = cfg.MapboxAPIAccessToken
	}
	if cfg.MapboxAPIURL != "" {
		s.MapboxAPIURL = cfg.MapboxAPIURL
	}
	if len(cfg.Styles) > 0 {
		s.MapStyles = mergeStyles(s.MapStyles, lo.SliceToMap(cfg.Styles, func(d StyleDefinition) (string, StyleDefinition) {
			return d.ID, d
		}))
	}
	if cfg.DefaultStyle != "" {
		s.StyleType = cfg.DefaultStyle
		s.initialStyleType = cfg.DefaultStyle
	}
	return s.recompute(), s.loadTasks(s.MapStyles)
}

// ConfigChange merges fields into the state and recomputes derived styles.
func (s State) ConfigChange(c ConfigChange) State {
	if c.StyleType != nil {
		s.StyleType = *c.StyleType
	}
	if c.VisibleLayerGroups != nil {
		s.VisibleLayerGroups = maps.Clone(c.VisibleLayerGroups)
	}
	if c.TopLayerGroups != nil {
		s.TopLayerGroups = maps.Clone(c.TopLayerGroups)
	}
	if c.MapStyles != nil {
		s.MapStyles = mergeStyles(s.MapStyles, c.MapStyles)
	}
	return s.recompute()
}

// StyleChange selects style id. Visibility falls back to the style's group
// defaults, keeping earlier overrides for groups the new style also has.
// An unknown or not yet downloaded style leaves the state unchanged.
func (s State) StyleChange(id string) State {
	def, ok := s.MapStyles[id]
	if !ok || !def.Resolved() {
		return s
	}
	visible := DefaultVisibility(def.groups())
	for slug, v := range s.VisibleLayerGroups {
		if _, known := visible[slug]; known {
			visible[slug] = v
		}
	}
	s.StyleType = id
	s.VisibleLayerGroups = visible
	return s.recompute()
}

// StylesLoaded adds downloaded definitions to the registry and reapplies the
// active style when it was among them.
func (s State) StylesLoaded(loaded map[string]StyleDefinition) State {
	added := make(map[string]StyleDefinition, len(loaded))
	for id, def := range loaded {
		if def.LayerGroups == nil {
			def.LayerGroups = Classify(def.Style)
		}
		added[id] = def
	}
	s.MapStyles = mergeStyles(s.MapStyles, added)
	if _, ok := loaded[s.StyleType]; ok {
		return s.StyleChange(s.StyleType)
	}
	return s
}

// StylesLoadFailed leaves the state unchanged. Callers report err.
func (s State) StylesLoadFailed(err error) State {
	return s
}

// ReceiveSavedConfig restores a persisted map style config. Saved styles are
// merged under the current registry and those without a document are
// scheduled for download.
func (s State) ReceiveSavedConfig(cfg SavedConfig) (State, []LoadTask) {
	ms := cfg.MapStyle
	if ms == nil {
		return s, nil
	}
	var tasks []LoadTask
	change := ConfigChange{
		StyleType:          &ms.StyleType,
		VisibleLayerGroups: ms.VisibleLayerGroups,
		TopLayerGroups:     ms.TopLayerGroups,
	}
	if ms.StyleType == "" {
		change.StyleType = nil
	}
	if ms.MapStyles != nil {
		saved := make(map[string]StyleDefinition, len(ms.MapStyles))
		for id, def := range ms.MapStyles {
			def.ID = id
			saved[id] = def
		}
		tasks = s.loadTasks(lo.OmitByKeys(saved, lo.Keys(s.MapStyles)))
		change.MapStyles = mergeStyles(saved, s.MapStyles)
	}
	return s.ConfigChange(change), tasks
}

// ResetToDefaults restores the initial state, keeping the access token, the
// API url and every registered style, then selects the initial style.
func (s State) ResetToDefaults() State {
	fresh := NewState()
	fresh.MapboxAPIAccessToken = s.MapboxAPIAccessToken
	fresh.MapboxAPIURL = s.MapboxAPIURL
	fresh.MapStyles = s.MapStyles
	fresh.initialStyleType = s.initialStyleType
	fresh.StyleType = s.initialStyleType
	return fresh.recompute().StyleChange(fresh.StyleType)
}

// InputStyleEdited merges a partial edit into the input style and
// revalidates its URL. A new URL drops the document staged for the old one.
func (s State) InputStyleEdited(e InputStyleEdit) State {
	in := s.InputStyle
	if e.URL != nil && *e.URL != in.URL {
		in.URL = *e.URL
		in.ID, in.Style, in.LayerGroups, in.Error = "", nil, nil, ""
	}
	if e.Label != nil {
		in.Label = *e.Label
	}
	if e.Icon != nil {
		in.Icon = *e.Icon
	}
	if e.AccessToken != nil {
		in.AccessToken = *e.AccessToken
	}
	in.IsValid = IsValidStyleURL(in.URL)
	s.InputStyle = in
	return s
}

// InputStyleResolved stores the outcome of loading the staged style.
func (s State) InputStyleResolved(r InputStyleResult) State {
	in := s.InputStyle
	if r.Style != nil {
		in.ID = r.Style.ID()
		if in.ID == "" {
			in.ID = NewCustomStyleID()
		}
		in.Style = r.Style.Clone()
		if in.Label == "" {
			in.Label = r.Style.Name()
		}
		in.LayerGroups = Classify(in.Style)
		in.Error = ""
	}
	if r.Icon != "" {
		in.Icon = r.Icon
	}
	if r.Error != nil {
		in.Error = r.Error.Error()
	}
	s.InputStyle = in
	return s
}

// CommitCustomStyle registers the staged style, clears the dialog and
// selects the new style. Nothing happens unless the input is Committable.
func (s State) CommitCustomStyle() State {
	if !s.InputStyle.Committable() {
		return s
	}
	def := s.InputStyle.definition()
	s.MapStyles = mergeStyles(s.MapStyles, map[string]StyleDefinition{def.ID: def})
	s.InputStyle = NewInputStyle()
	return s.StyleChange(def.ID)
}

// InputLoadRequest returns the download request for the staged URL.
func (s State) InputLoadRequest() (LoadRequest, bool) {
	in := s.InputStyle
	if !in.IsValid {
		return LoadRequest{}, false
	}
	token := lo.CoalesceOrEmpty(in.AccessToken, s.MapboxAPIAccessToken)
	return LoadRequest{ID: in.URL, URL: StyleDownloadURL(in.URL, token, s.MapboxAPIURL)}, true
}

// Active returns the definition of the selected style.
func (s State) Active() (StyleDefinition, bool) {
	def, ok := s.MapStyles[s.StyleType]
	return def, ok
}

// StyleIDs returns registry ids in sorted order.
func (s State) StyleIDs() []string {
	ids := lo.Keys(s.MapStyles)
	slices.Sort(ids)
	return ids
}

// recompute derives the bottom and top styles and the building color from
// the canonical fields.
func (s State) recompute() State {
	def := s.MapStyles[s.StyleType]
	if !def.Resolved() {
		s.BottomMapStyle, s.TopMapStyle, s.Editable = nil, nil, false
		s.ThreeDBuildingColor = DefaultBuildingRGB
		return s
	}
	s.ThreeDBuildingColor = BuildingColor(def.Style, s.StyleType)
	s.Editable = len(s.VisibleLayerGroups) > 0
	s.BottomMapStyle = EditBottomMapStyle(def.Style, s.VisibleLayerGroups)
	s.TopMapStyle = nil
	if s.Editable && anyVisible(s.TopLayerGroups) {
		s.TopMapStyle = EditTopMapStyle(def.Style, MaskTopVisibility(s.TopLayerGroups, s.VisibleLayerGroups))
	}
	return s
}

// loadTasks builds one batch for the unresolved entries of styles that have
// a URL. Mapbox URLs get the entry's own token or the state's.
func (s State) loadTasks(styles map[string]StyleDefinition) []LoadTask {
	pending := lo.PickBy(styles, func(_ string, d StyleDefinition) bool {
		return !d.Resolved() && d.URL != ""
	})
	if len(pending) == 0 {
		return nil
	}
	task := LoadTask{Definitions: pending}
	for _, id := range lo.Keys(pending) {
		def := pending[id]
		u := def.URL
		if IsValidStyleURL(u) {
			u = StyleDownloadURL(u, lo.CoalesceOrEmpty(def.AccessToken, s.MapboxAPIAccessToken), s.MapboxAPIURL)
		}
		task.Requests = append(task.Requests, LoadRequest{ID: id, URL: u})
	}
	slices.SortFunc(task.Requests, func(a, b LoadRequest) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return []LoadTask{task}
}
