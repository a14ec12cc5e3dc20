package editor

import (
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/mapstyle"
)

// Signals provides type-safe access to Datastar signal values.
// Datastar sends all signals as a flat JSON object in the request body.
// Signal names are lowercase due to data-bind behavior.
type Signals map[string]any

// ParseSignals parses Datastar signals from a raw request body.
func ParseSignals(body []byte) (Signals, error) {
	var signals Signals
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// String returns a string signal value, or empty string if not found.
func (s Signals) String(key string) string {
	if v, ok := s[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// Bool returns a bool signal value, or false if not found.
func (s Signals) Bool(key string) bool {
	if v, ok := s[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Has returns true if the signal exists (even if empty/zero).
func (s Signals) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// stringPtr returns the signal as a pointer, nil when it was not sent.
func (s Signals) stringPtr(key string) *string {
	if !s.Has(key) {
		return nil
	}
	v := s.String(key)
	return &v
}

// Input dialog signal names.
const (
	SignalInputURL         = "inputurl"
	SignalInputLabel       = "inputlabel"
	SignalInputIcon        = "inputicon"
	SignalInputAccessToken = "inputaccesstoken"
)

// InputStyleEdit converts the dialog signals into a partial edit. Signals
// that were not sent leave their field alone.
func (s Signals) InputStyleEdit() mapstyle.InputStyleEdit {
	return mapstyle.InputStyleEdit{
		URL:         s.stringPtr(SignalInputURL),
		Label:       s.stringPtr(SignalInputLabel),
		Icon:        s.stringPtr(SignalInputIcon),
		AccessToken: s.stringPtr(SignalInputAccessToken),
	}
}

// VisibilityChanges returns the group toggles sent as "group_<slug>" and
// "top_<slug>" signals for the known layer groups.
func (s Signals) VisibilityChanges(current, currentTop mapstyle.VisibilityMap) (mapstyle.VisibilityMap, mapstyle.VisibilityMap) {
	var visible, top mapstyle.VisibilityMap
	for _, g := range mapstyle.DefaultLayerGroups {
		if key := groupSignal("group_", g.Slug); s.Has(key) {
			if visible == nil {
				visible = cloneVisibility(current)
			}
			visible[g.Slug] = s.Bool(key)
		}
		if key := groupSignal("top_", g.Slug); s.Has(key) {
			if top == nil {
				top = cloneVisibility(currentTop)
			}
			top[g.Slug] = s.Bool(key)
		}
	}
	return visible, top
}

// SignalsInput is a reusable input struct for handlers that receive Datastar signals.
type SignalsInput struct {
	RawBody []byte
}

// Parse parses the signals from the raw body.
func (i *SignalsInput) Parse() (Signals, error) {
	return ParseSignals(i.RawBody)
}

// MustParse parses signals or returns a Huma error.
func (i *SignalsInput) MustParse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	return signals, nil
}
