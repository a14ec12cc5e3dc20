package mapstyle

import "github.com/google/uuid"

// InputStyle is the staging area of the custom style dialog. It has its own
// lifecycle and only reaches the registry on commit.
type InputStyle struct {
	ID          string    `json:"id,omitempty"`
	Label       string    `json:"label,omitempty"`
	URL         string    `json:"url,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Style       *Document `json:"style,omitempty"`
	LayerGroups []string  `json:"layerGroups,omitempty"`
	AccessToken string    `json:"accessToken,omitempty"`
	IsValid     bool      `json:"isValid"`
	Error       string    `json:"error,omitempty"`
	Custom      bool      `json:"custom"`
}

// NewInputStyle returns a blank input style.
func NewInputStyle() InputStyle {
	return InputStyle{Custom: true}
}

// Committable reports whether the staged document can be registered: it
// was resolved without error, and a URL, when set, is a valid style URL.
func (in InputStyle) Committable() bool {
	return in.ID != "" && in.Style != nil && in.Error == "" && (in.URL == "" || in.IsValid)
}

// definition converts a staged style into a registry entry.
func (in InputStyle) definition() StyleDefinition {
	return StyleDefinition{
		ID:          in.ID,
		Label:       in.Label,
		URL:         in.URL,
		Icon:        in.Icon,
		Style:       in.Style,
		LayerGroups: in.LayerGroups,
		AccessToken: in.AccessToken,
		Custom:      true,
	}
}

// InputStyleEdit is a partial update of the input style. Nil fields are
// left alone.
type InputStyleEdit struct {
	URL         *string `json:"url,omitempty"`
	Label       *string `json:"label,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	AccessToken *string `json:"accessToken,omitempty"`
}

// InputStyleResult is the outcome of loading the staged style URL.
type InputStyleResult struct {
	Style *Document
	Icon  string
	Error error
}

// NewCustomStyleID returns an id for a custom style whose document has none.
var NewCustomStyleID = func() string {
	return "custom_style_" + uuid.NewString()[:8]
}
