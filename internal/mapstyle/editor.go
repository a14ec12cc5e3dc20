package mapstyle

import "github.com/samber/lo"

// VisibilityMap maps a layer group slug to whether it is shown.
// A missing key means hidden; an empty map means "not customised".
type VisibilityMap map[string]bool

// Role selects which of the two composited maps an edit is for.
type Role int

const (
	RoleBottom Role = iota
	RoleTop
)

func (r Role) String() string {
	if r == RoleTop {
		return "top"
	}
	return "bottom"
}

// Edit rewrites layer visibility of doc for the given role. It never
// mutates doc: the result has its own layer slice and only rewritten layers
// get a fresh layout map.
//
// For RoleTop, visible must already be masked by the bottom visibility
// (see MaskTopVisibility).
func Edit(doc *Document, visible VisibilityMap, role Role) *Document {
	if role == RoleTop {
		return EditTopMapStyle(doc, visible)
	}
	return EditBottomMapStyle(doc, visible)
}

// EditBottomMapStyle hides every layer that belongs to a hidden group.
// Layers outside all known groups are untouched. An empty visibility map
// returns doc unchanged.
func EditBottomMapStyle(doc *Document, visible VisibilityMap) *Document {
	if doc == nil {
		return nil
	}
	if len(visible) == 0 {
		return doc
	}
	layers := make([]Layer, len(doc.Layers))
	for i, l := range doc.Layers {
		groups := matchGroups(l)
		hidden := lo.SomeBy(groups, func(slug string) bool { return !visible[slug] })
		if hidden {
			l = l.withVisibility(VisibilityNone)
		}
		layers[i] = l
	}
	return doc.withLayers(layers)
}

// EditTopMapStyle keeps only layers of visible groups showing; all other
// layers are set to "none". It returns nil when no group is visible, since
// there is nothing to draw on top.
func EditTopMapStyle(doc *Document, visible VisibilityMap) *Document {
	if doc == nil || !anyVisible(visible) {
		return nil
	}
	layers := make([]Layer, len(doc.Layers))
	for i, l := range doc.Layers {
		shown := lo.SomeBy(matchGroups(l), func(slug string) bool { return visible[slug] })
		if !shown {
			l = l.withVisibility(VisibilityNone)
		}
		layers[i] = l
	}
	return doc.withLayers(layers)
}

// MaskTopVisibility applies the masking rule: a group can only show on the
// top map when it is also visible on the bottom map.
func MaskTopVisibility(top, bottom VisibilityMap) VisibilityMap {
	masked := make(VisibilityMap, len(top))
	for slug, v := range top {
		masked[slug] = v && bottom[slug]
	}
	return masked
}

func anyVisible(vis VisibilityMap) bool {
	return lo.SomeBy(lo.Values(vis), func(v bool) bool { return v })
}
