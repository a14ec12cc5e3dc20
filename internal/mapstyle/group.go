package mapstyle

import (
	"strings"

	"github.com/samber/lo"
)

// Layer group slugs.
const (
	GroupLabel      = "label"
	GroupRoad       = "road"
	GroupBorder     = "border"
	GroupBuilding   = "building"
	GroupWater      = "water"
	GroupLand       = "land"
	GroupBackground = "background"
	Group3DBuilding = "3d building"
)

// LayerGroup is a named category of style layers that is toggled as a unit.
type LayerGroup struct {
	Slug           string
	Filter         func(Layer) bool
	DefaultVisible bool
}

// DefaultLayerGroups is the fixed set of groups known to the editor.
var DefaultLayerGroups = []LayerGroup{
	{Slug: GroupLabel, Filter: idContainsAny("label", "place-", "poi-"), DefaultVisible: true},
	{Slug: GroupRoad, Filter: isRoad, DefaultVisible: true},
	{Slug: GroupBorder, Filter: idContainsAny("border", "boundaries", "boundary"), DefaultVisible: false},
	{Slug: GroupBuilding, Filter: idContainsAny("building"), DefaultVisible: true},
	{Slug: GroupWater, Filter: idContainsAny("water", "stream", "ferry"), DefaultVisible: true},
	{Slug: GroupLand, Filter: idContainsAny("parks", "landcover", "industrial", "sand", "hillshade"), DefaultVisible: true},
	{Slug: GroupBackground, Filter: isBackground, DefaultVisible: true},
	// Toggles the extruded building layer drawn on top of the map; it never
	// matches a style layer.
	{Slug: Group3DBuilding, Filter: func(Layer) bool { return false }, DefaultVisible: false},
}

// LookupGroup returns the known group with the given slug.
func LookupGroup(slug string) (LayerGroup, bool) {
	return lo.Find(DefaultLayerGroups, func(g LayerGroup) bool { return g.Slug == slug })
}

// Classify returns the slugs of every known group that matches at least one
// layer of doc. A nil document or one without layers has no groups.
func Classify(doc *Document) []string {
	if doc == nil {
		return []string{}
	}
	matched := lo.Filter(DefaultLayerGroups, func(g LayerGroup, _ int) bool {
		return lo.SomeBy(doc.Layers, g.Filter)
	})
	return lo.Map(matched, func(g LayerGroup, _ int) string { return g.Slug })
}

// DefaultVisibility returns the default visibility of each listed group.
// Unknown slugs are skipped.
func DefaultVisibility(slugs []string) VisibilityMap {
	vis := make(VisibilityMap, len(slugs))
	for _, slug := range slugs {
		if g, ok := LookupGroup(slug); ok {
			vis[slug] = g.DefaultVisible
		}
	}
	return vis
}

// matchGroups returns the slugs of the known groups that match l.
func matchGroups(l Layer) []string {
	var slugs []string
	for _, g := range DefaultLayerGroups {
		if g.Filter(l) {
			slugs = append(slugs, g.Slug)
		}
	}
	return slugs
}

func idContainsAny(subs ...string) func(Layer) bool {
	return func(l Layer) bool {
		return lo.SomeBy(subs, func(s string) bool { return strings.Contains(l.ID, s) })
	}
}

// isRoad matches road-like ids unless "label" appears after the match.
func isRoad(l Layer) bool {
	for _, kw := range []string{"road", "railway", "tunnel", "street", "bridge"} {
		rest := l.ID
		offset := 0
		for {
			i := strings.Index(rest, kw)
			if i < 0 {
				break
			}
			if !strings.Contains(l.ID[offset+i:], "label") {
				return true
			}
			offset += i + 1
			rest = l.ID[offset:]
		}
	}
	return false
}

func isBackground(l Layer) bool {
	return l.ID == "background" || l.Type == "background"
}
