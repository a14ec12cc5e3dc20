package mapstyle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-style/internal/mapstyle"
)

func visibilityByID(doc *mapstyle.Document) map[string]string {
	out := make(map[string]string, len(doc.Layers))
	for _, l := range doc.Layers {
		out[l.ID] = l.Visibility()
	}
	return out
}

func TestEditBottomEmptyVisibilityIsIdentity(t *testing.T) {
	t.Parallel()

	doc := loadFixture(t)
	before := doc.Clone()

	got := mapstyle.Edit(doc, mapstyle.VisibilityMap{}, mapstyle.RoleBottom)
	assert.Equal(t, before, got)
	assert.Same(t, doc, got)

	assert.Same(t, doc, mapstyle.EditBottomMapStyle(doc, nil))
}

func TestEditNeverMutatesInput(t *testing.T) {
	t.Parallel()

	visibilities := []mapstyle.VisibilityMap{
		{},
		{mapstyle.GroupRoad: false},
		{mapstyle.GroupLabel: true, mapstyle.GroupWater: false, mapstyle.GroupBackground: false},
		{mapstyle.GroupRoad: true, mapstyle.GroupBuilding: true, mapstyle.GroupBorder: true},
	}

	for _, role := range []mapstyle.Role{mapstyle.RoleBottom, mapstyle.RoleTop} {
		for _, vis := range visibilities {
			doc := loadFixture(t)
			snapshot := doc.Clone()

			_ = mapstyle.Edit(doc, vis, role)

			assert.Equal(t, snapshot, doc, "role=%s vis=%v", role, vis)
		}
	}
}

func TestEditBottomMapStyle(t *testing.T) {
	t.Parallel()

	doc := loadFixture(t)
	vis := mapstyle.DefaultVisibility(mapstyle.Classify(doc))
	vis[mapstyle.GroupWater] = false

	got := mapstyle.EditBottomMapStyle(doc, vis)
	require.NotNil(t, got)
	require.NotSame(t, doc, got)

	assert.Equal(t, layerIDs(doc), layerIDs(got), "layer order is preserved")
	assert.Equal(t, map[string]string{
		"background":     "visible",
		"landcover":      "visible",
		"water":          "none",
		"admin-boundary": "none",
		"road-primary":   "visible",
		"building":       "visible",
		"road-label":     "visible",
		"custom-overlay": "visible",
	}, visibilityByID(got))

	// Untouched layers are shared as-is, rewritten ones only differ in layout.
	assert.Equal(t, doc.Layers[4], got.Layers[4])
	assert.Equal(t, doc.Layers[2].Paint, got.Layers[2].Paint)
	assert.Equal(t, doc.ID(), got.ID())
}

func TestEditBottomMissingKeyHidesGroup(t *testing.T) {
	t.Parallel()

	doc := loadFixture(t)
	got := mapstyle.EditBottomMapStyle(doc, mapstyle.VisibilityMap{mapstyle.GroupRoad: true})

	vis := visibilityByID(got)
	assert.Equal(t, "visible", vis["road-primary"])
	assert.Equal(t, "none", vis["water"])
	assert.Equal(t, "none", vis["background"])
	assert.Equal(t, "visible", vis["custom-overlay"], "layers outside every group are untouched")
}

func TestEditTopMapStyle(t *testing.T) {
	t.Parallel()

	doc := loadFixture(t)

	got := mapstyle.Edit(doc, mapstyle.VisibilityMap{mapstyle.GroupRoad: true, mapstyle.GroupLabel: false}, mapstyle.RoleTop)
	require.NotNil(t, got)
	assert.Equal(t, layerIDs(doc), layerIDs(got))

	vis := visibilityByID(got)
	assert.Equal(t, "visible", vis["road-primary"])
	for _, id := range []string{"background", "landcover", "water", "admin-boundary", "building", "road-label", "custom-overlay"} {
		assert.Equal(t, "none", vis[id], id)
	}
}

func TestEditTopMapStyleNothingVisible(t *testing.T) {
	t.Parallel()

	doc := loadFixture(t)
	assert.Nil(t, mapstyle.EditTopMapStyle(doc, mapstyle.VisibilityMap{}))
	assert.Nil(t, mapstyle.EditTopMapStyle(doc, mapstyle.VisibilityMap{mapstyle.GroupRoad: false}))
	assert.Nil(t, mapstyle.EditTopMapStyle(nil, mapstyle.VisibilityMap{mapstyle.GroupRoad: true}))
}

func TestEditNilDocument(t *testing.T) {
	t.Parallel()

	assert.Nil(t, mapstyle.Edit(nil, mapstyle.VisibilityMap{mapstyle.GroupRoad: true}, mapstyle.RoleBottom))
	assert.Nil(t, mapstyle.Edit(nil, mapstyle.VisibilityMap{}, mapstyle.RoleBottom))
}

func TestMaskTopVisibility(t *testing.T) {
	t.Parallel()

	bottoms := []bool{true, false}
	tops := []bool{true, false}
	for _, b := range bottoms {
		for _, top := range tops {
			masked := mapstyle.MaskTopVisibility(
				mapstyle.VisibilityMap{mapstyle.GroupRoad: top},
				mapstyle.VisibilityMap{mapstyle.GroupRoad: b},
			)
			assert.Equal(t, top && b, masked[mapstyle.GroupRoad], "top=%v bottom=%v", top, b)
		}
	}

	masked := mapstyle.MaskTopVisibility(mapstyle.VisibilityMap{mapstyle.GroupWater: true}, mapstyle.VisibilityMap{})
	assert.False(t, masked[mapstyle.GroupWater], "groups missing from the bottom are hidden")
}

func TestHiddenBottomGroupNeverShowsOnTop(t *testing.T) {
	t.Parallel()

	doc := loadFixture(t)
	bottom := mapstyle.VisibilityMap{mapstyle.GroupRoad: false, mapstyle.GroupWater: true}
	top := mapstyle.VisibilityMap{mapstyle.GroupRoad: true, mapstyle.GroupWater: true}

	got := mapstyle.EditTopMapStyle(doc, mapstyle.MaskTopVisibility(top, bottom))
	require.NotNil(t, got)

	vis := visibilityByID(got)
	assert.Equal(t, "none", vis["road-primary"])
	assert.Equal(t, "visible", vis["water"])
}

func TestRoleString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "bottom", mapstyle.RoleBottom.String())
	assert.Equal(t, "top", mapstyle.RoleTop.String())
}
