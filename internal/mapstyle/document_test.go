package mapstyle_test

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-style/internal/mapstyle"
)

func loadFixture(t *testing.T) *mapstyle.Document {
	t.Helper()
	data, err := os.ReadFile("testdata/dark.json")
	require.NoError(t, err)
	doc, err := mapstyle.ParseDocument(data)
	require.NoError(t, err)
	return doc
}

func layerIDs(doc *mapstyle.Document) []string {
	ids := make([]string, len(doc.Layers))
	for i, l := range doc.Layers {
		ids[i] = l.ID
	}
	return ids
}

func TestParseDocument(t *testing.T) {
	t.Parallel()

	doc := loadFixture(t)

	assert.Equal(t, "test-dark", doc.ID())
	assert.Equal(t, "Test Dark", doc.Name())
	assert.Len(t, doc.Layers, 8)

	center, ok := doc.Center()
	require.True(t, ok)
	assert.InDelta(t, -122.4, center.Lon(), 1e-9)
	assert.InDelta(t, 37.8, center.Lat(), 1e-9)

	bg, ok := doc.Layer("background")
	require.True(t, ok)
	color, ok := bg.PaintString("background-color")
	require.True(t, ok)
	assert.Equal(t, "#112233", color)

	road, ok := doc.Layer("road-primary")
	require.True(t, ok)
	_, ok = road.PaintString("line-width")
	assert.False(t, ok, "expressions are not plain strings")
}

func TestDocumentRoundTripKeepsPassthroughFields(t *testing.T) {
	t.Parallel()

	doc := loadFixture(t)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.InDelta(t, 8, got["version"], 0)
	assert.Equal(t, "mapbox://sprites/uberdata/test-dark", got["sprite"])
	assert.Contains(t, got, "sources")

	layers := got["layers"].([]any)
	require.Len(t, layers, 8)
	road := layers[4].(map[string]any)
	assert.Equal(t, "road-primary", road["id"])
	assert.Equal(t, "road", road["source-layer"])
	assert.InDelta(t, 6, road["minzoom"], 0)

	again, err := mapstyle.ParseDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestParseDocumentWithoutLayers(t *testing.T) {
	t.Parallel()

	doc, err := mapstyle.ParseDocument([]byte(`{"version": 8, "name": "empty"}`))
	require.NoError(t, err)
	assert.Empty(t, doc.Layers)
	assert.Empty(t, mapstyle.Classify(doc))

	_, ok := doc.Layer("background")
	assert.False(t, ok)
	_, ok = doc.Center()
	assert.False(t, ok)
}

func TestParseDocumentInvalid(t *testing.T) {
	t.Parallel()

	_, err := mapstyle.ParseDocument([]byte(`{"layers": "nope"}`))
	require.Error(t, err)

	_, err = mapstyle.ParseDocument([]byte(`not json`))
	require.Error(t, err)
}

func TestClone(t *testing.T) {
	t.Parallel()

	doc := loadFixture(t)
	clone := doc.Clone()

	require.NotSame(t, doc, clone)
	assert.Equal(t, doc, clone)

	var nilDoc *mapstyle.Document
	assert.Nil(t, nilDoc.Clone())
}

func TestDocumentRoundTripKeepsNullAndEmptyFields(t *testing.T) {
	t.Parallel()

	for name, src := range map[string]string{
		"empty layer fields": `{"layers":[{"id":"","type":"","paint":null,"layout":null,"minzoom":0}]}`,
		"null layers":        `{"layers":null,"version":8}`,
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := mapstyle.ParseDocument([]byte(src))
			require.NoError(t, err)

			data, err := json.Marshal(doc)
			require.NoError(t, err)
			assert.JSONEq(t, src, string(data))
			assert.JSONEq(t, src, string(mustMarshal(t, doc.Clone())))
		})
	}
}

func TestEditedLayerReplacesNullLayout(t *testing.T) {
	t.Parallel()

	doc, err := mapstyle.ParseDocument([]byte(`{"layers":[{"id":"road-primary","type":"line","layout":null}]}`))
	require.NoError(t, err)
	assert.Equal(t, mapstyle.VisibilityVisible, doc.Layers[0].Visibility())

	edited := mapstyle.EditBottomMapStyle(doc, mapstyle.VisibilityMap{mapstyle.GroupRoad: false})
	assert.JSONEq(t,
		`{"layers":[{"id":"road-primary","type":"line","layout":{"visibility":"none"}}]}`,
		string(mustMarshal(t, edited)))
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
