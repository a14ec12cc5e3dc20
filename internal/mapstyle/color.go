package mapstyle

import (
	"fmt"
	"math"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// DefaultBuildingColor is used when a style has no usable background color.
const DefaultBuildingColor = "#D1CEC7"

// colorShift is the brighter/darker exponent applied to the background color.
const colorShift = 0.2

// RGB is an 8-bit color triple.
type RGB [3]int

// Hex formats c as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// DefaultBuildingRGB is DefaultBuildingColor as an RGB triple.
var DefaultBuildingRGB = RGB{209, 206, 199}

// ParseRGB parses any CSS color string. Alpha is ignored.
func ParseRGB(s string) (RGB, bool) {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return RGB{}, false
	}
	return RGB{to255(c.R), to255(c.G), to255(c.B)}, true
}

// BackgroundColor returns the background-color paint of the layer with id
// "background", or DefaultBuildingRGB when missing or not a plain color.
func BackgroundColor(doc *Document) RGB {
	bg, ok := doc.Layer("background")
	if !ok {
		return DefaultBuildingRGB
	}
	s, ok := bg.PaintString("background-color")
	if !ok {
		return DefaultBuildingRGB
	}
	rgb, ok := ParseRGB(s)
	if !ok {
		return DefaultBuildingRGB
	}
	return rgb
}

// BuildingColor derives the 3D building extrusion color from the style's
// background: brighter for dark or night styles, darker otherwise.
func BuildingColor(doc *Document, styleID string) RGB {
	base := BackgroundColor(doc)
	k := math.Pow(0.7, colorShift)
	if strings.Contains(styleID, "dark") || strings.Contains(styleID, "night") {
		k = math.Pow(1/0.7, colorShift)
	}
	return RGB{scale(base[0], k), scale(base[1], k), scale(base[2], k)}
}

func scale(c int, k float64) int {
	return clamp255(int(math.Round(float64(c) * k)))
}

func to255(v float64) int {
	return clamp255(int(math.Round(v * 255)))
}

func clamp255(v int) int {
	return max(0, min(255, v))
}
