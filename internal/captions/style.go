package captions

import "strings"

// ASS alignment grid:
//
//	7 8 9  (top:    left, center, right)
//	4 5 6  (middle: left, center, right)
//	1 2 3  (bottom: left, center, right)
//
// Corner positions pin the horizontal alignment regardless of the
// configured text alignment; the plain top/middle/bottom positions pick the
// column from the alignment setting.
func assAlignment(position, alignment string) int {
	switch position {
	case "bottom-left":
		return 1
	case "top-left":
		return 7
	case "bottom-right":
		return 3
	case "top-right":
		return 9
	}

	var base int
	switch position {
	case "top":
		base = 7
	case "middle":
		base = 4
	default: // bottom
		base = 1
	}

	switch alignment {
	case "left":
		return base
	case "right":
		return base + 2
	default: // center
		return base + 1
	}
}

// Margin constants in ASS script pixels.
const (
	marginEdge = 30 // distance from the anchored screen edge
	marginNear = 30 // side the text anchors toward
	marginFar  = 10 // side the text grows toward
)

// calcMargins returns MarginL, MarginR, MarginV for a resolved anchor.
// Top and bottom rows get a vertical offset from the edge; the middle row
// is vertically centered. Horizontally the anchored side gets the larger
// margin and the free side the smaller one; centered anchors get the small
// margin on both sides.
func calcMargins(position string, alignment int) (l, r, v int) {
	if strings.Contains(position, "middle") {
		v = 0
	} else {
		v = marginEdge
	}

	switch alignment % 3 {
	case 1: // left column (1, 4, 7)
		l, r = marginNear, marginFar
	case 0: // right column (3, 6, 9)
		l, r = marginFar, marginNear
	default: // center column (2, 5, 8)
		l, r = marginFar, marginFar
	}
	return l, r, v
}

// Border style constants. A "none" background renders an outlined border
// around the glyphs; any real background renders a filled box with padding.
const (
	borderStyleOutline = 1
	borderStyleBox     = 4
	outlineThickness   = 2 // glyph outline width
	boxPadding         = 3 // padding inside the filled box
)

// borderStyle resolves the BorderStyle/Outline/Shadow triple for a
// background color key.
func borderStyle(bgColor string) (style, outline, shadow int) {
	if bgColor == "none" {
		return borderStyleOutline, outlineThickness, 0
	}
	return borderStyleBox, boxPadding, 0
}

// fontFlags encodes the weight/slant option as ASS boolean flags
// (-1 means enabled).
func fontFlags(fontStyle string) (bold, italic int) {
	if strings.Contains(fontStyle, "bold") {
		bold = -1
	}
	if strings.Contains(fontStyle, "italic") {
		italic = -1
	}
	return bold, italic
}
