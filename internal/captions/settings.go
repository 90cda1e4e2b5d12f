package captions

// Settings controls how the caption overlay is styled and placed. Zero or
// unrecognized values fall back to the documented defaults instead of
// failing the job, so a caller can send any subset of fields.
type Settings struct {
	FontSizePt      int    `json:"size"`
	TextColor       string `json:"color"`
	BackgroundColor string `json:"bgColor"`
	FontFamily      string `json:"font"`
	FontStyle       string `json:"fontStyle"` // normal, bold, italic, bold-italic
	Position        string `json:"position"`  // top, middle, bottom + corner variants
	Alignment       string `json:"alignment"` // left, center, right
}

// Default values applied by Normalize.
const (
	DefaultFontSizePt = 20
	DefaultTextColor  = "white"
	DefaultBackground = "none"
	DefaultFontFamily = "arial"
	DefaultFontStyle  = "normal"
	DefaultPosition   = "bottom"
	DefaultAlignment  = "center"
)

// colorMap holds text colors in ASS &HAABBGGRR order (alpha first, BGR).
var colorMap = map[string]string{
	"white":       "00FFFFFF",
	"yellow":      "0000FFFF",
	"cyan":        "00FFFF00",
	"lime":        "0000FF00",
	"orange":      "0000A5FF",
	"red":         "000000FF",
	"pink":        "00CBC0FF",
	"purple":      "00F020A0",
	"light-blue":  "00E6D8AD",
	"light-green": "0090EE90",
}

// bgColorMap holds background box colors. "none" stays fully transparent and
// switches the style to an outline border instead of a box.
var bgColorMap = map[string]string{
	"none":             "00FFFFFF",
	"black":            "00000000",
	"dark-gray":        "00333333",
	"semi-transparent": "80000000",
	"dark-blue":        "004D1A00",
	"dark-red":         "0000004D",
	"dark-green":       "00004D00",
	"dark-purple":      "004D0033",
	"navy":             "00800000",
	"charcoal":         "004F4536",
}

// fontMap translates the option keys to renderer font names.
var fontMap = map[string]string{
	"arial":           "Arial",
	"helvetica":       "Helvetica",
	"times-new-roman": "Times New Roman",
	"courier-new":     "Courier New",
	"verdana":         "Verdana",
	"georgia":         "Georgia",
	"impact":          "Impact",
	"comic-sans":      "Comic Sans MS",
	"trebuchet":       "Trebuchet MS",
	"arial-black":     "Arial Black",
	"palatino":        "Palatino Linotype",
}

// Normalize returns a copy with defaults filled in for empty fields.
// Unknown color/font keys are left as-is here; the lookup helpers below
// apply the fallback when the value is resolved.
func (s Settings) Normalize() Settings {
	if s.FontSizePt <= 0 {
		s.FontSizePt = DefaultFontSizePt
	}
	if s.TextColor == "" {
		s.TextColor = DefaultTextColor
	}
	if s.BackgroundColor == "" {
		s.BackgroundColor = DefaultBackground
	}
	if s.FontFamily == "" {
		s.FontFamily = DefaultFontFamily
	}
	if s.FontStyle == "" {
		s.FontStyle = DefaultFontStyle
	}
	if s.Position == "" {
		s.Position = DefaultPosition
	}
	if s.Alignment == "" {
		s.Alignment = DefaultAlignment
	}
	return s
}

// textColorHex resolves the text color, defaulting to white.
func textColorHex(name string) string {
	if hex, ok := colorMap[name]; ok {
		return hex
	}
	return colorMap[DefaultTextColor]
}

// bgColorHex resolves the background color, defaulting to transparent.
func bgColorHex(name string) string {
	if hex, ok := bgColorMap[name]; ok {
		return hex
	}
	return bgColorMap[DefaultBackground]
}

// fontName resolves the font family, defaulting to Arial.
func fontName(key string) string {
	if name, ok := fontMap[key]; ok {
		return name
	}
	return fontMap[DefaultFontFamily]
}
