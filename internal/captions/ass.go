package captions

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// assHeader is the script preamble with a single style definition. Every
// dialogue event references this one style; per-cue overrides are never
// emitted because position and alignment live entirely in the style.
const assHeader = `[Script Info]
Title: Scrideo Subtitles
ScriptType: v4.00+

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,%s,%d,&H%s,&H%s,&H00000000,&H%s,%d,%d,0,0,100,100,0,0,%d,%d,%d,%d,%d,%d,%d,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`

// ConvertSRTTimeToASS re-encodes an SRT timestamp (HH:MM:SS,mmm) as an ASS
// timestamp (H:MM:SS.cc): unpadded hour, centisecond precision.
func ConvertSRTTimeToASS(srtTime string) (string, error) {
	parts := strings.Split(strings.Replace(srtTime, ",", ".", 1), ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed timestamp %q", srtTime)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("malformed hours in %q", srtTime)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("malformed minutes in %q", srtTime)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return "", fmt.Errorf("malformed seconds in %q", srtTime)
	}

	return fmt.Sprintf("%d:%02d:%05.2f", hours, minutes, seconds), nil
}

// BuildASS renders the full ASS document for a cue track. It is pure: same
// cues and settings always produce the same document.
func BuildASS(cues []Cue, s Settings) (string, error) {
	if len(cues) == 0 {
		return "", fmt.Errorf("no cues: no speech detected")
	}

	s = s.Normalize()

	alignment := assAlignment(s.Position, s.Alignment)
	marginL, marginR, marginV := calcMargins(s.Position, alignment)
	bStyle, outline, shadow := borderStyle(s.BackgroundColor)
	bold, italic := fontFlags(s.FontStyle)
	color := textColorHex(s.TextColor)

	var b strings.Builder
	fmt.Fprintf(&b, assHeader,
		fontName(s.FontFamily),
		s.FontSizePt,
		color, color,
		bgColorHex(s.BackgroundColor),
		bold, italic,
		bStyle, outline, shadow,
		alignment,
		marginL, marginR, marginV,
	)

	for _, cue := range cues {
		start, err := ConvertSRTTimeToASS(FormatSRTTime(cue.Start))
		if err != nil {
			return "", err
		}
		end, err := ConvertSRTTimeToASS(FormatSRTTime(cue.End))
		if err != nil {
			return "", err
		}
		// Multi-line cue text folds into ASS line breaks.
		text := strings.ReplaceAll(cue.Text, "\n", `\N`)
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n", start, end, text)
	}

	return b.String(), nil
}

// WriteASS compiles the cue track into a styled ASS document at path.
func WriteASS(cues []Cue, s Settings, path string) error {
	doc, err := BuildASS(cues, s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return fmt.Errorf("failed to write markup document: %w", err)
	}
	return nil
}
