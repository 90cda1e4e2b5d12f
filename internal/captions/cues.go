package captions

import (
	"fmt"
	"os"
	"strings"

	"github.com/scrideo/scrideo/internal/types"
)

// MaxWordsPerCue caps how many words a single caption line may carry.
// Longer segments are split into consecutive word groups that share the
// segment's time span evenly.
const MaxWordsPerCue = 7

// Cue is one caption display unit derived from a speech segment.
type Cue struct {
	Index int // 1-based across the whole track
	Start float64
	End   float64
	Text  string
}

// BuildCues splits segments into display cues. Segments with blank text are
// skipped. A segment of more than MaxWordsPerCue words becomes
// ceil(words/MaxWordsPerCue) cues whose intervals partition the segment
// exactly; the last cue's end is clamped to the segment end so rounding in
// the division never drifts past it.
func BuildCues(segments []types.Segment) []Cue {
	var cues []Cue
	idx := 1

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		words := strings.Fields(text)
		if len(words) <= MaxWordsPerCue {
			cues = append(cues, Cue{Index: idx, Start: seg.Start, End: seg.End, Text: text})
			idx++
			continue
		}

		groupCount := (len(words) + MaxWordsPerCue - 1) / MaxWordsPerCue
		groupDur := (seg.End - seg.Start) / float64(groupCount)

		for g := 0; g < groupCount; g++ {
			lo := g * MaxWordsPerCue
			hi := lo + MaxWordsPerCue
			if hi > len(words) {
				hi = len(words)
			}

			start := seg.Start + float64(g)*groupDur
			end := seg.Start + float64(g+1)*groupDur
			if end > seg.End || g == groupCount-1 {
				end = seg.End
			}

			cues = append(cues, Cue{
				Index: idx,
				Start: start,
				End:   end,
				Text:  strings.Join(words[lo:hi], " "),
			})
			idx++
		}
	}

	return cues
}

// FormatSRTTime converts seconds to an SRT timestamp (HH:MM:SS,mmm).
// Negative inputs clamp to zero.
func FormatSRTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(seconds*1000 + 0.5)
	millis := total % 1000
	whole := total / 1000
	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := whole % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// WriteSRT writes the cues as a numbered SRT caption track.
func WriteSRT(cues []Cue, path string) error {
	if len(cues) == 0 {
		return fmt.Errorf("no cues to write: no speech detected")
	}

	var b strings.Builder
	for _, cue := range cues {
		fmt.Fprintf(&b, "%d\n", cue.Index)
		fmt.Fprintf(&b, "%s --> %s\n", FormatSRTTime(cue.Start), FormatSRTTime(cue.End))
		fmt.Fprintf(&b, "%s\n\n", cue.Text)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write caption track: %w", err)
	}
	return nil
}
