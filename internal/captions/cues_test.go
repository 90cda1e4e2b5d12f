package captions

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scrideo/scrideo/internal/types"
)

func TestBuildCues_ShortSegmentKeepsInterval(t *testing.T) {
	cues := BuildCues([]types.Segment{
		{Start: 5, End: 12, Text: "hello world"},
	})

	if len(cues) != 1 {
		t.Fatalf("got %d cues, want 1", len(cues))
	}
	if cues[0].Start != 5 || cues[0].End != 12 {
		t.Errorf("interval = [%v, %v], want [5, 12]", cues[0].Start, cues[0].End)
	}
	if cues[0].Text != "hello world" {
		t.Errorf("text = %q", cues[0].Text)
	}
	if cues[0].Index != 1 {
		t.Errorf("index = %d, want 1", cues[0].Index)
	}
}

func TestBuildCues_LongSegmentPartitionsInterval(t *testing.T) {
	// 9 words over [0, 5] splits into ceil(9/7) = 2 cues.
	seg := types.Segment{Start: 0, End: 5, Text: "the quick brown fox jumps over the lazy dog"}
	cues := BuildCues([]types.Segment{seg})

	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if cues[0].Text != "the quick brown fox jumps over the" {
		t.Errorf("first cue text = %q", cues[0].Text)
	}
	if cues[1].Text != "lazy dog" {
		t.Errorf("second cue text = %q", cues[1].Text)
	}

	// Duration divides evenly across the groups.
	if math.Abs(cues[0].End-2.5) > 1e-9 {
		t.Errorf("first cue end = %v, want 2.5", cues[0].End)
	}

	// The interval partitions exactly: no gap, no overlap, last end clamped.
	if cues[0].Start != seg.Start {
		t.Errorf("first cue start = %v, want %v", cues[0].Start, seg.Start)
	}
	if cues[0].End != cues[1].Start {
		t.Errorf("gap between cues: %v != %v", cues[0].End, cues[1].Start)
	}
	if cues[1].End != seg.End {
		t.Errorf("last cue end = %v, want clamped to %v", cues[1].End, seg.End)
	}
}

func TestBuildCues_CueCountMatchesWordCount(t *testing.T) {
	words := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		words = append(words, "word")
	}
	cues := BuildCues([]types.Segment{
		{Start: 0, End: 30, Text: strings.Join(words, " ")},
	})

	want := 5 // ceil(30/7)
	if len(cues) != want {
		t.Fatalf("got %d cues, want %d", len(cues), want)
	}
	for i := 1; i < len(cues); i++ {
		if cues[i].Start != cues[i-1].End {
			t.Errorf("cue %d starts at %v, previous ends at %v", i, cues[i].Start, cues[i-1].End)
		}
	}
	if cues[len(cues)-1].End != 30 {
		t.Errorf("last end = %v, want 30", cues[len(cues)-1].End)
	}
}

func TestBuildCues_SkipsBlankSegmentsAndKeepsRunningIndex(t *testing.T) {
	cues := BuildCues([]types.Segment{
		{Start: 0, End: 1, Text: "one"},
		{Start: 1, End: 2, Text: "   "},
		{Start: 2, End: 3, Text: ""},
		{Start: 3, End: 4, Text: "two"},
	})

	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if cues[0].Index != 1 || cues[1].Index != 2 {
		t.Errorf("indexes = %d, %d; want 1, 2", cues[0].Index, cues[1].Index)
	}
}

func TestFormatSRTTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{62.34, "00:01:02,340"},
		{3661.5, "01:01:01,500"},
		{-1, "00:00:00,000"},
		{4.375, "00:00:04,375"},
	}

	for _, tt := range tests {
		if got := FormatSRTTime(tt.seconds); got != tt.want {
			t.Errorf("FormatSRTTime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestWriteSRT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions.srt")
	cues := []Cue{
		{Index: 1, Start: 0, End: 2.5, Text: "hello there"},
		{Index: 2, Start: 2.5, End: 5, Text: "general caption"},
	}

	if err := WriteSRT(cues, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	want := "1\n00:00:00,000 --> 00:00:02,500\nhello there\n\n" +
		"2\n00:00:02,500 --> 00:00:05,000\ngeneral caption\n\n"
	if string(data) != want {
		t.Errorf("SRT output = %q, want %q", string(data), want)
	}
}

func TestWriteSRT_EmptyCuesFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions.srt")
	if err := WriteSRT(nil, path); err == nil {
		t.Fatal("expected error for empty cue list")
	}
}
