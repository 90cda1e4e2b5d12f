package captions

import (
	"strings"
	"testing"
)

func TestConvertSRTTimeToASS(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"00:01:02,340", "0:01:02.34"},
		{"00:00:00,000", "0:00:00.00"},
		{"01:30:45,500", "1:30:45.50"},
		{"12:05:09,999", "12:05:10.00"}, // millis round to centis
		{"00:00:04,375", "0:00:04.38"},
	}

	for _, tt := range tests {
		got, err := ConvertSRTTimeToASS(tt.in)
		if err != nil {
			t.Fatalf("ConvertSRTTimeToASS(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ConvertSRTTimeToASS(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConvertSRTTimeToASS_Malformed(t *testing.T) {
	for _, in := range []string{"", "12:34", "aa:bb:cc,ddd", "1:2:3:4,5"} {
		if _, err := ConvertSRTTimeToASS(in); err == nil {
			t.Errorf("ConvertSRTTimeToASS(%q): expected error", in)
		}
	}
}

func TestBuildASS_SingleStyleAndEventPerCue(t *testing.T) {
	cues := []Cue{
		{Index: 1, Start: 0, End: 2.5, Text: "hello there"},
		{Index: 2, Start: 2.5, End: 5, Text: "general caption"},
	}

	doc, err := BuildASS(cues, Settings{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := strings.Count(doc, "Style: Default,"); got != 1 {
		t.Errorf("style blocks = %d, want exactly 1", got)
	}
	if got := strings.Count(doc, "Dialogue: 0,"); got != len(cues) {
		t.Errorf("dialogue events = %d, want %d", got, len(cues))
	}
	if !strings.Contains(doc, "Dialogue: 0,0:00:00.00,0:00:02.50,Default,,0,0,0,,hello there") {
		t.Errorf("missing first dialogue line in:\n%s", doc)
	}
}

func TestBuildASS_DefaultStyleLine(t *testing.T) {
	doc, err := BuildASS([]Cue{{Index: 1, Start: 0, End: 1, Text: "hi"}}, Settings{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Defaults: Arial 20pt, white text, transparent background, outline
	// border, bottom-center anchor with 10/10/30 margins.
	want := "Style: Default,Arial,20,&H00FFFFFF,&H00FFFFFF,&H00000000,&H00FFFFFF,0,0,0,0,100,100,0,0,1,2,0,2,10,10,30,1"
	if !strings.Contains(doc, want) {
		t.Errorf("style line missing.\nwant: %s\ngot:\n%s", want, doc)
	}
}

func TestBuildASS_StyledLine(t *testing.T) {
	s := Settings{
		FontSizePt:      28,
		TextColor:       "yellow",
		BackgroundColor: "semi-transparent",
		FontFamily:      "impact",
		FontStyle:       "bold-italic",
		Position:        "top-left",
		Alignment:       "right", // ignored: the corner pins left
	}

	doc, err := BuildASS([]Cue{{Index: 1, Start: 0, End: 1, Text: "hi"}}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Style: Default,Impact,28,&H0000FFFF,&H0000FFFF,&H00000000,&H80000000,-1,-1,0,0,100,100,0,0,4,3,0,7,30,10,30,1"
	if !strings.Contains(doc, want) {
		t.Errorf("style line missing.\nwant: %s\ngot:\n%s", want, doc)
	}
}

func TestBuildASS_EmptyCuesFails(t *testing.T) {
	if _, err := BuildASS(nil, Settings{}); err == nil {
		t.Fatal("expected error for empty cue list")
	}
}

func TestBuildASS_Deterministic(t *testing.T) {
	cues := []Cue{{Index: 1, Start: 1.25, End: 3.75, Text: "same thing"}}
	s := Settings{Position: "middle", Alignment: "left"}

	first, err := BuildASS(cues, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildASS(cues, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("same input produced different documents")
	}
}
