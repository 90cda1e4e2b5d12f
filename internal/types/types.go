package types

// Job status constants
const (
	StatusReceived          = "RECEIVED"
	StatusDownloading       = "DOWNLOADING"
	StatusTranscribing      = "TRANSCRIBING"
	StatusCompilingCaptions = "COMPILING_CAPTIONS"
	StatusRendering         = "RENDERING"
	StatusCompleted         = "COMPLETED"
	StatusFailed            = "FAILED"
)

// Source type constants
const (
	SourceUpload = "upload"
	SourceURL    = "url"
)

// statusRank orders the pipeline stages. Terminal states rank highest so a
// completed or failed job can never move again.
var statusRank = map[string]int{
	StatusReceived:          0,
	StatusDownloading:       1,
	StatusTranscribing:      2,
	StatusCompilingCaptions: 3,
	StatusRendering:         4,
	StatusCompleted:         5,
	StatusFailed:            5,
}

// StatusRank returns the pipeline position of a status, -1 if unknown.
func StatusRank(status string) int {
	rank, ok := statusRank[status]
	if !ok {
		return -1
	}
	return rank
}

// IsTerminal reports whether a job in this status will never transition again.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// Segment is a timestamped span of recognized speech from the transcriber.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscribeResult is the output of one transcription run.
type TranscribeResult struct {
	Text     string
	Language string
	Duration float64
	Segments []Segment
}
