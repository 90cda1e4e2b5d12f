package transcription

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/scrideo/scrideo/internal/types"
)

// WhisperTranscriber wraps Python's OpenAI Whisper for transcription
type WhisperTranscriber struct {
	modelName string
	workDir   string
}

// NewWhisperTranscriber creates a transcriber that shells out to
// python -m whisper. workDir holds the per-run JSON output directories.
func NewWhisperTranscriber(modelPath, workDir string) (*WhisperTranscriber, error) {
	// The config carries a model path (e.g. "ggml-small.bin"); Python
	// Whisper wants a model name, so extract it.
	modelName := "small"
	for _, name := range []string{"tiny", "base", "small", "medium", "large"} {
		if strings.Contains(modelPath, name) {
			modelName = name
			break
		}
	}

	log.Printf("Initializing Python Whisper with model: %s", modelName)
	log.Printf("Note: Whisper availability will be verified on first transcription")

	return &WhisperTranscriber{
		modelName: modelName,
		workDir:   workDir,
	}, nil
}

// Transcribe extracts the audio track, runs Whisper over it and returns the
// timed speech segments. An empty segment list means no recognizable
// speech; that is returned as an error so the job fails with a clear
// message.
func (wt *WhisperTranscriber) Transcribe(mediaPath, language string) (*types.TranscribeResult, error) {
	audioPath, err := ExtractAudio(mediaPath, wt.workDir)
	if err != nil {
		return nil, fmt.Errorf("audio extraction failed: %v", err)
	}
	defer os.Remove(audioPath)

	outDir, err := os.MkdirTemp(wt.workDir, "whisper_output_")
	if err != nil {
		return nil, fmt.Errorf("failed to create whisper output dir: %v", err)
	}
	defer os.RemoveAll(outDir)

	absAudioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %v", err)
	}

	cmd := exec.Command("python", "-m", "whisper",
		absAudioPath,
		"--model", wt.modelName,
		"--output_dir", outDir,
		"--output_format", "json",
		"--language", language,
		"--fp16", "False", // CPU compatibility
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %v\nOutput: %s", err, string(output))
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outDir, baseName+".json")

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %v", err)
	}

	var whisperOutput WhisperOutput
	if err := json.Unmarshal(jsonData, &whisperOutput); err != nil {
		return nil, fmt.Errorf("failed to parse whisper JSON: %v", err)
	}

	if len(whisperOutput.Segments) == 0 {
		return nil, fmt.Errorf("no speech detected")
	}

	segments := make([]types.Segment, len(whisperOutput.Segments))
	for i, seg := range whisperOutput.Segments {
		segments[i] = types.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
	}

	// Duration is the last segment's end time. Trailing silence after the
	// last detected speech is not counted.
	duration := segments[len(segments)-1].End

	result := &types.TranscribeResult{
		Text:     strings.TrimSpace(whisperOutput.Text),
		Language: whisperOutput.Language,
		Duration: duration,
		Segments: segments,
	}

	log.Printf("Transcription completed: %d segments, %.2fs duration", len(segments), duration)
	return result, nil
}

// WhisperOutput matches Python Whisper's JSON output format
type WhisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []WhisperSegment `json:"segments"`
}

// WhisperSegment represents a timestamped segment from Whisper
type WhisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
