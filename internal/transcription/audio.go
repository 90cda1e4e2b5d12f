package transcription

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// ExtractAudio pulls the audio track out of a video as 16kHz mono WAV, the
// input format Whisper wants.
func ExtractAudio(mediaPath, workDir string) (string, error) {
	outputPath := filepath.Join(workDir, fmt.Sprintf("audio_%s.wav", uuid.New().String()))

	cmd := exec.Command("ffmpeg",
		"-i", mediaPath,
		"-vn", // drop the video stream
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg failed: %v\nOutput: %s", err, string(output))
	}

	return outputPath, nil
}
