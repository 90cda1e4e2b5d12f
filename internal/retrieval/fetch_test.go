package retrieval

import "testing"

func TestLooksLikeMediaURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example.com/clip.mp4", true},
		{"https://cdn.example.com/clip.MP4", true},
		{"https://cdn.example.com/clip.webm?token=abc", true},
		{"https://cdn.example.com/clip.mov#t=10", true},
		{"https://example.com/watch?v=abc", false},
		{"https://example.com/videos/123", false},
		{"https://example.com/page.html", false},
	}

	for _, tt := range tests {
		if got := looksLikeMediaURL(tt.url); got != tt.want {
			t.Errorf("looksLikeMediaURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
