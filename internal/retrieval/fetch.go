package retrieval

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Fetcher downloads a remote video. The primary strategy is yt-dlp; when
// that fails (unsupported site, missing binary) it degrades to resolving
// the page with headless Chrome and downloading the direct media URL over
// HTTP. From the caller's view it is one blocking call.
type Fetcher struct {
	timeout time.Duration
}

// NewFetcher creates a fetcher with a per-download wall-clock bound.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{timeout: timeout}
}

// Fetch downloads the video behind rawURL to destPath and returns its
// title, empty when no title could be resolved.
func (f *Fetcher) Fetch(rawURL, destPath string) (string, error) {
	title, err := f.fetchWithYtDlp(rawURL, destPath)
	if err == nil {
		return title, nil
	}
	log.Printf("yt-dlp fetch failed (%v), falling back to direct download", err)

	return f.fetchDirect(rawURL, destPath)
}

// fetchWithYtDlp uses yt-dlp to download the video (preferred: it handles
// every major hosting site and picks a sane mp4).
func (f *Fetcher) fetchWithYtDlp(rawURL, destPath string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "yt-dlp",
		"-f", "mp4/best",
		"--no-playlist",
		"--print", "after_move:title",
		"--no-simulate",
		"-o", destPath,
		rawURL,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("yt-dlp failed: %v\nOutput: %s", err, string(output))
	}

	if info, err := os.Stat(destPath); err != nil || info.Size() == 0 {
		return "", fmt.Errorf("yt-dlp produced no output file")
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	title := strings.TrimSpace(lines[len(lines)-1])
	log.Printf("Video downloaded via yt-dlp: %s", title)
	return title, nil
}

// fetchDirect resolves the page in headless Chrome to learn its title and a
// direct media URL (og:video or the first <video> source), then streams the
// media over HTTP. When the URL already points at a media file the page
// resolution is skipped.
func (f *Fetcher) fetchDirect(rawURL, destPath string) (string, error) {
	mediaURL := rawURL
	title := ""

	if !looksLikeMediaURL(rawURL) {
		resolved, resolvedTitle, err := f.resolvePage(rawURL)
		if err != nil {
			return "", fmt.Errorf("failed to resolve video page: %v", err)
		}
		mediaURL = resolved
		title = resolvedTitle
	}

	client := &http.Client{Timeout: f.timeout}
	resp, err := client.Get(mediaURL)
	if err != nil {
		return "", fmt.Errorf("failed to download video: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("video not accessible (HTTP %d)", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %v", err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to write downloaded video: %v", err)
	}
	if n == 0 {
		return "", fmt.Errorf("downloaded video is empty")
	}

	log.Printf("Video downloaded directly (%d bytes)", n)
	return title, nil
}

// resolvePage loads the URL in headless Chrome and extracts the page title
// plus a direct media URL.
func (f *Fetcher) resolvePage(rawURL string) (mediaURL, title string, err error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, f.timeout)
	defer cancel()

	err = chromedp.Run(ctx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second), // let the player mount
		chromedp.Evaluate(`document.title`, &title),
		chromedp.Evaluate(`
			(function() {
				var og = document.querySelector('meta[property="og:video"], meta[property="og:video:url"]');
				if (og && og.content) return og.content;
				var v = document.querySelector('video source[src], video[src]');
				if (v) return v.src || v.getAttribute('src');
				return "";
			})()
		`, &mediaURL, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return "", "", err
	}
	if mediaURL == "" {
		return "", "", fmt.Errorf("no direct media URL found on page")
	}
	return mediaURL, strings.TrimSpace(title), nil
}

// looksLikeMediaURL reports whether the URL path already names a media file.
func looksLikeMediaURL(rawURL string) bool {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	for _, ext := range []string{".mp4", ".mov", ".mkv", ".webm", ".m4v", ".avi"} {
		if strings.HasSuffix(strings.ToLower(trimmed), ext) {
			return true
		}
	}
	return false
}
