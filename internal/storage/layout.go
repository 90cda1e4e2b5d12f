package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Layout is the managed temporary tree all job files live under: inbound
// holds originals and intermediate caption files, outbound holds rendered
// videos. Every file name starts with the owning job's id so a job's files
// can be grouped and evicted together.
type Layout struct {
	root     string
	inbound  string
	outbound string
}

// NewLayout creates the managed root and its two areas.
func NewLayout(root string) (*Layout, error) {
	l := &Layout{
		root:     root,
		inbound:  filepath.Join(root, "inbound"),
		outbound: filepath.Join(root, "outbound"),
	}
	for _, dir := range []string{l.inbound, l.outbound} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage area %s: %w", dir, err)
		}
	}
	log.Printf("Storage root ready: %s", root)
	return l, nil
}

// Root returns the managed root directory.
func (l *Layout) Root() string {
	return l.root
}

// InboundPath names a file in the originals area for a job.
func (l *Layout) InboundPath(jobID, name string) string {
	return filepath.Join(l.inbound, jobID+"_"+name)
}

// OutboundPath names a file in the rendered-artifacts area for a job.
func (l *Layout) OutboundPath(jobID, name string) string {
	return filepath.Join(l.outbound, jobID+"_"+name)
}

// RemoveJobFiles deletes every file in both areas whose name carries the
// job's id prefix. Individual deletion failures are logged and skipped.
func (l *Layout) RemoveJobFiles(jobID string) {
	for _, dir := range []string{l.inbound, l.outbound} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Printf("Failed to scan %s: %v", dir, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasPrefix(entry.Name(), jobID+"_") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Printf("Failed to delete %s: %v", path, err)
			}
		}
	}
}

// RemoveFile best-effort deletes a single transient file.
func (l *Layout) RemoveFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to cleanup file %s: %v", path, err)
	}
}

// Teardown recursively removes the managed root at shutdown.
func (l *Layout) Teardown() {
	if err := os.RemoveAll(l.root); err != nil {
		log.Printf("Failed to remove storage root %s: %v", l.root, err)
	}
}
