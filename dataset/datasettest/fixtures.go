// Package datasettest writes XML keypoint fixtures for tests.
package datasettest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Keypoints is a small keypoint set used by the fixtures.
var Keypoints = []string{"nose", "neck", "right_wrist", "left_wrist"}

// SequenceXML renders frames complete frames of the given keypoints. Points
// move on a diagonal so consecutive frames rasterize differently.
func SequenceXML(frames int, keypoints []string) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\"?>\n<sequence>\n")
	for f := 0; f < frames; f++ {
		fmt.Fprintf(&b, "  <frame index=\"%d\">\n", f)
		for k, name := range keypoints {
			x := float64(f%10+1) / 12
			y := float64(k+1) / float64(len(keypoints)+1)
			fmt.Fprintf(&b, "    <keypoint name=%q x=\"%g\" y=\"%g\" score=\"0.9\"/>\n", name, x, y)
		}
		b.WriteString("  </frame>\n")
	}
	b.WriteString("</sequence>\n")
	return b.String()
}

// WriteFile writes content to root/rel, creating parent directories.
func WriteFile(t testing.TB, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteSequence writes a complete sequence of the fixture keypoints.
func WriteSequence(t testing.TB, root, rel string, frames int) string {
	t.Helper()
	return WriteFile(t, root, rel, SequenceXML(frames, Keypoints))
}

// TwoClassRoot creates root/A/a.xml and root/B/b.xml with frames frames each.
func TwoClassRoot(t testing.TB, frames int) string {
	t.Helper()
	root := t.TempDir()
	WriteSequence(t, root, filepath.Join("A", "a.xml"), frames)
	WriteSequence(t, root, filepath.Join("B", "b.xml"), frames)
	return root
}
