package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/posegrid/dataset/datasettest"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	return datasettest.WriteFile(t, dir, "posegrid.yaml", `
pipeline:
  interpolation_frames: 1
  noise_frames: 1
  used_keypoints: [nose, neck, right_wrist, left_wrist]
split:
  train: 0.5
  validation_share: 0.5
  seed: 3
log_level: error
`)
}

func TestRunBuildsThenLoads(t *testing.T) {
	dir := t.TempDir()
	root := datasettest.TwoClassRoot(t, 10)
	cfgPath := writeConfig(t, dir)
	cacheRoot := filepath.Join(dir, "cache")
	args := []string{"-config", cfgPath, "-xml-root", root, "-cache-root", cacheRoot}

	var out, errOut bytes.Buffer
	require.NoError(t, run(args, &out, &errOut))
	assert.Contains(t, out.String(), "samples:    16 (22x32)")
	assert.Contains(t, out.String(), "split:      train=8 validation=4 test=4")

	entries, err := os.ReadDir(cacheRoot)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	out.Reset()
	require.NoError(t, os.RemoveAll(root))
	require.NoError(t, run(args, &out, &errOut))
	assert.Contains(t, out.String(), "samples:    16")
}

func TestRunPreviewAndRebuild(t *testing.T) {
	dir := t.TempDir()
	root := datasettest.TwoClassRoot(t, 10)
	previews := filepath.Join(dir, "previews")
	args := []string{
		"-config", writeConfig(t, dir),
		"-xml-root", root,
		"-cache-root", filepath.Join(dir, "cache"),
		"-rebuild", "-stratified",
		"-preview-dir", previews, "-preview-n", "2",
	}

	var out, errOut bytes.Buffer
	require.NoError(t, run(args, &out, &errOut))
	assert.Contains(t, out.String(), "previews:   2 written")
	files, err := os.ReadDir(previews)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	err := run([]string{"-config", filepath.Join(dir, "missing.yaml")}, &out, &errOut)
	assert.Error(t, err)

	err = run([]string{"-xml-root", filepath.Join(dir, "none"), "-cache-root", dir, "-log-level", "error"}, &out, &errOut)
	assert.ErrorContains(t, err, "does not exist")

	err = run([]string{"-workers", "-2"}, &out, &errOut)
	assert.Error(t, err)

	err = run([]string{"-h"}, &out, &errOut)
	assert.ErrorIs(t, err, flag.ErrHelp)
}
