package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/YuminosukeSato/posegrid/pkg/errors"
	"github.com/YuminosukeSato/posegrid/pkg/log"
)

// ClassFolders returns the immediate subdirectories of root sorted by name.
// The position of a folder in the result is its label.
func ClassFolders(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.NewDatasetBuildError(root, "root directory does not exist", err)
	}
	if !info.IsDir() {
		return nil, errors.NewDatasetBuildError(root, "root is not a directory", nil)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.NewDatasetBuildError(root, "cannot list root directory", err)
	}

	var folders []string
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		}
	}
	if len(folders) == 0 {
		return nil, errors.NewDatasetBuildError(root, "no class folders", nil)
	}
	sort.Strings(folders)
	return folders, nil
}

// xmlFiles returns the .xml regular files of dir sorted by name.
func xmlFiles(dir string, logger log.Logger) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewDatasetBuildError(dir, "cannot list class folder", err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			logger.Debug("skipping non-XML entry", log.FilePathKey, filepath.Join(dir, e.Name()))
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	for i, name := range files {
		files[i] = filepath.Join(dir, name)
	}
	return files, nil
}
