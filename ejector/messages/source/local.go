package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DirReader reads message files from a local directory. Subdirectories and
// dotfiles are skipped. Files come back in lexicographic name order.
type DirReader struct{}

// ReadFolder implements Reader.
func (*DirReader) ReadFolder(_ context.Context, location string) ([]File, error) {
	entries, err := os.ReadDir(location)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read directory %s", location)
	}
	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(location, entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "could not read file %s", entry.Name())
		}
		files = append(files, File{Name: entry.Name(), Content: content})
	}
	return files, nil
}
