package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxFileSize guards against pointing the loader at something that is clearly not the resource.
const maxFileSize = 64 << 20

// ValidateFile checks that path looks like a dataset resource before it is read.
func ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat dataset %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidDataset, path)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".json" {
		return fmt.Errorf("%w: %s has extension %q (expected .json)", ErrInvalidDataset, path, ext)
	}
	// smallest valid resource is "{}"
	if info.Size() < 2 {
		return fmt.Errorf("%w: %s is too small (%d bytes)", ErrInvalidDataset, path, info.Size())
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("%w: %s is too large (%d bytes)", ErrInvalidDataset, path, info.Size())
	}
	return nil
}
