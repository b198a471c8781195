// Package export writes generated artifacts to disk.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/autodoc-cli/autodoc/pkg/domain"
)

// ErrEmptyPDF is returned when there are no PDF bytes to save.
var ErrEmptyPDF = errors.New("empty pdf")

// SavePDF writes data to dir/Generated_Documentation.pdf, creating dir, and
// returns the written path. An existing file is replaced atomically.
func SavePDF(dir string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("export.SavePDF: %w", ErrEmptyPDF)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export.SavePDF: create dir: %w", err)
	}
	path := filepath.Join(dir, domain.PDFFileName)

	tmp, err := os.CreateTemp(dir, ".autodoc-*.pdf")
	if err != nil {
		return "", fmt.Errorf("export.SavePDF: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return "", fmt.Errorf("export.SavePDF: write: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close() //nolint:errcheck
		return "", fmt.Errorf("export.SavePDF: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("export.SavePDF: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("export.SavePDF: rename: %w", err)
	}
	return path, nil
}
