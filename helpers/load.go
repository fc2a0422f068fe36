package helpers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spektr-org/pulse/table"
)

// ErrUnsupportedFormat is returned for file types no loader understands.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// LoadFile reads a .csv, .txt or .xlsx file. sheet only applies to workbooks.
func LoadFile(path, sheet string) (table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table.Table{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Load(filepath.Base(path), f, sheet)
}

// Load picks a parser by the file name's extension.
func Load(name string, r io.Reader, sheet string) (table.Table, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv", ".txt":
		data, err := io.ReadAll(r)
		if err != nil {
			return table.Table{}, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return ParseCSV(data)
	case ".xlsx", ".xlsm":
		return ParseXLSX(r, sheet)
	case ".xls":
		return table.Table{}, fmt.Errorf("%w: %s (save as .xlsx)", ErrUnsupportedFormat, ext)
	default:
		return table.Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// LoadBytes is Load over an in-memory upload.
func LoadBytes(name string, data []byte, sheet string) (table.Table, error) {
	return Load(name, bytes.NewReader(data), sheet)
}
