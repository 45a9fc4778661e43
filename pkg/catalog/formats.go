package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents the supported catalog file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatJSON               // JSON array or {"products": [...]}
	FormatYAML               // YAML list or {products: [...]}
	FormatMsgpack            // msgpack array, see WriteMsgpack
	FormatSQLite             // SQLite database with a products table
)

// ErrUnknownFormat is returned for files whose format can't be detected.
var ErrUnknownFormat = errors.New("unknown catalog format")

// FormatInfo contains metadata about a catalog file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatJSON: {
		Format:      FormatJSON,
		Description: "JSON Catalog",
		Extensions:  []string{".json"},
		MinSize:     2, // []
	},
	FormatYAML: {
		Format:      FormatYAML,
		Description: "YAML Catalog",
		Extensions:  []string{".yaml", ".yml"},
		MinSize:     2,
	},
	FormatMsgpack: {
		Format:      FormatMsgpack,
		Description: "Msgpack Catalog",
		Extensions:  []string{".msgpack", ".mpk"},
		MinSize:     1, // array header
	},
	FormatSQLite: {
		Format:      FormatSQLite,
		Description: "SQLite Catalog",
		Extensions:  []string{".db", ".sqlite", ".sqlite3"},
		MinSize:     100, // sqlite header page
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "Unknown"
}

// DetectFormat picks the format from the file extension.
func DetectFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for format, info := range supportedFormats {
		for _, e := range info.Extensions {
			if e == ext {
				return format, nil
			}
		}
	}
	return FormatUnknown, fmt.Errorf("%s: %w (supported: %s)",
		filename, ErrUnknownFormat, strings.Join(SupportedExtensions(), " "))
}

// SupportedExtensions lists the recognised extensions in format order.
func SupportedExtensions() []string {
	var out []string
	for f := FormatJSON; f <= FormatSQLite; f++ {
		if info, ok := GetFormatInfo(f); ok {
			out = append(out, info.Extensions...)
		}
	}
	return out
}

// ValidateFile checks that a file exists and is large enough for its format
func ValidateFile(filename string, format FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	if fileInfo.IsDir() {
		return fmt.Errorf("%s is a directory", filename)
	}

	formatInfo, exists := supportedFormats[format]
	if !exists {
		return fmt.Errorf("%s: %w", filename, ErrUnknownFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	log.Debugf("Catalog file %s validated as %s", filename, formatInfo.Description)
	return nil
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}
