package treebank

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format converts between a treebank file format and Trees.
type Format interface {
	Name() string
	Read(r io.Reader) ([]*Tree, error)
	Write(w io.Writer, t *Tree) error
}

// SupportedExtensions lists file extensions with a known format.
var SupportedExtensions = map[string]bool{
	".mrg":         true,
	".tree":        true,
	".bracket":     true,
	".discbracket": true,
	".export":      true,
	".negra":       true,
}

// ForFile returns the format for a filename based on its extension.
func ForFile(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mrg", ".tree", ".bracket", ".discbracket":
		return BracketFormat{}, nil
	case ".export", ".negra":
		return ExportFormat{}, nil
	default:
		return nil, fmt.Errorf("unsupported treebank extension: %q", ext)
	}
}

// ForName returns the format registered under name ("bracket" or "export").
func ForName(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "bracket", "discbracket", "mrg":
		return BracketFormat{}, nil
	case "export", "negra":
		return ExportFormat{}, nil
	default:
		return nil, fmt.Errorf("unknown treebank format: %q", name)
	}
}

// Resolve picks the format named by name, falling back to the extension of
// filename when name is empty.
func Resolve(name, filename string) (Format, error) {
	if name != "" {
		return ForName(name)
	}
	return ForFile(filename)
}

// IsSupportedExtension checks if a file extension maps to a format.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Load reads every tree from path using format f.
func Load(path string, f Format) ([]*Tree, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	trees, err := f.Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trees, nil
}

// WriteAll writes trees in order using format f.
func WriteAll(w io.Writer, f Format, trees []*Tree) error {
	for _, t := range trees {
		if err := f.Write(w, t); err != nil {
			return err
		}
	}
	return nil
}
