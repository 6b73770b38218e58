// Package dataset turns demo names, local files and uploads into tables.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabdash/internal/table"
)

// Loader reads one tabular file format.
type Loader interface {
	CanLoad(name string) bool
	Load(r io.Reader, name string) (*table.Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no registered loader accepts the file name.
var ErrUnsupported = errors.New("unsupported file format")

// LoaderFor selects a loader based on the file name.
func LoaderFor(name string) (Loader, error) {
	for _, l := range registry {
		if l.CanLoad(name) {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(name))
}

// Load reads r with the loader registered for name.
func Load(r io.Reader, name string) (*table.Table, error) {
	return LoadWith(r, name, Options{})
}

// Options tune how a single file is parsed.
type Options struct {
	Read table.ReadOptions
	// Sheet selects an XLSX worksheet by name; empty means the first one.
	Sheet string
}

// LoadWith reads r like Load, applying opt to the built-in loaders.
func LoadWith(r io.Reader, name string, opt Options) (*table.Table, error) {
	l, err := LoaderFor(name)
	if err != nil {
		return nil, err
	}
	switch l.(type) {
	case csvLoader:
		l = csvLoader{opt: opt.Read}
	case xlsxLoader:
		l = xlsxLoader{Sheet: opt.Sheet, opt: opt.Read}
	}
	return l.Load(r, name)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

// csvLoader handles comma and tab separated text. The delimiter follows the extension.
type csvLoader struct {
	opt table.ReadOptions
}

func (csvLoader) CanLoad(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

func (c csvLoader) Load(r io.Reader, name string) (*table.Table, error) {
	t, err := table.ReadCSV(r, baseName(name), c.opt)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return t, nil
}

func baseName(name string) string {
	if name == "" {
		return "upload"
	}
	return filepath.Base(name)
}
