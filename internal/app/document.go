package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/dshills/scribe/internal/engine/model"
)

// Format is a document serialization.
type Format uint8

const (
	// FormatJSON is the node tree as JSON.
	FormatJSON Format = iota
	// FormatYAML is the node tree as YAML.
	FormatYAML
	// FormatText is the plain text of the document, one line per block.
	// It can be written but not read.
	FormatText
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatText:
		return "text"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatForPath picks a format from the file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatJSON
	}
	return f
}

// DecodeDocument parses a document in the given format.
func DecodeDocument(data []byte, f Format) (*model.Node, error) {
	switch f {
	case FormatJSON:
		return model.NodeFromJSON(data)
	case FormatYAML:
		return model.NodeFromYAML(data)
	default:
		return nil, fmt.Errorf("%w: cannot read %s", ErrUnsupportedFormat, f)
	}
}

// EncodeDocument serializes doc in the given format.
func EncodeDocument(doc *model.Node, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatText:
		return []byte(doc.TextBetween(0, doc.ContentSize(), "\n") + "\n"), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// ReadDocument loads a document file. "-" reads stdin as JSON.
func ReadDocument(path string) (*model.Node, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, wrap("read", path, err)
	}
	doc, err := DecodeDocument(data, FormatForPath(path))
	return doc, wrap("decode", path, err)
}

// WriteDocument writes doc to path atomically. An empty path or "-" writes
// to stdout.
func WriteDocument(path string, doc *model.Node, f Format) error {
	data, err := EncodeDocument(doc, f)
	if err != nil {
		return wrap("encode", path, err)
	}
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return wrap("write", "stdout", err)
	}
	return wrap("write", path, atomic.WriteFile(path, bytes.NewReader(data)))
}
