package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// ============================================================================
// Formats
// ============================================================================

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"text", FormatText, false},
		{"txt", FormatText, false},
		{"docx", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]Format{
		"doc.json":  FormatJSON,
		"doc.yaml":  FormatYAML,
		"doc.YML":   FormatYAML,
		"notes.txt": FormatText,
		"doc":       FormatJSON,
		"-":         FormatJSON,
	}
	for path, want := range tests {
		if got := FormatForPath(path); got != want {
			t.Errorf("FormatForPath(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestDecodeTextUnsupported(t *testing.T) {
	if _, err := DecodeDocument([]byte("hello"), FormatText); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("DecodeDocument() error = %v, want ErrUnsupportedFormat", err)
	}
}

// ============================================================================
// Files
// ============================================================================

func TestWriteReadDocument(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"doc.json", "doc.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := WriteDocument(path, titleDoc(), FormatForPath(path)); err != nil {
				t.Fatalf("WriteDocument() error = %v", err)
			}
			got, err := ReadDocument(path)
			if err != nil {
				t.Fatalf("ReadDocument() error = %v", err)
			}
			if !got.Eq(titleDoc()) {
				t.Errorf("ReadDocument() = %s, want %s", got, titleDoc())
			}
		})
	}
}

func TestWriteText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := WriteDocument(path, titleDoc(), FormatText); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Title\nHello world\n" {
		t.Errorf("content = %q", data)
	}
}

func TestReadDocumentErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadDocument(filepath.Join(dir, "missing.json"))
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Op != "read" || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadDocument(missing) error = %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"type": "chapter"}`), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = ReadDocument(bad)
	if !errors.As(err, &oe) || oe.Op != "decode" {
		t.Errorf("ReadDocument(bad) error = %v", err)
	}
}
