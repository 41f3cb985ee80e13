// Package loader reads Scribe configuration sources into maps.
//
// Sources are TOML files and SCRIBE_ environment variables. Each loader
// returns a nested map; maps are combined with DeepMerge, later sources
// overriding earlier ones.
package loader

import (
	"io/fs"
	"os"
)

// Loader reads one configuration source. A source that does not exist
// yields nil, nil.
type Loader interface {
	Load() (map[string]any, error)
}

// LoadAll loads every source in order and merges the results, later
// sources winning.
func LoadAll(sources ...Loader) (map[string]any, error) {
	merged := make(map[string]any)
	for _, src := range sources {
		data, err := src.Load()
		if err != nil {
			return nil, err
		}
		merged = DeepMerge(merged, data)
	}
	return merged, nil
}

// FileSystem is the file access the TOML loader needs.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

type osFS struct{}

func (osFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (osFS) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

// DefaultFS returns the OS file system.
func DefaultFS() FileSystem {
	return osFS{}
}
