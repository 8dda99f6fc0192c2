package asset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// manifestFile is the on-disk manifest layout shared by JSON and TOML files.
type manifestFile struct {
	Assets []Descriptor `json:"assets" toml:"asset"`
}

// LoadFile reads a manifest from path. Files ending in .toml are decoded as
// TOML ([[asset]] tables), everything else as JSON ({"assets": [...]}).
func LoadFile(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data, strings.EqualFold(filepath.Ext(path), ".toml"))
}

// Parse decodes manifest bytes. Descriptors with an empty URL are rejected.
func Parse(data []byte, isTOML bool) ([]Descriptor, error) {
	var mf manifestFile
	if isTOML {
		if err := toml.Unmarshal(data, &mf); err != nil {
			return nil, fmt.Errorf("parsing TOML manifest: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &mf); err != nil {
			return nil, fmt.Errorf("parsing JSON manifest: %w", err)
		}
	}
	for i, d := range mf.Assets {
		if strings.TrimSpace(d.URL) == "" {
			return nil, fmt.Errorf("manifest entry %d: url is required", i)
		}
	}
	return mf.Assets, nil
}

// Encode renders descriptors in the JSON manifest layout accepted by Parse.
func Encode(descriptors []Descriptor) ([]byte, error) {
	return json.MarshalIndent(manifestFile{Assets: descriptors}, "", "  ")
}
