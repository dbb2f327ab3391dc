package domain

import (
	"encoding/json"

	"go.trai.ch/zerr"
)

// manifest holds the package.json fields the loader needs.
type manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Main    string `json:"main"`
}

// ParseManifest decodes a package.json document. Dir is left for the caller to fill.
func ParseManifest(filename string, data []byte) (*PackageInfo, error) {
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, zerr.With(zerr.Wrap(err, ErrManifestParseFailed.Error()), "path", filename)
	}
	return &PackageInfo{
		Name:    m.Name,
		Version: m.Version,
		Main:    m.Main,
	}, nil
}

// Identity returns the cache identity of the package.
func (p *PackageInfo) Identity() PackageID {
	return PackageID{Name: p.Name, Version: p.Version}
}
