package debianidx

import (
	"encoding/json"
	"io"
)

// IndexVersion is one version entry in the current index: the version
// string plus the download URIs for its source artifacts.
type IndexVersion struct {
	Version string     `json:"version"`
	Files   []Artifact `json:"files"`
}

// decodeIndex parses the {name: [{version, files[]}...]} JSON shape used
// by HTTPCurrent's IndexURL — a generated snapshot of the Debian Sources
// index (see loadIndex's doc comment for the external-collaborator note).
func decodeIndex(r io.Reader) (map[string][]IndexVersion, error) {
	var idx map[string][]IndexVersion
	if err := json.NewDecoder(r).Decode(&idx); err != nil {
		return nil, err
	}
	return idx, nil
}
