// Package alienpkg parses the ".aliensrc" archive and its embedded
// manifest, per spec.md §4.3 and the wire schema in §6.
package alienpkg

import (
	"encoding/json"
	"strconv"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
)

// Manifest is aliensrc.json, the first tar member. Field names and
// optionality follow the schema in spec.md §6 verbatim.
type Manifest struct {
	Version       int           `json:"version"`
	SourcePackage SourcePackage `json:"source_package"`
}

// SourcePackage is the manifest's "source_package" object.
type SourcePackage struct {
	Name     []string          `json:"name"`
	Version  string            `json:"version"`
	Manager  string            `json:"manager"`
	Metadata map[string]any    `json:"metadata"`
	Files    []ManifestFile    `json:"files"`
	Tags     []string          `json:"tags,omitempty"`
}

// ManifestFile is one entry of source_package.files.
type ManifestFile struct {
	Name           string   `json:"name"`
	SHA1Cksum      string   `json:"sha1_cksum"`
	GitSHA1        *string  `json:"git_sha1"`
	SrcURI         string   `json:"src_uri"`
	FilesInArchive any      `json:"files_in_archive"` // int, false, or 0
	Paths          []string `json:"paths,omitempty"`
}

// FilesInArchiveCount normalizes the FilesInArchive duck-typed field: the
// int count with isArchive true, or (0, false) when the file is not an
// archive (JSON `false`) or the field is absent.
func (f ManifestFile) FilesInArchiveCount() (count int, isArchive bool) {
	switch v := f.FilesInArchive.(type) {
	case bool:
		return 0, false
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// ParseManifest decodes and minimally validates aliensrc.json's schema.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, a4ferr.New("alienpkg.ParseManifest", a4ferr.KindCorruptInput, "malformed aliensrc.json", err)
	}
	if len(m.SourcePackage.Name) == 0 {
		return nil, a4ferr.New("alienpkg.ParseManifest", a4ferr.KindCorruptInput, "source_package.name must have at least one alias", nil)
	}
	if m.SourcePackage.Version == "" {
		return nil, a4ferr.New("alienpkg.ParseManifest", a4ferr.KindCorruptInput, "source_package.version is required", nil)
	}
	for i, f := range m.SourcePackage.Files {
		if len(f.SHA1Cksum) != 40 {
			return nil, a4ferr.New("alienpkg.ParseManifest", a4ferr.KindCorruptInput,
				"files["+strconv.Itoa(i)+"].sha1_cksum must be 40 hex chars", nil)
		}
	}
	return &m, nil
}
