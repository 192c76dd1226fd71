// Package tinfoilhat models the TinfoilHat build-matrix metadata document
// the Yocto/BitBake build side emits alongside each .aliensrc: which
// binary packages a recipe produced, for which machine, tagged with the
// build-matrix tags the Harvester groups by.
package tinfoilhat

// PackageMetaData is the subset of bitbake package metadata the harvester
// and mirror consume.
type PackageMetaData struct {
	Name           string   `json:"name"`
	BaseName       string   `json:"base_name"`
	Version        string   `json:"version"`
	Revision       string   `json:"revision"`
	PackageArch    string   `json:"package_arch"`
	RecipeName     string   `json:"recipe_name"`
	RecipeVersion  string   `json:"recipe_version"`
	RecipeRevision string   `json:"recipe_revision"`
	License        string   `json:"license"`
	Summary        string   `json:"summary"`
	Depends        []string `json:"depends"`
	Provides       []string `json:"provides"`
}

// FileWithSize is one file inside a binary package's payload.
type FileWithSize struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Package is one binary package emitted by a recipe build.
type Package struct {
	Metadata PackageMetaData `json:"metadata"`
	Files    []FileWithSize  `json:"files"`
	ChkSum   string          `json:"chk_sum"`
}

// PackageWithTags pairs a binary package with the build-matrix tags it was
// produced under (e.g. machine names, release names).
type PackageWithTags struct {
	Package Package  `json:"package"`
	Tags    []string `json:"tags"`
}

// SourceFile is one source file contributing to the recipe's aliensrc,
// with the same identity fields carried in aliensrc.json.
type SourceFile struct {
	RootPath  string   `json:"rootpath"`
	RelPath   string   `json:"relpath"`
	SrcURI    string   `json:"src_uri"`
	SHA1Cksum string   `json:"sha1_cksum"`
	GitSHA1   *string  `json:"git_sha1"`
	Tags      []string `json:"tags"`
}

// RecipeMetaData carries the recipe-level name/version identity.
type RecipeMetaData struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Recipe is the bitbake recipe that produced this TinfoilHat document's
// packages.
type Recipe struct {
	Metadata    RecipeMetaData `json:"metadata"`
	SourceFiles []SourceFile   `json:"source_files"`
	ChkSum      string         `json:"chk_sum"`
}

// Document is one .tinfoilhat.json file: the recipe plus every binary
// package it produced, keyed by package name.
type Document struct {
	Recipe   Recipe                     `json:"recipe"`
	Tags     []string                   `json:"tags"`
	Packages map[string]PackageWithTags `json:"packages"`
}
