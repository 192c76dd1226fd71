// Package harvest implements the Harvester from spec.md §4.10: gathering,
// per package identity, the artifacts of all prior pipeline steps into a
// single JSON keyed by build-matrix tag.
package harvest

import (
	"sort"

	"github.com/alien4friends/a4f-core/internal/alienpkg"
	"github.com/alien4friends/a4f-core/internal/deltacode"
	"github.com/alien4friends/a4f-core/internal/identity"
	"github.com/alien4friends/a4f-core/internal/matcher"
	"github.com/alien4friends/a4f-core/internal/tinfoilhat"
)

// SourceFile mirrors an aliensrc manifest file entry in the harvest output.
type SourceFile struct {
	Name           string `json:"name"`
	SHA1           string `json:"sha1"`
	SrcURI         string `json:"src_uri"`
	FilesInArchive any    `json:"files_in_archive"`
}

// DebianMatch is the chosen Debian candidate, if any, plus the count of
// files the Delta step classified as carrying Debian-derived IP metadata.
type DebianMatch struct {
	Name             string `json:"name"`
	Version          string `json:"version"`
	IPMatchingFiles  int    `json:"ip_matching_files"`
}

// StatisticsFiles summarizes audit progress over the alien's files.
type StatisticsFiles struct {
	AuditTotal          int `json:"audit_total"`
	AuditDone           int `json:"audit_done"`
	AuditToDo           int `json:"audit_to_do"`
	UpstreamSourceTotal int `json:"upstream_source_total"`
	UnknownProvenance   int `json:"unknown_provenance"`
	KnownProvenance     int `json:"known_provenance"`
}

// LicenseFinding is a single license shortname with the number of files it
// was found in.
type LicenseFinding struct {
	Shortname string `json:"shortname"`
	FileCount int     `json:"file_count"`
}

// StatisticsLicenses carries both scanner-reported and (if audited)
// human-reviewed license findings.
type StatisticsLicenses struct {
	LicenseScannerFindings []LicenseFinding `json:"license_scanner_findings"`
	AuditMainLicenses      []string         `json:"audit_main_licenses"`
	AuditAllLicenses       []LicenseFinding `json:"audit_all_licenses"`
}

// Statistics is the per-package file and license rollup.
type Statistics struct {
	Files    StatisticsFiles     `json:"files"`
	Licenses StatisticsLicenses  `json:"licenses"`
}

// BinaryPackage is one binary package this source package produced, named
// per TinfoilHat metadata.
type BinaryPackage struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Revision string `json:"revision"`
}

// SourcePackage is the harvested report for one alien source package.
type SourcePackage struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Version        string            `json:"version"`
	Variant        string            `json:"variant"`
	DebianMatching *DebianMatch      `json:"debian_matching,omitempty"`
	SourceFiles    []SourceFile      `json:"source_files"`
	Statistics     Statistics        `json:"statistics"`
	BinaryPackages []BinaryPackage   `json:"binary_packages"`
	Tags           []string          `json:"tags"`
	MissingInputs  []string          `json:"missing_input,omitempty"`
}

// Document is the top-level harvest output, keyed by build-matrix tag.
type Document struct {
	Tags map[string][]SourcePackage `json:"tags"`
}

// Inputs bundles everything known about one package's pipeline run, as
// gathered from the Pool by the caller (main.go's per-package loop). Any
// field may be nil/zero when that step's artifact is missing; the missing
// step is still recorded via MissingInputs.
type Inputs struct {
	Identity  identity.Identity
	Package   *alienpkg.Package
	Match     *matcher.Result
	Delta     *deltacode.Report
	Fossy     *FossyFindings
	TinfoilHat *tinfoilhat.Document
}

// FossyFindings is the subset of a clearing server report the harvester
// rolls into audit statistics.
type FossyFindings struct {
	MainLicenses []string
	AllLicenses  []LicenseFinding
	AuditDone    int
	AuditToDo    int
}

// requiredSteps names every pipeline step the harvester checks for, per
// spec.md §4.10 and the Pool FILETYPE set in §6; used to populate
// missing_input the way the original harvester does.
var requiredSteps = []string{"aliensrc", "scancode", "deltacode", "fossy", "tinfoilhat", "match"}

// Build assembles one SourcePackage entry from a package's gathered
// Inputs, recording which required steps had no artifact.
func Build(in Inputs, addMissing bool) SourcePackage {
	sp := SourcePackage{
		ID:      in.Identity.String(),
		Name:    in.Identity.Name,
		Version: in.Identity.Version,
		Variant: in.Identity.Variant,
	}

	present := map[string]bool{}
	if in.Package != nil {
		present["aliensrc"] = true
		for _, f := range in.Package.Manifest.SourcePackage.Files {
			sp.SourceFiles = append(sp.SourceFiles, SourceFile{
				Name:           f.Name,
				SHA1:           f.SHA1Cksum,
				SrcURI:         f.SrcURI,
				FilesInArchive: f.FilesInArchive,
			})
		}
		sp.Tags = in.Package.Manifest.SourcePackage.Tags
	}
	if in.Match != nil {
		present["match"] = true
		sp.DebianMatching = &DebianMatch{
			Name:    in.Match.DebianName,
			Version: in.Match.DebianVersion,
		}
	}
	if in.Delta != nil {
		present["deltacode"] = true
		matching := in.Delta.Stats.Counts[deltacode.SameFiles] +
			in.Delta.Stats.Counts[deltacode.MovedFiles] +
			in.Delta.Stats.Counts[deltacode.ChangedSameCopyrightAndLicense] +
			in.Delta.Stats.Counts[deltacode.ChangedUpdatedCopyrightYearOnly]
		if sp.DebianMatching != nil {
			sp.DebianMatching.IPMatchingFiles = matching
		}
		sp.Statistics.Files.KnownProvenance = matching
		sp.Statistics.Files.UnknownProvenance = in.Delta.Stats.NewFilesCount - matching
		sp.Statistics.Files.UpstreamSourceTotal = in.Delta.Stats.OldFilesCount
	}
	if in.Fossy != nil {
		present["fossy"] = true
		sp.Statistics.Licenses.AuditMainLicenses = in.Fossy.MainLicenses
		sp.Statistics.Licenses.AuditAllLicenses = in.Fossy.AllLicenses
		sp.Statistics.Files.AuditDone = in.Fossy.AuditDone
		sp.Statistics.Files.AuditToDo = in.Fossy.AuditToDo
		sp.Statistics.Files.AuditTotal = in.Fossy.AuditDone + in.Fossy.AuditToDo
	}
	if in.TinfoilHat != nil {
		present["tinfoilhat"] = true
		present["scancode"] = true
		var names []string
		for name, pwt := range in.TinfoilHat.Packages {
			names = append(names, name)
			sp.BinaryPackages = append(sp.BinaryPackages, BinaryPackage{
				Name:     pwt.Package.Metadata.Name,
				Version:  pwt.Package.Metadata.Version,
				Revision: pwt.Package.Metadata.Revision,
			})
		}
		sort.Strings(names)
	}

	if addMissing {
		for _, step := range requiredSteps {
			if !present[step] {
				sp.MissingInputs = append(sp.MissingInputs, step)
			}
		}
	}

	return sp
}

// FilterOptions implements --filter-snapshot and --with-binaries from
// spec.md §4.10.
type FilterOptions struct {
	// FilterSnapshot, when non-empty, keeps only entries tagged with one
	// of the other entries in this slice (release tags) plus exactly the
	// one snapshot tag named here.
	FilterSnapshot string
	ReleaseTags    []string
	// WithBinaries, when non-empty, restricts binary_packages to these
	// names.
	WithBinaries []string
}

// Assemble groups SourcePackage entries by every tag they carry, applying
// FilterOptions.
func Assemble(packages []SourcePackage, opts FilterOptions) Document {
	keep := func(tag string) bool {
		if opts.FilterSnapshot == "" {
			return true
		}
		if tag == opts.FilterSnapshot {
			return true
		}
		for _, r := range opts.ReleaseTags {
			if tag == r {
				return true
			}
		}
		return false
	}

	withBinaries := map[string]bool{}
	for _, b := range opts.WithBinaries {
		withBinaries[b] = true
	}

	doc := Document{Tags: map[string][]SourcePackage{}}
	for _, sp := range packages {
		if len(opts.WithBinaries) > 0 {
			filtered := sp.BinaryPackages[:0:0]
			for _, b := range sp.BinaryPackages {
				if withBinaries[b.Name] {
					filtered = append(filtered, b)
				}
			}
			sp.BinaryPackages = filtered
		}
		for _, tag := range sp.Tags {
			if !keep(tag) {
				continue
			}
			doc.Tags[tag] = append(doc.Tags[tag], sp)
		}
	}
	for tag := range doc.Tags {
		sort.SliceStable(doc.Tags[tag], func(i, j int) bool {
			return doc.Tags[tag][i].ID < doc.Tags[tag][j].ID
		})
	}
	return doc
}
