// Package alienspdx synthesizes the alien SPDX document by weaving
// scancode's per-file findings with a matched Debian SPDX document, gated
// by the similarity score from a DeltaReport, per spec.md §4.7.
package alienspdx

import (
	"github.com/spdx/tools-golang/spdx/v2/v2_3"

	"github.com/alien4friends/a4f-core/internal/deltacode"
)

// Tier names the similarity band a synthesis falls into.
type Tier string

const (
	TierScancodeOnly   Tier = "scancode_only"   // S < 0.30
	TierPerFile        Tier = "per_file"        // 0.30 <= S < 0.92
	TierPackageLicense Tier = "package_license" // 0.92 <= S < 1.00
	TierFullDebian     Tier = "full_debian"     // S == 1.00
)

// thresholds per spec.md §4.7. Open question: the implementer left these
// exact cut points unresolved pending reference-run data; these values
// match the literal text of the spec.
const (
	thresholdPerFile        = 0.30
	thresholdPackageLicense = 0.92
	thresholdFullDebian     = 1.00
)

// classifyTier maps a similarity score to its synthesis tier. forceFull
// implements --apply-debian-full, which forces the S=1.00 branch
// irrespective of the measured similarity.
func classifyTier(similarity float64, forceFull bool) Tier {
	if forceFull {
		return TierFullDebian
	}
	switch {
	case similarity < thresholdPerFile:
		return TierScancodeOnly
	case similarity < thresholdPackageLicense:
		return TierPerFile
	case similarity < thresholdFullDebian:
		return TierPackageLicense
	default:
		return TierFullDebian
	}
}

// carriesDebianPerFile is the set of DeltaReport categories whose files are
// eligible to receive Debian per-file metadata in the per_file tier and
// above, per spec.md §4.7.
var carriesDebianPerFile = map[deltacode.Category]bool{
	deltacode.SameFiles:                       true,
	deltacode.MovedFiles:                      true,
	deltacode.ChangedNoLicenseNoCopyright:      true,
	deltacode.ChangedSameCopyrightAndLicense:   true,
	deltacode.ChangedUpdatedCopyrightYearOnly:  true,
}

// Options configures one synthesis run.
type Options struct {
	Similarity      float64
	ForceDebianFull bool
}

// Synthesize builds the alien SPDX document. debianDoc may be nil when no
// Debian match exists or the alien package has no main internal archive;
// in that case the output is always the scancode-only tier and the
// returned Tier is TierScancodeOnly, with a warning left to the caller to
// log.
func Synthesize(scancodeDoc *v2_3.Document, delta *deltacode.Report, debianDoc *v2_3.Document, opts Options) (*v2_3.Document, Tier) {
	if debianDoc == nil || len(debianDoc.Packages) == 0 {
		return scancodeOnly(scancodeDoc), TierScancodeOnly
	}

	tier := classifyTier(opts.Similarity, opts.ForceDebianFull)
	if tier == TierScancodeOnly {
		return scancodeOnly(scancodeDoc), TierScancodeOnly
	}

	debianFilesByPath := indexDebianFiles(debianDoc)
	out := cloneDocument(scancodeDoc)

	eligiblePaths := eligibleDebianPaths(delta)

	for _, pkg := range out.Packages {
		for _, f := range pkg.Files {
			if eligiblePaths[f.FileName] {
				if df, ok := debianFilesByPath[f.FileName]; ok {
					f.LicenseConcluded = df.LicenseConcluded
					f.FileCopyrightText = df.FileCopyrightText
					continue
				}
			}
			// Not eligible, or no Debian match for this path: scancode
			// findings stand as LicenseInfoInFile, not a concluded license.
			demoteToInfoInFile(f)
		}
	}

	debianPkg := debianDoc.Packages[0]
	if tier == TierPackageLicense || tier == TierFullDebian {
		for _, pkg := range out.Packages {
			pkg.PackageLicenseDeclared = debianPkg.PackageLicenseDeclared
		}
	}
	if tier == TierFullDebian {
		for _, pkg := range out.Packages {
			pkg.PackageCopyrightText = debianPkg.PackageCopyrightText
			pkg.PackageSupplier = debianPkg.PackageSupplier
			pkg.PackageOriginator = debianPkg.PackageOriginator
		}
	}

	return out, tier
}

// scancodeOnly reclassifies every per-file assertion to LicenseInfoInFile,
// per spec.md §4.7's S<0.30 branch: "no concluded license is inferred."
func scancodeOnly(doc *v2_3.Document) *v2_3.Document {
	out := cloneDocument(doc)
	for _, pkg := range out.Packages {
		for _, f := range pkg.Files {
			demoteToInfoInFile(f)
		}
	}
	return out
}

func demoteToInfoInFile(f *v2_3.File) {
	if f.LicenseConcluded != "" && f.LicenseConcluded != "NOASSERTION" {
		f.LicenseInfoInFiles = appendUnique(f.LicenseInfoInFiles, f.LicenseConcluded)
	}
	f.LicenseConcluded = "NOASSERTION"
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func indexDebianFiles(doc *v2_3.Document) map[string]*v2_3.File {
	out := map[string]*v2_3.File{}
	for _, pkg := range doc.Packages {
		for _, f := range pkg.Files {
			out[f.FileName] = f
		}
	}
	return out
}

// eligibleDebianPaths returns the new-side file paths classified into one
// of the categories carriesDebianPerFile allows.
func eligibleDebianPaths(delta *deltacode.Report) map[string]bool {
	out := map[string]bool{}
	if delta == nil {
		return out
	}
	for cat, pairs := range delta.Body {
		if !carriesDebianPerFile[cat] {
			continue
		}
		for _, p := range pairs {
			out[p.New.Path] = true
		}
	}
	return out
}

// cloneDocument performs a field-level deep-enough copy so mutating the
// synthesized document never mutates the scancode input the caller still
// holds a reference to.
func cloneDocument(doc *v2_3.Document) *v2_3.Document {
	out := *doc
	out.Packages = make([]*v2_3.Package, len(doc.Packages))
	for i, pkg := range doc.Packages {
		p := *pkg
		p.Files = make([]*v2_3.File, len(pkg.Files))
		for j, f := range pkg.Files {
			nf := *f
			nf.LicenseInfoInFiles = append([]string(nil), f.LicenseInfoInFiles...)
			p.Files[j] = &nf
		}
		out.Packages[i] = &p
	}
	return &out
}
