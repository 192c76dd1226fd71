package debian2spdx

import (
	"sort"
	"strings"
	"time"

	v2common "github.com/spdx/tools-golang/spdx/v2/common"
	"github.com/spdx/tools-golang/spdx/v2/v2_3"
)

// BuildOptions carries the identity and tree the copyright/control data is
// projected onto.
type BuildOptions struct {
	SourceName    string
	SourceVersion string
	// Tree lists every file path in the extracted Debian archive, used to
	// expand the Files: glob patterns from debian/copyright.
	Tree []string
	// DocumentNamespace is a stable URI identifying this SPDX document.
	DocumentNamespace string
}

// Build constructs a v2.3 SPDX document per spec.md §4.6: a top-level
// Package for the Debian source, one File per debian/copyright Files:
// glob match, LicenseRef- entries for stand-alone license paragraphs, and
// a package-level license computed as the conservative AND of every
// License: atom encountered.
func Build(c *Copyright, ctrl *Control, opts BuildOptions) *v2_3.Document {
	pkgID := v2common.ElementID("Package-" + sanitizeID(opts.SourceName))

	doc := &v2_3.Document{
		SPDXVersion:       v2_3.Version,
		DataLicense:       v2_3.DataLicense,
		SPDXIdentifier:    "DOCUMENT",
		DocumentName:      opts.SourceName + "-" + opts.SourceVersion,
		DocumentNamespace: opts.DocumentNamespace,
		CreationInfo: &v2_3.CreationInfo{
			Creators: []v2common.Creator{{Creator: "a4f-core", CreatorType: "Tool"}},
			Created:  time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		},
	}

	licenseTexts := map[string]string{}
	for _, l := range c.Licenses {
		licenseTexts[normalizeLicenseRef(l.ShortName)] = l.Text
	}

	pkg := &v2_3.Package{
		PackageName:             opts.SourceName,
		PackageSPDXIdentifier:   pkgID,
		PackageVersion:          opts.SourceVersion,
		PackageDownloadLocation: "NOASSERTION",
		PackageSupplier:         supplierFromMaintainer(ctrl.Maintainer),
		FilesAnalyzed:           true,
		PrimaryPackagePurpose:   "SOURCE",
	}

	licenseAtoms := map[string]bool{}
	var files []*v2_3.File
	// A path matched by several Files: stanzas takes the last one, per
	// DEP-5's "last match wins" rule.
	byPath := map[string]*v2_3.File{}

	for _, fp := range c.Files {
		matches := expandGlobs(fp.Files, opts.Tree)
		for _, atom := range splitLicenseAtoms(fp.License) {
			licenseAtoms[atom] = true
		}
		for _, path := range matches {
			byPath[path] = &v2_3.File{
				FileName:           path,
				FileSPDXIdentifier: v2common.ElementID("File-" + sanitizeID(path)),
				LicenseConcluded:   spdxLicenseExpression(fp.License, licenseTexts),
				FileCopyrightText:  emptyToNoAssertion(fp.Copyright),
				FileComment:        fp.Comment,
			}
		}
	}
	for _, f := range byPath {
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].FileName < files[j].FileName })
	pkg.Files = files

	pkg.PackageLicenseConcluded = combinedLicense(licenseAtoms)
	pkg.PackageLicenseDeclared = pkg.PackageLicenseConcluded
	pkg.PackageCopyrightText = emptyToNoAssertion(c.Header.get("Copyright"))

	doc.Packages = []*v2_3.Package{pkg}

	var licRefs []*v2_3.OtherLicense
	var refIDs []string
	for id := range licenseTexts {
		refIDs = append(refIDs, id)
	}
	sort.Strings(refIDs)
	for _, id := range refIDs {
		licRefs = append(licRefs, &v2_3.OtherLicense{
			LicenseIdentifier: id,
			ExtractedText:     licenseTexts[id],
		})
	}
	doc.OtherLicenses = licRefs

	return doc
}

// splitLicenseAtoms breaks a Debian License: field ("GPL-2.0+ or Artistic")
// into its individual identifier atoms, ignoring the boolean connective —
// spec.md §4.6 only needs the atom set to compute the package-level union.
func splitLicenseAtoms(license string) []string {
	license = strings.SplitN(license, "\n", 2)[0]
	fields := strings.FieldsFunc(license, func(r rune) bool {
		switch r {
		case ' ', '\t', ',':
			return true
		}
		return false
	})
	var atoms []string
	for _, f := range fields {
		lower := strings.ToLower(f)
		if lower == "or" || lower == "and" || lower == "with" {
			continue
		}
		atoms = append(atoms, f)
	}
	return atoms
}

func spdxLicenseExpression(license string, refs map[string]string) string {
	license = strings.TrimSpace(strings.SplitN(license, "\n", 2)[0])
	if license == "" {
		return "NOASSERTION"
	}
	if _, ok := refs[normalizeLicenseRef(license)]; ok {
		return normalizeLicenseRef(license)
	}
	return license
}

func normalizeLicenseRef(shortName string) string {
	shortName = strings.TrimSpace(shortName)
	if strings.HasPrefix(shortName, "LicenseRef-") {
		return shortName
	}
	return "LicenseRef-" + strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' {
			return '-'
		}
		return r
	}, shortName)
}

// combinedLicense joins every distinct license atom seen across Files:
// stanzas with AND, per spec.md §4.6's "combined conservatively with AND".
func combinedLicense(atoms map[string]bool) string {
	if len(atoms) == 0 {
		return "NOASSERTION"
	}
	var list []string
	for a := range atoms {
		list = append(list, a)
	}
	sort.Strings(list)
	return strings.Join(list, " AND ")
}

func emptyToNoAssertion(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NOASSERTION"
	}
	return s
}

func supplierFromMaintainer(maintainer string) *v2common.Supplier {
	maintainer = strings.TrimSpace(maintainer)
	if maintainer == "" {
		return nil
	}
	return &v2common.Supplier{Supplier: maintainer, SupplierType: "Person"}
}

func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '-'
		}
	}, s)
}

// expandGlobs matches each DEP-5 Files: pattern against the extracted
// archive tree. DEP-5 globs use shell-style * and ?, and unlike
// filepath.Match, '*' also crosses path separators.
func expandGlobs(patterns []string, tree []string) []string {
	var out []string
	for _, pat := range patterns {
		pat = strings.TrimSpace(pat)
		if pat == "" {
			continue
		}
		for _, path := range tree {
			if globMatch(pat, path) {
				out = append(out, path)
			}
		}
	}
	return out
}

// globMatch implements DEP-5's glob semantics: '*' matches any sequence
// including '/', '?' matches exactly one character.
func globMatch(pattern, name string) bool {
	return globMatchRunes([]rune(pattern), []rune(name))
}

func globMatchRunes(pattern, name []rune) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	switch pattern[0] {
	case '*':
		for i := 0; i <= len(name); i++ {
			if globMatchRunes(pattern[1:], name[i:]) {
				return true
			}
		}
		return false
	case '?':
		if len(name) == 0 {
			return false
		}
		return globMatchRunes(pattern[1:], name[1:])
	default:
		if len(name) == 0 || pattern[0] != name[0] {
			return false
		}
		return globMatchRunes(pattern[1:], name[1:])
	}
}
