package deltacode

import (
	"regexp"
	"sort"
	"strings"
)

// Category is one of the closed set of file-delta classifications from
// spec.md §4.5.
type Category string

const (
	SameFiles                            Category = "same_files"
	MovedFiles                           Category = "moved_files"
	ChangedNoLicenseNoCopyright          Category = "changed_files_with_no_license_and_copyright"
	ChangedSameCopyrightAndLicense       Category = "changed_files_with_same_copyright_and_license"
	ChangedUpdatedCopyrightYearOnly      Category = "changed_files_with_updated_copyright_year_only"
	ChangedCopyrightOrLicense            Category = "changed_files_with_changed_copyright_or_license"
	NewNoLicenseNoCopyright              Category = "new_files_with_no_license_and_copyright"
	NewWithLicenseOrCopyright            Category = "new_files_with_license_or_copyright"
	DeletedNoLicenseNoCopyright          Category = "deleted_files_with_no_license_and_copyright"
	DeletedWithLicenseOrCopyright        Category = "deleted_files_with_license_or_copyright"
)

// Pair is one classified (old, new) file pairing; for the new-only and
// old-only categories one side is the zero FileRecord.
type Pair struct {
	Old FileRecord `json:"old,omitempty"`
	New FileRecord `json:"new,omitempty"`
}

// Report is the DeltaReport from spec.md §3/§4.5.
type Report struct {
	Stats Stats                  `json:"stats"`
	Body  map[Category][]Pair    `json:"body"`
}

// Stats carries the category sizes plus the derived similarity fraction.
type Stats struct {
	OldFilesCount int               `json:"old_files_count"`
	NewFilesCount int               `json:"new_files_count"`
	Counts        map[Category]int  `json:"counts"`
	Similarity    float64           `json:"similarity"`
}

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// licenseSynonyms collapses common SPDX identifier aliasing before set
// comparison, per spec.md §4.5's "SPDX identifier synonyms collapsed".
var licenseSynonyms = map[string]string{
	"gpl-2.0+":        "gpl-2.0-or-later",
	"gpl-2.0-or-later": "gpl-2.0-or-later",
	"gpl-2.0":         "gpl-2.0-only",
	"gpl-3.0+":        "gpl-3.0-or-later",
	"gpl-3.0-or-later": "gpl-3.0-or-later",
	"gpl-3.0":         "gpl-3.0-only",
	"lgpl-2.1+":       "lgpl-2.1-or-later",
	"bsd":             "bsd-3-clause",
}

// normalizeLicense lower-cases, trims whitespace, collapses NOASSERTION
// and NONE spellings, and applies the synonym table.
func normalizeLicense(l string) string {
	l = strings.ToLower(strings.TrimSpace(l))
	switch l {
	case "noassertion", "no assertion", "":
		return "noassertion"
	case "none":
		return "none"
	}
	if canon, ok := licenseSynonyms[l]; ok {
		return canon
	}
	return l
}

// normalizeCopyright lower-cases and collapses internal whitespace, per
// spec.md §4.5's copyright comparison rule.
func normalizeCopyright(c string) string {
	fields := strings.Fields(strings.ToLower(c))
	return strings.Join(fields, " ")
}

// maskYears replaces 19xx/20xx year tokens with a placeholder so two
// copyright strings differing only by year compare equal.
func maskYears(c string) string {
	return yearRe.ReplaceAllString(c, "YEAR")
}

func normalizedSet(items []string, normalize func(string) string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, i := range items {
		out[normalize(i)] = true
	}
	return out
}

func setEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func hasNone(set map[string]bool) bool {
	if len(set) == 0 {
		return true
	}
	for k := range set {
		if k != "noassertion" && k != "none" {
			return false
		}
	}
	return true
}

// Compute classifies every file of old and new per the rules in spec.md
// §4.5 and returns the resulting DeltaReport.
func Compute(old, new ScanReport) Report {
	oldByPath := make(map[string]FileRecord, len(old.Files))
	oldBySHA1 := make(map[string][]FileRecord)
	for _, f := range old.Files {
		oldByPath[f.Path] = f
		oldBySHA1[f.SHA1] = append(oldBySHA1[f.SHA1], f)
	}
	usedOld := make(map[string]bool, len(old.Files))

	body := map[Category][]Pair{}
	add := func(cat Category, p Pair) { body[cat] = append(body[cat], p) }

	for _, nf := range new.Files {
		if of, ok := oldByPath[nf.Path]; ok {
			usedOld[of.Path] = true
			switch {
			case of.SHA1 == nf.SHA1:
				add(SameFiles, Pair{Old: of, New: nf})
			default:
				classifyChanged(of, nf, add)
			}
			continue
		}
		// No path match: check for a move (same sha1, different path)
		// among old files not keyed to this exact path.
		if cands := oldBySHA1[nf.SHA1]; len(cands) > 0 {
			var moved *FileRecord
			for i := range cands {
				if !usedOld[cands[i].Path] {
					moved = &cands[i]
					break
				}
			}
			if moved != nil {
				usedOld[moved.Path] = true
				add(MovedFiles, Pair{Old: *moved, New: nf})
				continue
			}
		}
		// Genuinely new.
		if hasNone(normalizedSet(nf.Licenses, normalizeLicense)) && hasNone(normalizedSet(nf.Copyrights, normalizeCopyright)) {
			add(NewNoLicenseNoCopyright, Pair{New: nf})
		} else {
			add(NewWithLicenseOrCopyright, Pair{New: nf})
		}
	}

	for _, of := range old.Files {
		if usedOld[of.Path] {
			continue
		}
		if hasNone(normalizedSet(of.Licenses, normalizeLicense)) && hasNone(normalizedSet(of.Copyrights, normalizeCopyright)) {
			add(DeletedNoLicenseNoCopyright, Pair{Old: of})
		} else {
			add(DeletedWithLicenseOrCopyright, Pair{Old: of})
		}
	}

	counts := make(map[Category]int, len(body))
	for cat, pairs := range body {
		counts[cat] = len(pairs)
		sortPairs(pairs)
	}

	newCount := len(new.Files)
	oldCount := len(old.Files)
	similar := counts[SameFiles] + counts[MovedFiles] + counts[ChangedNoLicenseNoCopyright] +
		counts[ChangedSameCopyrightAndLicense] + counts[ChangedUpdatedCopyrightYearOnly]
	similarity := 0.0
	if newCount > 0 {
		similarity = float64(similar) / float64(newCount)
	}

	return Report{
		Body: body,
		Stats: Stats{
			OldFilesCount: oldCount,
			NewFilesCount: newCount,
			Counts:        counts,
			Similarity:    similarity,
		},
	}
}

func classifyChanged(of, nf FileRecord, add func(Category, Pair)) {
	oldLic := normalizedSet(of.Licenses, normalizeLicense)
	newLic := normalizedSet(nf.Licenses, normalizeLicense)
	oldCop := normalizedSet(of.Copyrights, normalizeCopyright)
	newCop := normalizedSet(nf.Copyrights, normalizeCopyright)

	switch {
	case hasNone(oldLic) && hasNone(newLic) && hasNone(oldCop) && hasNone(newCop):
		add(ChangedNoLicenseNoCopyright, Pair{Old: of, New: nf})
	case setEqual(oldLic, newLic) && setEqual(oldCop, newCop):
		add(ChangedSameCopyrightAndLicense, Pair{Old: of, New: nf})
	case setEqual(oldLic, newLic) && onlyYearDiffers(of.Copyrights, nf.Copyrights):
		add(ChangedUpdatedCopyrightYearOnly, Pair{Old: of, New: nf})
	default:
		add(ChangedCopyrightOrLicense, Pair{Old: of, New: nf})
	}
}

// onlyYearDiffers reports whether the two copyright sets are equal once
// case, whitespace, and year tokens are all normalized — i.e. they were
// equal except for the year(s) mentioned.
func onlyYearDiffers(oldC, newC []string) bool {
	maskedOld := normalizedSet(oldC, func(c string) string { return maskYears(normalizeCopyright(c)) })
	maskedNew := normalizedSet(newC, func(c string) string { return maskYears(normalizeCopyright(c)) })
	if !setEqual(maskedOld, maskedNew) {
		return false
	}
	// Require the unmasked sets to actually differ, else this is really
	// ChangedSameCopyrightAndLicense and that branch would have already
	// matched first.
	rawOld := normalizedSet(oldC, normalizeCopyright)
	rawNew := normalizedSet(newC, normalizeCopyright)
	return !setEqual(rawOld, rawNew)
}

func sortPairs(pairs []Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		pi, pj := pairKey(pairs[i]), pairKey(pairs[j])
		return pi < pj
	})
}

func pairKey(p Pair) string {
	if p.New.Path != "" {
		return p.New.Path
	}
	return p.Old.Path
}
