package alienspdx

import (
	"testing"

	v2common "github.com/spdx/tools-golang/spdx/v2/common"
	"github.com/spdx/tools-golang/spdx/v2/v2_3"

	"github.com/alien4friends/a4f-core/internal/deltacode"
)

func scancodeDoc(paths []string) *v2_3.Document {
	files := make([]*v2_3.File, len(paths))
	for i, p := range paths {
		files[i] = &v2_3.File{
			FileName:           p,
			FileSPDXIdentifier: v2common.ElementID("File-" + p),
			LicenseConcluded:   "MIT",
			LicenseInfoInFiles: []string{"MIT"},
		}
	}
	return &v2_3.Document{
		Packages: []*v2_3.Package{{
			PackageName: "alien",
			Files:       files,
		}},
	}
}

func debianDoc(paths []string) *v2_3.Document {
	files := make([]*v2_3.File, len(paths))
	for i, p := range paths {
		files[i] = &v2_3.File{
			FileName:          p,
			LicenseConcluded:  "Zlib",
			FileCopyrightText: "1995 Foo",
		}
	}
	return &v2_3.Document{
		Packages: []*v2_3.Package{{
			PackageName:             "zlib",
			PackageLicenseDeclared:  "Zlib",
			PackageCopyrightText:    "1995 Foo",
			Files:                   files,
		}},
	}
}

func TestTierAt030HasDebianLicense(t *testing.T) {
	delta := &deltacode.Report{Body: map[deltacode.Category][]deltacode.Pair{
		deltacode.SameFiles: {{Old: deltacode.FileRecord{Path: "a"}, New: deltacode.FileRecord{Path: "a"}}},
	}}
	doc, tier := Synthesize(scancodeDoc([]string{"a"}), delta, debianDoc([]string{"a"}), Options{Similarity: 0.30})
	if tier != TierPerFile {
		t.Fatalf("tier = %v, want %v", tier, TierPerFile)
	}
	f := doc.Packages[0].Files[0]
	if f.LicenseConcluded != "Zlib" {
		t.Fatalf("LicenseConcluded = %q, want Zlib (copied from debian)", f.LicenseConcluded)
	}
}

func TestTierJustBelow030HasNoConcludedLicense(t *testing.T) {
	delta := &deltacode.Report{Body: map[deltacode.Category][]deltacode.Pair{
		deltacode.SameFiles: {{Old: deltacode.FileRecord{Path: "a"}, New: deltacode.FileRecord{Path: "a"}}},
	}}
	doc, tier := Synthesize(scancodeDoc([]string{"a"}), delta, debianDoc([]string{"a"}), Options{Similarity: 0.2999})
	if tier != TierScancodeOnly {
		t.Fatalf("tier = %v, want %v", tier, TierScancodeOnly)
	}
	f := doc.Packages[0].Files[0]
	if f.LicenseConcluded != "NOASSERTION" {
		t.Fatalf("LicenseConcluded = %q, want NOASSERTION", f.LicenseConcluded)
	}
}

func TestTierFullDebianAppliesPackageMetadata(t *testing.T) {
	delta := &deltacode.Report{Body: map[deltacode.Category][]deltacode.Pair{
		deltacode.SameFiles: {{Old: deltacode.FileRecord{Path: "a"}, New: deltacode.FileRecord{Path: "a"}}},
	}}
	doc, tier := Synthesize(scancodeDoc([]string{"a"}), delta, debianDoc([]string{"a"}), Options{Similarity: 1.0})
	if tier != TierFullDebian {
		t.Fatalf("tier = %v, want %v", tier, TierFullDebian)
	}
	pkg := doc.Packages[0]
	if pkg.PackageCopyrightText != "1995 Foo" {
		t.Fatalf("PackageCopyrightText not propagated: %q", pkg.PackageCopyrightText)
	}
}

func TestForceDebianFullOverridesLowSimilarity(t *testing.T) {
	delta := &deltacode.Report{Body: map[deltacode.Category][]deltacode.Pair{
		deltacode.SameFiles: {{Old: deltacode.FileRecord{Path: "a"}, New: deltacode.FileRecord{Path: "a"}}},
	}}
	_, tier := Synthesize(scancodeDoc([]string{"a"}), delta, debianDoc([]string{"a"}), Options{Similarity: 0.01, ForceDebianFull: true})
	if tier != TierFullDebian {
		t.Fatalf("tier = %v, want %v under --apply-debian-full", tier, TierFullDebian)
	}
}

func TestNoDebianMatchIsScancodeOnly(t *testing.T) {
	doc, tier := Synthesize(scancodeDoc([]string{"a"}), nil, nil, Options{Similarity: 0.99})
	if tier != TierScancodeOnly {
		t.Fatalf("tier = %v, want %v", tier, TierScancodeOnly)
	}
	if doc.Packages[0].Files[0].LicenseConcluded != "NOASSERTION" {
		t.Fatal("expected scancode-only output to have no concluded license")
	}
}
