package debian2spdx

import (
	"strings"
	"testing"
)

const sampleCopyright = `Format: https://www.debian.org/doc/packaging-manuals/copyright-format/1.0/
Upstream-Name: zlib
Source: https://zlib.net

Files: *
Copyright: 1995-2017 Jean-loup Gailly and Mark Adler
License: Zlib

Files: contrib/minizip/*
Copyright: 1998-2005 Gilles Vollant
License: BSD-3-clause

License: Zlib
 Permission is granted to anyone to use this software...
`

const sampleControl = `Source: zlib
Maintainer: Debian zlib maintainers <pkg-zlib@lists.debian.org>
Homepage: https://zlib.net

Package: zlib1g
Architecture: any
`

func TestParseCopyrightMachineReadable(t *testing.T) {
	c, err := ParseCopyright(strings.NewReader(sampleCopyright))
	if err != nil {
		t.Fatalf("ParseCopyright: %v", err)
	}
	if len(c.Files) != 2 {
		t.Fatalf("got %d Files: stanzas, want 2", len(c.Files))
	}
	if len(c.Licenses) != 1 {
		t.Fatalf("got %d stand-alone license paragraphs, want 1", len(c.Licenses))
	}
}

func TestParseCopyrightRejectsMissingFormat(t *testing.T) {
	_, err := ParseCopyright(strings.NewReader("Upstream-Name: foo\n\nFiles: *\nCopyright: x\nLicense: MIT\n"))
	if err == nil {
		t.Fatal("expected CopyrightNotMachineParseable error for a missing Format: header")
	}
}

func TestParseControl(t *testing.T) {
	ctrl, err := ParseControl(strings.NewReader(sampleControl))
	if err != nil {
		t.Fatalf("ParseControl: %v", err)
	}
	if ctrl.Source != "zlib" {
		t.Fatalf("Source = %q, want zlib", ctrl.Source)
	}
}

func TestBuildDocument(t *testing.T) {
	c, err := ParseCopyright(strings.NewReader(sampleCopyright))
	if err != nil {
		t.Fatalf("ParseCopyright: %v", err)
	}
	ctrl, err := ParseControl(strings.NewReader(sampleControl))
	if err != nil {
		t.Fatalf("ParseControl: %v", err)
	}

	tree := []string{"zconf.h", "contrib/minizip/zip.c", "README"}
	doc := Build(c, ctrl, BuildOptions{
		SourceName:        "zlib",
		SourceVersion:     "1.2.11",
		Tree:              tree,
		DocumentNamespace: "https://example.invalid/spdx/zlib-1.2.11",
	})

	if len(doc.Packages) != 1 {
		t.Fatalf("got %d packages, want 1", len(doc.Packages))
	}
	pkg := doc.Packages[0]
	if len(pkg.Files) != 3 {
		t.Fatalf("got %d files, want 3 (all matched by * or the minizip glob)", len(pkg.Files))
	}

	for _, f := range pkg.Files {
		if f.FileName == "contrib/minizip/zip.c" && f.LicenseConcluded != "BSD-3-clause" {
			t.Fatalf("minizip file LicenseConcluded = %q, want BSD-3-clause", f.LicenseConcluded)
		}
	}

	if !strings.Contains(pkg.PackageLicenseConcluded, "AND") {
		t.Fatalf("PackageLicenseConcluded = %q, want a conservative AND of Zlib and BSD-3-clause", pkg.PackageLicenseConcluded)
	}
}
