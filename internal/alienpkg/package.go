package alienpkg

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"runtime/trace"
	"strings"

	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/identity"
)

// ManifestEntryName and FilesPrefix name the two tar member conventions an
// .aliensrc archive must follow, per spec.md §6.
const (
	ManifestEntryName = "aliensrc.json"
	FilesPrefix       = "files/"
)

// Package is the parsed, immutable representation of a ".aliensrc" tarball,
// per spec.md §3: "materialized when add ingests the tarball; immutable
// thereafter."
type Package struct {
	Manifest Manifest
	// Main is the selected main internal archive, if any — nil means
	// NoInternalArchive.
	Main *ManifestFile
}

// PrimaryName is the manifest's first alias, the name used for Pool
// resolution.
func (p *Package) PrimaryName() string {
	return p.Manifest.SourcePackage.Name[0]
}

// Version is the manifest's declared version.
func (p *Package) Version() string {
	return p.Manifest.SourcePackage.Version
}

// Identity builds the package identity for this package. Variant is left
// to the caller (it is not carried in the manifest itself).
func (p *Package) Identity(variant string) identity.Identity {
	return identity.Identity{Name: p.PrimaryName(), Version: p.Version(), Variant: variant}
}

// Parse reads an uncompressed tar stream whose first member must be
// aliensrc.json, per spec.md §4.3, and selects the main internal archive.
func Parse(ctx context.Context, r io.Reader) (*Package, error) {
	defer trace.StartRegion(ctx, "alienpkg.Parse").End()
	tr := tar.NewReader(r)
	hdr, err := tr.Next()
	if err != nil {
		return nil, a4ferr.New("alienpkg.Parse", a4ferr.KindCorruptInput, "empty archive", err)
	}
	if base := strings.TrimPrefix(hdr.Name, "./"); base != "aliensrc.json" {
		return nil, a4ferr.New("alienpkg.Parse", a4ferr.KindCorruptInput,
			fmt.Sprintf("first tar member must be aliensrc.json, got %q", hdr.Name), nil)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, tr); err != nil {
		return nil, a4ferr.New("alienpkg.Parse", a4ferr.KindCorruptInput, "cannot read aliensrc.json", err)
	}
	m, err := ParseManifest(buf.Bytes())
	if err != nil {
		return nil, err
	}

	// The rest of the tar stream must be "files/<...>" members; we don't
	// need their contents here, only that the archive isn't truncated, so
	// drain it. Scanning (ScanCode) and upload re-packing operate on the
	// archive independently via their own io.Reader over the same source.
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, a4ferr.New("alienpkg.Parse", a4ferr.KindCorruptInput, "truncated archive", err)
		}
		if !strings.HasPrefix(strings.TrimPrefix(hdr.Name, "./"), "files/") {
			return nil, a4ferr.New("alienpkg.Parse", a4ferr.KindCorruptInput,
				fmt.Sprintf("unexpected tar member outside files/: %q", hdr.Name), nil)
		}
	}

	pkg := &Package{Manifest: *m}
	pkg.Main = selectMainArchive(ctx, m.SourcePackage.Files)
	return pkg, nil
}

// selectMainArchive implements the rule in spec.md §4.3: among files whose
// files_in_archive is a positive integer, pick the one whose src_uri query
// parameters do not contain an unpack=0 equivalent; ties are broken by
// order of appearance. Per SPEC_FULL.md's restored detail, multiple
// eligible files with none eliminated by unpack=0 still yields the first
// one. Zero eligible files returns nil (NoInternalArchive): ingestion
// itself never fails for this, since the commons source leaves
// internal_archive_name unset and lets downstream matching decide —
// the current-index matcher (current.Match) is where NoInternalArchive is
// an actual error.
func selectMainArchive(ctx context.Context, files []ManifestFile) *ManifestFile {
	var eligible []*ManifestFile
	for i := range files {
		f := &files[i]
		count, isArchive := f.FilesInArchiveCount()
		if !isArchive || count <= 0 {
			continue
		}
		eligible = append(eligible, f)
	}
	if len(eligible) == 0 {
		return nil
	}
	for _, f := range eligible {
		if !hasUnpackZero(f.SrcURI) {
			return f
		}
	}
	zlog.Debug(ctx).
		Int("candidates", len(eligible)).
		Msg("all internal archive candidates marked unpack=0, using first by manifest order")
	return eligible[0]
}

// hasUnpackZero reports whether src_uri's parameters mark the fetched
// archive as not-to-be-unpacked: bitbake's ";unpack=0" fetcher parameter,
// or an "unpack=0" URL query parameter.
func hasUnpackZero(srcURI string) bool {
	isOff := func(v string) bool { return v == "0" || strings.EqualFold(v, "false") }
	parts := strings.Split(srcURI, ";")
	for _, p := range parts[1:] {
		if k, v, ok := strings.Cut(p, "="); ok && strings.TrimSpace(k) == "unpack" && isOff(strings.TrimSpace(v)) {
			return true
		}
	}
	u, err := url.Parse(parts[0])
	if err != nil {
		return false
	}
	return isOff(u.Query().Get("unpack"))
}

// MainArchiveIdentity returns the canonical archive identity: for a
// git://-fetched main archive, the git_sha1 becomes part of it, per
// spec.md §4.3.
func (p *Package) MainArchiveIdentity() (name string, gitSHA1 string, ok bool) {
	if p.Main == nil {
		return "", "", false
	}
	if strings.HasPrefix(p.Main.SrcURI, "git://") && p.Main.GitSHA1 != nil {
		return p.Main.Name, *p.Main.GitSHA1, true
	}
	return p.Main.Name, "", true
}
