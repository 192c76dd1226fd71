package alienpkg

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func buildManifest(t *testing.T, files []ManifestFile) []byte {
	t.Helper()
	data, err := json.Marshal(Manifest{
		Version: 1,
		SourcePackage: SourcePackage{
			Name:    []string{"zlib"},
			Version: "1.2.13",
			Manager: "bitbake",
			Files:   files,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func buildTar(t *testing.T, manifest []byte, names []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{Name: ManifestEntryName, Size: int64(len(manifest)), Mode: 0o644}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(manifest); err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		if err := tw.WriteHeader(&tar.Header{Name: FilesPrefix + n, Size: 0, Mode: 0o644}); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseRejectsMissingManifestFirst(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{Name: "files/a.c", Size: 0, Mode: 0o644}); err != nil {
		t.Fatal(err)
	}
	tw.Close()

	if _, err := Parse(context.Background(), bytes.NewReader(buf.Bytes())); err == nil {
		t.Fatal("expected an error when aliensrc.json is not the first tar member")
	}
}

func TestParseRejectsMembersOutsideFiles(t *testing.T) {
	sha1 := "000000000000000000000000000000000000000a"
	manifest := buildManifest(t, []ManifestFile{{Name: "a.c", SHA1Cksum: sha1, FilesInArchive: false}})

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	tw.WriteHeader(&tar.Header{Name: ManifestEntryName, Size: int64(len(manifest)), Mode: 0o644})
	tw.Write(manifest)
	tw.WriteHeader(&tar.Header{Name: "stray.txt", Size: 0, Mode: 0o644})
	tw.Close()

	if _, err := Parse(context.Background(), bytes.NewReader(buf.Bytes())); err == nil {
		t.Fatal("expected an error for a tar member outside files/")
	}
}

func TestSelectMainArchiveSkipsUnpackZero(t *testing.T) {
	sha1 := "000000000000000000000000000000000000000a"
	files := []ManifestFile{
		{Name: "patch.diff", SHA1Cksum: sha1, FilesInArchive: false, SrcURI: "https://example.org/patch.diff"},
		{Name: "extra.tar.gz", SHA1Cksum: sha1, FilesInArchive: float64(3), SrcURI: "https://example.org/extra.tar.gz;unpack=0"},
		{Name: "main.tar.gz", SHA1Cksum: sha1, FilesInArchive: float64(12), SrcURI: "https://example.org/main.tar.gz"},
	}
	manifest := buildManifest(t, files)
	raw := buildTar(t, manifest, nil)

	pkg, err := Parse(context.Background(), bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if pkg.Main == nil || pkg.Main.Name != "main.tar.gz" {
		t.Fatalf("expected main.tar.gz to be selected, got %+v", pkg.Main)
	}
}

func TestSelectMainArchiveNoInternalArchive(t *testing.T) {
	sha1 := "000000000000000000000000000000000000000a"
	files := []ManifestFile{{Name: "patch.diff", SHA1Cksum: sha1, FilesInArchive: false}}
	manifest := buildManifest(t, files)
	raw := buildTar(t, manifest, nil)

	pkg, err := Parse(context.Background(), bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if pkg.Main != nil {
		t.Fatalf("expected no main archive, got %+v", pkg.Main)
	}
	if _, _, ok := pkg.MainArchiveIdentity(); ok {
		t.Error("expected MainArchiveIdentity to report !ok when there is no main archive")
	}
}

func TestMainArchiveIdentityUsesGitSHA1(t *testing.T) {
	sha1 := "000000000000000000000000000000000000000a"
	gitSHA1 := "abc123"
	files := []ManifestFile{
		{Name: "main.git", SHA1Cksum: sha1, FilesInArchive: float64(5), SrcURI: "git://example.org/repo.git", GitSHA1: &gitSHA1},
	}
	manifest := buildManifest(t, files)
	raw := buildTar(t, manifest, nil)

	pkg, err := Parse(context.Background(), bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	name, sha, ok := pkg.MainArchiveIdentity()
	if !ok || name != "main.git" || sha != gitSHA1 {
		t.Errorf("unexpected MainArchiveIdentity result: name=%q sha=%q ok=%v", name, sha, ok)
	}
}
