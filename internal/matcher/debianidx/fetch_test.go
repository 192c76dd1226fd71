package debianidx

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"testing"
)

func TestClassifySortsByFilenameConvention(t *testing.T) {
	files := []Artifact{
		{SrcURI: "https://deb.example/pool/z/zlib_1.2.13.dsc"},
		{SrcURI: "https://deb.example/pool/z/zlib_1.2.13.orig.tar.gz"},
		{SrcURI: "https://deb.example/pool/z/zlib_1.2.13-1.debian.tar.xz"},
	}
	orig, overlay, dsc := Classify(files)
	if orig == nil || orig.SrcURI != files[1].SrcURI {
		t.Errorf("expected orig to be %q, got %+v", files[1].SrcURI, orig)
	}
	if overlay == nil || overlay.SrcURI != files[2].SrcURI {
		t.Errorf("expected overlay to be %q, got %+v", files[2].SrcURI, overlay)
	}
	if dsc == nil || dsc.SrcURI != files[0].SrcURI {
		t.Errorf("expected dsc to be %q, got %+v", files[0].SrcURI, dsc)
	}
}

func TestClassifyRecognizesDiffGzOverlay(t *testing.T) {
	files := []Artifact{{SrcURI: "https://deb.example/pool/z/zlib_1.2.13-1.diff.gz"}}
	_, overlay, _ := Classify(files)
	if overlay == nil {
		t.Fatal("expected .diff.gz to classify as the overlay")
	}
}

func buildDebianTarGz(t *testing.T, control, copyright string) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for name, content := range map[string]string{
		"debian/control":   control,
		"debian/copyright": copyright,
		"debian/rules":     "#!/usr/bin/make -f\n",
	} {
		if err := tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	if _, err := gw.Write(tarBuf.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return gzBuf.Bytes()
}

func TestExtractControlAndCopyrightFromTarGz(t *testing.T) {
	data := buildDebianTarGz(t, "Source: zlib\n", "Format: https://www.debian.org/doc/packaging-manuals/copyright-format/1.0/\n")

	control, copyright, err := extractControlAndCopyright(data, "zlib_1.2.13-1.debian.tar.gz")
	if err != nil {
		t.Fatal(err)
	}
	if string(control) != "Source: zlib\n" {
		t.Errorf("unexpected control content: %q", control)
	}
	if string(copyright) == "" {
		t.Error("expected copyright content to be extracted")
	}
}
