package clearing

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/alien4friends/a4f-core/internal/alienpkg"
)

func buildAliensrc(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	manifest := []byte(`{}`)
	if err := tw.WriteHeader(&tar.Header{Name: alienpkg.ManifestEntryName, Size: int64(len(manifest)), Mode: 0o644}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(manifest); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		hdr := &tar.Header{Name: alienpkg.FilesPrefix + name, Size: int64(len(content)), Mode: 0o644}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPackFilesSubtreeStripsPrefix(t *testing.T) {
	src := buildAliensrc(t, map[string]string{
		"src/main.c":     "int main(){}",
		"COPYING":        "license text",
	})

	var packed bytes.Buffer
	if err := PackFilesSubtree(context.Background(), bytes.NewReader(src), &packed); err != nil {
		t.Fatal(err)
	}

	xzr, err := xz.NewReader(bytes.NewReader(packed.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	tr := tar.NewReader(xzr)
	got := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		got[hdr.Name] = string(body)
	}

	if got["src/main.c"] != "int main(){}" {
		t.Errorf("expected src/main.c to survive with files/ prefix stripped, got %+v", got)
	}
	if got["COPYING"] != "license text" {
		t.Errorf("expected COPYING to survive with files/ prefix stripped, got %+v", got)
	}
	if _, ok := got[alienpkg.ManifestEntryName]; ok {
		t.Error("expected aliensrc.json not to be repacked")
	}
}
