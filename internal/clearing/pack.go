package clearing

import (
	"archive/tar"
	"context"
	"io"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/alienpkg"
)

// PackFilesSubtree re-packs the files/ subtree of an .aliensrc as a
// .tar.xz with the files/ prefix stripped, so the clearing server unpacks
// paths directly under the upload root, per spec.md §4.8.
func PackFilesSubtree(ctx context.Context, r io.Reader, w io.Writer) error {
	xzw, err := xz.NewWriter(w)
	if err != nil {
		return a4ferr.New("clearing.PackFilesSubtree", a4ferr.KindInternal, "init xz writer", err)
	}
	defer xzw.Close()

	tw := tar.NewWriter(xzw)
	defer tw.Close()

	tr := tar.NewReader(r)
	first := true
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return a4ferr.New("clearing.PackFilesSubtree", a4ferr.KindCorruptInput, "reading aliensrc tar", err)
		}
		if first {
			if hdr.Name != alienpkg.ManifestEntryName {
				return a4ferr.New("clearing.PackFilesSubtree", a4ferr.KindCorruptInput, "aliensrc.json must be first tar member", nil)
			}
			first = false
			continue
		}
		rel, ok := strings.CutPrefix(hdr.Name, alienpkg.FilesPrefix)
		if !ok || rel == "" {
			continue
		}
		newHdr := *hdr
		newHdr.Name = rel
		if err := tw.WriteHeader(&newHdr); err != nil {
			return a4ferr.New("clearing.PackFilesSubtree", a4ferr.KindInternal, "writing tar header", err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := io.Copy(tw, tr); err != nil {
				return a4ferr.New("clearing.PackFilesSubtree", a4ferr.KindInternal, "copying file body", err)
			}
		}
	}
	return nil
}
