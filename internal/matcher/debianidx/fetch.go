package debianidx

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"path"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/pool"
)

// Classify sorts a (name, version) source package's download descriptors
// into the three roles spec.md §4.4 names: the upstream tarball
// (debsrc_orig), the packaging overlay (debsrc_debian), and the .dsc
// control file, by filename convention. Unrecognized entries are ignored.
func Classify(files []Artifact) (orig, overlay, dsc *Artifact) {
	for i := range files {
		f := &files[i]
		name := filenameOf(f)
		switch {
		case strings.Contains(name, ".orig.tar"):
			orig = f
		case strings.Contains(name, ".debian.tar"), strings.HasSuffix(name, ".diff.gz"):
			overlay = f
		case strings.HasSuffix(name, ".dsc"):
			dsc = f
		}
	}
	return orig, overlay, dsc
}

func filenameOf(a *Artifact) string {
	if a.PoolPath != "" {
		return path.Base(a.PoolPath)
	}
	return path.Base(a.SrcURI)
}

// Fetcher is the subset of Current/Snapshot both matchers already
// implement: retrieving one artifact's bytes by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Store downloads the classified Debian source artifacts for one (name,
// version) and writes them under the Pool's "debian" relationship, per
// spec.md §4.4: "stores them under pool/debian/<name>/<version>/". When
// the overlay is a tar archive (Debian source format "3.0 (quilt)" or
// "3.0 (native)"), debian/control and debian/copyright are additionally
// extracted into their own raw pool entries for internal/debian2spdx.
//
// Format "1.0"'s .diff.gz overlay is a unified diff against the upstream
// tree, not a standalone archive; extracting debian/control and
// debian/copyright from it would require applying the patch to the
// unpacked orig tarball first. That reconstruction is not implemented
// here — format "1.0" packages are stored (dsc + orig + diff.gz) but
// leave DEBIAN_CONTROL_RAW/DEBIAN_COPYRIGHT_RAW unpopulated, which
// internal/debian2spdx already treats as "no Debian match" per its
// read-miss fallback in cmd_spdxdebian.go.
func Store(ctx context.Context, fetcher Fetcher, p *pool.Pool, name, version string, files []Artifact) error {
	ctx = zlog.ContextWithValues(ctx, "component", "debianidx.Store", "debian_name", name, "debian_version", version)

	orig, overlay, dsc := Classify(files)
	if dsc != nil {
		data, err := fetchBytes(ctx, fetcher, dsc.SrcURI)
		if err != nil {
			return err
		}
		if err := p.Write(p.Resolve(pool.Debian, name, version, "", pool.DEBIAN_DSC_RAW), data, pool.Overwrite); err != nil {
			return err
		}
	}
	if orig != nil {
		data, err := fetchBytes(ctx, fetcher, orig.SrcURI)
		if err != nil {
			return err
		}
		if err := p.Write(p.Resolve(pool.Debian, name, version, "", pool.DEBIAN_ORIG_RAW), data, pool.Overwrite); err != nil {
			return err
		}
	}
	if overlay == nil {
		zlog.Warn(ctx).Msg("no debian overlay artifact found, storing dsc/orig only")
		return nil
	}
	overlayBytes, err := fetchBytes(ctx, fetcher, overlay.SrcURI)
	if err != nil {
		return err
	}
	if err := p.Write(p.Resolve(pool.Debian, name, version, "", pool.DEBIAN_OVERLAY_RAW), overlayBytes, pool.Overwrite); err != nil {
		return err
	}

	if strings.HasSuffix(filenameOf(overlay), ".diff.gz") {
		zlog.Debug(ctx).Msg("overlay is a 1.0 diff.gz, skipping control/copyright extraction")
		return nil
	}
	control, copyright, err := extractControlAndCopyright(overlayBytes, filenameOf(overlay))
	if err != nil {
		zlog.Warn(ctx).Err(err).Msg("could not extract debian/control and debian/copyright from overlay")
		return nil
	}
	if control != nil {
		if err := p.Write(p.Resolve(pool.Debian, name, version, "", pool.DEBIAN_CONTROL_RAW), control, pool.Overwrite); err != nil {
			return err
		}
	}
	if copyright != nil {
		if err := p.Write(p.Resolve(pool.Debian, name, version, "", pool.DEBIAN_COPYRIGHT_RAW), copyright, pool.Overwrite); err != nil {
			return err
		}
	}
	return nil
}

func fetchBytes(ctx context.Context, fetcher Fetcher, url string) ([]byte, error) {
	rc, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, a4ferr.New("debianidx.Store", a4ferr.KindNetwork, url, err)
	}
	return data, nil
}

// extractControlAndCopyright walks a tar archive (optionally gzip or xz
// compressed, per name's extension) for the first debian/control and
// debian/copyright members, wherever they sit in the archive (the
// "debian.tar.*" overlay has no other top-level directory).
func extractControlAndCopyright(data []byte, name string) (control, copyright []byte, err error) {
	r, err := decompressReader(data, name)
	if err != nil {
		return nil, nil, err
	}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, a4ferr.New("debianidx.extractControlAndCopyright", a4ferr.KindCorruptInput, name, err)
		}
		base := strings.TrimPrefix(hdr.Name, "./")
		switch {
		case strings.HasSuffix(base, "debian/control"):
			control, err = io.ReadAll(tr)
		case strings.HasSuffix(base, "debian/copyright"):
			copyright, err = io.ReadAll(tr)
		default:
			continue
		}
		if err != nil {
			return nil, nil, a4ferr.New("debianidx.extractControlAndCopyright", a4ferr.KindCorruptInput, base, err)
		}
	}
	return control, copyright, nil
}

func decompressReader(data []byte, name string) (io.Reader, error) {
	switch {
	case strings.HasSuffix(name, ".tar.xz"):
		return xz.NewReader(bytes.NewReader(data))
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tar.Z"):
		return gzip.NewReader(bytes.NewReader(data))
	default:
		return bytes.NewReader(data), nil
	}
}
