package debianidx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
)

// FileHash is a file's SHA1, the key the Debian snapshot service indexes
// by.
type FileHash string

// Artifact describes one downloadable Debian source artifact. Defined
// here (rather than in the matcher package, which imports this one) so
// both the Current/Snapshot SourceFiles methods and matcher.Result can share the shape
// without an import cycle; matcher.Artifact is a type alias to this.
type Artifact struct {
	PoolPath  string `json:"pool_path"`
	SrcURI    string `json:"src_uri"`
	SHA1Cksum string `json:"sha1_cksum,omitempty"`
}

// SnapshotFile is one file known to the snapshot service for a given
// SHA1, sufficient to resolve the source package it shipped in.
type SnapshotFile struct {
	SrcPackage string `json:"srcpkg"`
	SrcVersion string `json:"srcver"`
	Name       string `json:"name"`
	Path       string `json:"path"`
}

// Snapshot is the historical Debian snapshot index, keyed by file SHA1
// per spec.md §4.4b.
type Snapshot interface {
	// BySHA1 resolves a file's SHA1 to the source packages that have
	// shipped it, if any.
	BySHA1(ctx context.Context, sum FileHash) ([]SnapshotFile, error)
	// Versions returns every version known for a source package name.
	Versions(ctx context.Context, name string) ([]string, error)
	// SourceFiles lists the files belonging to one (name, version) source
	// package, with their own SHA1s and download URIs, per the srcfiles[]
	// field in spec.md §4.4b.
	SourceFiles(ctx context.Context, name, version string) ([]Artifact, error)
	// Fetch retrieves a file by its snapshot URI.
	Fetch(ctx context.Context, uri string) (io.ReadCloser, error)
}

// HTTPSnapshot is the production Snapshot implementation, targeting
// snapshot.debian.org's JSON API surface.
type HTTPSnapshot struct {
	Client  *http.Client
	BaseURL string
}

var _ Snapshot = (*HTTPSnapshot)(nil)

func NewHTTPSnapshot(baseURL string) *HTTPSnapshot {
	return &HTTPSnapshot{
		Client:  &http.Client{Timeout: 30 * time.Second},
		BaseURL: baseURL,
	}
}

func (h *HTTPSnapshot) BySHA1(ctx context.Context, sum FileHash) ([]SnapshotFile, error) {
	url := fmt.Sprintf("%s/mr/file/%s/info", h.BaseURL, sum)
	rc, err := h.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var resp struct {
		Result []SnapshotFile `json:"result"`
	}
	if err := json.NewDecoder(rc).Decode(&resp); err != nil {
		return nil, a4ferr.New("debianidx.HTTPSnapshot.BySHA1", a4ferr.KindCorruptInput, "malformed snapshot response", err)
	}
	return resp.Result, nil
}

func (h *HTTPSnapshot) Versions(ctx context.Context, name string) ([]string, error) {
	url := fmt.Sprintf("%s/mr/package/%s/", h.BaseURL, name)
	rc, err := h.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var resp struct {
		Result []struct {
			Version string `json:"version"`
		} `json:"result"`
	}
	if err := json.NewDecoder(rc).Decode(&resp); err != nil {
		return nil, a4ferr.New("debianidx.HTTPSnapshot.Versions", a4ferr.KindCorruptInput, "malformed snapshot response", err)
	}
	out := make([]string, len(resp.Result))
	for i, r := range resp.Result {
		out[i] = r.Version
	}
	return out, nil
}

func (h *HTTPSnapshot) SourceFiles(ctx context.Context, name, version string) ([]Artifact, error) {
	url := fmt.Sprintf("%s/mr/package/%s/%s/srcfiles?fileinfo=1", h.BaseURL, name, version)
	rc, err := h.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var resp struct {
		Result []struct {
			Hash FileHash `json:"hash"`
		} `json:"result"`
		Fileinfo map[FileHash][]struct {
			Path string `json:"path"`
			Name string `json:"name"`
		} `json:"fileinfo"`
	}
	if err := json.NewDecoder(rc).Decode(&resp); err != nil {
		return nil, a4ferr.New("debianidx.HTTPSnapshot.SourceFiles", a4ferr.KindCorruptInput, "malformed snapshot response", err)
	}
	out := make([]Artifact, 0, len(resp.Result))
	for _, r := range resp.Result {
		uri := ""
		if infos := resp.Fileinfo[r.Hash]; len(infos) > 0 {
			uri = fmt.Sprintf("%s/file/%s", h.BaseURL, r.Hash)
			_ = infos
		}
		out = append(out, Artifact{SHA1Cksum: string(r.Hash), SrcURI: uri})
	}
	return out, nil
}

func (h *HTTPSnapshot) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	return h.get(ctx, uri)
}

func (h *HTTPSnapshot) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, a4ferr.New("debianidx.HTTPSnapshot.get", a4ferr.KindNetwork, url, err)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, a4ferr.New("debianidx.HTTPSnapshot.get", a4ferr.KindNetwork, url, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, a4ferr.New("debianidx.HTTPSnapshot.get", a4ferr.KindNotFound, url, nil)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, a4ferr.New("debianidx.HTTPSnapshot.get", a4ferr.KindNetwork,
			fmt.Sprintf("unexpected status %s for %s", resp.Status, url), nil)
	}
	return resp.Body, nil
}
