// Package debianidx is the typed adapter over the Debian archive HTTP
// surfaces both matchers query, expressed as an interface per the Design
// Note in spec.md §9 so tests can substitute an in-memory fake instead of
// hitting the network.
package debianidx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
)

// SourcePackageVersions is one Debian source package name and every
// version of it the index knows about.
type SourcePackageVersions struct {
	Name     string
	Versions []string
}

// Current is the current Debian index: debian/fetch.go-style HTTP calls
// against a JSON package index plus the .dsc/.orig.tar.*/.debian.tar.*
// download surface.
type Current interface {
	// Candidates returns every source package name the index has, for
	// name-matching against the alien's aliases.
	Candidates(ctx context.Context) ([]string, error)
	// Versions returns every version known for a given source package
	// name.
	Versions(ctx context.Context, name string) ([]string, error)
	// SourceFiles returns the download descriptors (.dsc, .orig.tar.*,
	// .debian.tar.*/.diff.gz) for one (name, version) source package.
	SourceFiles(ctx context.Context, name, version string) ([]Artifact, error)
	// Fetch retrieves one Debian source artifact (a .dsc, .orig.tar.*, or
	// .debian.tar.*/.diff.gz) by URL.
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPCurrent is the production Current implementation.
type HTTPCurrent struct {
	Client  *http.Client
	IndexURL string
}

var _ Current = (*HTTPCurrent)(nil)

// NewHTTPCurrent builds an HTTPCurrent against indexURL (a JSON document
// mapping source package name to its known versions), with a bounded
// client timeout matching the "explicit timeout" requirement in §5.
func NewHTTPCurrent(indexURL string) *HTTPCurrent {
	return &HTTPCurrent{
		Client:   &http.Client{Timeout: 30 * time.Second},
		IndexURL: indexURL,
	}
}

func (h *HTTPCurrent) Candidates(ctx context.Context) ([]string, error) {
	idx, err := h.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(idx))
	for n := range idx {
		names = append(names, n)
	}
	return names, nil
}

func (h *HTTPCurrent) Versions(ctx context.Context, name string) ([]string, error) {
	idx, err := h.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(idx[name]))
	for _, v := range idx[name] {
		versions = append(versions, v.Version)
	}
	return versions, nil
}

func (h *HTTPCurrent) SourceFiles(ctx context.Context, name, version string) ([]Artifact, error) {
	idx, err := h.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range idx[name] {
		if v.Version == version {
			return v.Files, nil
		}
	}
	return nil, a4ferr.New("debianidx.HTTPCurrent.SourceFiles", a4ferr.KindNotFound,
		fmt.Sprintf("no files known for %s %s", name, version), nil)
}

func (h *HTTPCurrent) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "debianidx.HTTPCurrent.Fetch", "url", url)
	zlog.Debug(ctx).Msg("fetching debian source artifact")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, a4ferr.New("debianidx.Fetch", a4ferr.KindNetwork, url, err)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, a4ferr.New("debianidx.Fetch", a4ferr.KindNetwork, url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, a4ferr.New("debianidx.Fetch", a4ferr.KindNetwork,
			fmt.Sprintf("unexpected status %s fetching %s", resp.Status, url), nil)
	}
	return resp.Body, nil
}

// loadIndex fetches and parses IndexURL. Production deployments point this
// at a generated snapshot of the Debian Sources index; the exact schema is
// an external collaborator per spec.md §1 so this only needs a simple
// name->versions JSON shape.
func (h *HTTPCurrent) loadIndex(ctx context.Context) (map[string][]IndexVersion, error) {
	rc, err := h.Fetch(ctx, h.IndexURL)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	idx, err := decodeIndex(rc)
	if err != nil {
		return nil, a4ferr.New("debianidx.loadIndex", a4ferr.KindCorruptInput, "malformed index document", err)
	}
	return idx, nil
}
