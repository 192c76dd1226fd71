// Package pool implements the content-addressable workspace described in
// spec.md §4.1: a directory tree on disk, resolved by (relationship, name,
// version, basename, ext), with an "ensure" primitive (§9) modeling the
// source's pool-cache decorator as an explicit read-or-produce-then-write
// step instead of a decorator applied to every command.
package pool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
)

// Relationship is the first path segment under the pool root.
type Relationship string

const (
	Userland Relationship = "userland"
	Debian   Relationship = "debian"
	Stats    Relationship = "stats"
	Session  Relationship = "session"
)

// Filetype is the closed set of pool artifact extensions from spec.md §6.
type Filetype string

const (
	ALIENSRC          Filetype = "aliensrc"
	TINFOILHAT        Filetype = "tinfoilhat.json"
	ALIENMATCHER      Filetype = "alienmatcher.json"
	SNAPMATCH         Filetype = "snapmatch.json"
	SCANCODE_JSON     Filetype = "scancode.json"
	SCANCODE_SPDX     Filetype = "scancode.spdx"
	DELTACODE         Filetype = "deltacode.json"
	DEBIAN_SPDX       Filetype = "debian.spdx"
	DEBIAN_COPYRIGHT_RAW Filetype = "_debian_copyright"
	DEBIAN_CONTROL_RAW   Filetype = "_debian_control"
	DEBIAN_DSC_RAW       Filetype = "dsc"
	DEBIAN_ORIG_RAW      Filetype = "orig"
	DEBIAN_OVERLAY_RAW   Filetype = "debian_overlay"
	ALIEN_SPDX        Filetype = "alien.spdx"
	UPLOAD_JSON       Filetype = "upload.json"
	FOSSY_JSON        Filetype = "fossy.json"
	FINAL_SPDX        Filetype = "final.spdx"
	HARVEST           Filetype = "harvest.json"
	CVE_HARVEST       Filetype = "cve.json"
	SESSION_JSON      Filetype = "session.json"
)

// prerequisites states, for each Filetype, the Filetypes that must already
// exist for the same identity before it can be written — the Pool entry
// invariant from spec.md §3.
var prerequisites = map[Filetype][]Filetype{
	SNAPMATCH:     {ALIENSRC},
	ALIENMATCHER:  {ALIENSRC},
	SCANCODE_JSON: {ALIENSRC},
	SCANCODE_SPDX: {ALIENSRC},
	DELTACODE:     {SCANCODE_JSON},
	DEBIAN_SPDX:   {ALIENMATCHER},
	ALIEN_SPDX:    {SCANCODE_SPDX},
	FOSSY_JSON:    {ALIEN_SPDX},
	FINAL_SPDX:    {FOSSY_JSON},
	CVE_HARVEST:   {ALIENSRC},
	DEBIAN_COPYRIGHT_RAW: {DEBIAN_OVERLAY_RAW},
	DEBIAN_CONTROL_RAW:   {DEBIAN_OVERLAY_RAW},
}

// ExistsMode controls Write's behavior when the target path is already
// present.
type ExistsMode int

const (
	Fail ExistsMode = iota
	Overwrite
)

// Pool is a content-addressable workspace rooted at Root. The zero value is
// not usable; construct with Open.
type Pool struct {
	Root        string
	CacheGlobal bool
	// IgnoreCache inverts CacheGlobal for the current command only, per
	// the -i/--ignore-cache flag in spec.md §6.
	IgnoreCache bool
}

// Open validates that root exists (creating it if absent) and returns a
// Pool rooted there.
func Open(root string, cacheGlobal bool) (*Pool, error) {
	if root == "" {
		return nil, a4ferr.New("pool.Open", a4ferr.KindConfig, "empty pool root", nil)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, a4ferr.New("pool.Open", a4ferr.KindConfig, "cannot create pool root", err)
	}
	return &Pool{Root: root, CacheGlobal: cacheGlobal}, nil
}

// Resolve returns the logical path for an artifact, per spec.md §3:
// "<relationship>/<name>/<version>/<basename>.<ext>".
func (p *Pool) Resolve(rel Relationship, name, version, basename string, ext Filetype) string {
	if basename == "" {
		basename = name
	}
	return filepath.Join(p.Root, string(rel), name, version, fmt.Sprintf("%s.%s", basename, ext))
}

// cacheActive reports whether cache semantics are in effect for this call.
func (p *Pool) cacheActive() bool {
	if p.IgnoreCache {
		return false
	}
	return p.CacheGlobal
}

// Exists reports whether path names a non-empty file.
func (p *Pool) Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir() && fi.Size() > 0
}

// Read returns the bytes at path.
func (p *Pool) Read(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, a4ferr.New("pool.Read", a4ferr.KindNotFound, path, err)
	}
	return b, nil
}

// Write writes data to path, honoring mode. Writes are made atomic by
// writing to a sibling temp file and renaming, so a crash never leaves a
// half-written artifact for a later cache check to trust.
func (p *Pool) Write(path string, data []byte, mode ExistsMode) error {
	if mode == Fail && p.Exists(path) {
		return a4ferr.New("pool.Write", a4ferr.KindIntegrity, fmt.Sprintf("%s already exists", path), nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return a4ferr.New("pool.Write", a4ferr.KindInternal, path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return a4ferr.New("pool.Write", a4ferr.KindInternal, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return a4ferr.New("pool.Write", a4ferr.KindInternal, path, err)
	}
	return nil
}

// Produce is the function signature passed to Ensure: it derives the
// artifact bytes for a path that the cache doesn't already have.
type Produce func(ctx context.Context) ([]byte, error)

// Ensure implements the "pool cache" primitive from spec.md §9: a cache
// file that already exists (and the cache is active) is read and returned
// unchanged; otherwise produce is invoked and the result is atomically
// written before being returned.
func (p *Pool) Ensure(ctx context.Context, path string, produce Produce) ([]byte, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "pool.Ensure", "path", path)
	if p.cacheActive() && p.Exists(path) {
		zlog.Debug(ctx).Msg("cache hit")
		return p.Read(path)
	}
	zlog.Debug(ctx).Msg("cache miss, producing")
	data, err := produce(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.Write(path, data, Overwrite); err != nil {
		return nil, err
	}
	return data, nil
}

// CheckPrerequisites verifies that, for the identity implied by dir, every
// Filetype prerequisite of want already exists in the pool — the write
// invariant from spec.md §3.
func (p *Pool) CheckPrerequisites(rel Relationship, name, version string, want Filetype) error {
	for _, req := range prerequisites[want] {
		path := p.Resolve(rel, name, version, "", req)
		if !p.Exists(path) {
			return a4ferr.New("pool.CheckPrerequisites", a4ferr.KindIntegrity,
				fmt.Sprintf("missing prerequisite %s for %s", req, want), nil)
		}
	}
	return nil
}
