package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"bytes"
	"context"

	"github.com/rs/zerolog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/alienpkg"
	"github.com/alien4friends/a4f-core/internal/config"
	"github.com/alien4friends/a4f-core/internal/identity"
	"github.com/alien4friends/a4f-core/internal/matcher"
	"github.com/alien4friends/a4f-core/internal/matcher/debianidx"
	"github.com/alien4friends/a4f-core/internal/pool"
	"github.com/alien4friends/a4f-core/internal/session"
)

// configureLogging applies -v/-q, per spec.md §6, once a subcommand's own
// flag set has parsed commonFlags. main sets the InfoLevel default before
// any subcommand-specific flags are known.
func configureLogging(common *commonFlags) {
	switch {
	case common.Quiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case common.Verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// loadPackage re-parses the identity's stored .aliensrc archive from the
// pool. Package is immutable and cheap enough to re-derive per command run
// rather than cached separately, per spec.md §3.
func loadPackage(ctx context.Context, p *pool.Pool, id identity.Identity) (*alienpkg.Package, error) {
	data, err := p.Read(artifactPath(p, id, pool.ALIENSRC))
	if err != nil {
		return nil, err
	}
	return alienpkg.Parse(ctx, bytes.NewReader(data))
}

// artifactPath resolves the pool path for one identity's artifact under
// the "userland" relationship, the home of every alien-side artifact from
// aliensrc through final.spdx, per spec.md §3.
func artifactPath(p *pool.Pool, id identity.Identity, ft pool.Filetype) string {
	return p.Resolve(pool.Userland, id.Name, id.Version, "", ft)
}

// readJSON decodes the JSON artifact at path into v.
func readJSON(p *pool.Pool, path string, v any) error {
	data, err := p.Read(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return a4ferr.New("readJSON", a4ferr.KindCorruptInput, path, err)
	}
	return nil
}

// writeJSON encodes v as indented JSON and writes it atomically to path,
// enforcing CheckPrerequisites first per the Pool write invariant.
func writeJSON(p *pool.Pool, rel pool.Relationship, name, version string, ft pool.Filetype, v any) error {
	if err := p.CheckPrerequisites(rel, name, version, ft); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return a4ferr.New("writeJSON", a4ferr.KindInternal, "encoding artifact", err)
	}
	path := p.Resolve(rel, name, version, "", ft)
	return p.Write(path, data, pool.Overwrite)
}

// jsonIndent encodes v the same way writeJSON does, for callers writing to
// an aggregate path that CheckPrerequisites doesn't model (spec.md §4.10's
// stats relationship is keyed by session id, not package identity).
func jsonIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, a4ferr.New("jsonIndent", a4ferr.KindInternal, "encoding artifact", err)
	}
	return data, nil
}

// fetchDebianSources downloads and stores the matched Debian source
// artifacts (dsc, orig tarball, packaging overlay) for a current-index
// match, then fills in the Result's debsrc_orig/debsrc_debian/dsc_format
// fields, per spec.md §4.4a.
func fetchDebianSources(ctx context.Context, p *pool.Pool, idx debianidx.Current, res *matcher.Result) error {
	files, err := idx.SourceFiles(ctx, res.DebianName, res.DebianVersion)
	if err != nil {
		return err
	}
	if err := debianidx.Store(ctx, idx, p, res.DebianName, res.DebianVersion, files); err != nil {
		return err
	}
	applyClassification(p, res, files)
	return nil
}

// fetchSnapshotSources is fetchDebianSources's snapshot-matcher twin: the
// snapshot matcher already resolved res.SrcFiles while matching, so there
// is no separate SourceFiles lookup.
func fetchSnapshotSources(ctx context.Context, p *pool.Pool, snap debianidx.Snapshot, res *matcher.Result) error {
	if len(res.SrcFiles) == 0 {
		return a4ferr.New("fetchSnapshotSources", a4ferr.KindNotFound, "matcher result has no srcfiles", nil)
	}
	if err := debianidx.Store(ctx, snap, p, res.DebianName, res.DebianVersion, res.SrcFiles); err != nil {
		return err
	}
	applyClassification(p, res, res.SrcFiles)
	return nil
}

func applyClassification(p *pool.Pool, res *matcher.Result, files []debianidx.Artifact) {
	orig, overlay, dsc := debianidx.Classify(files)
	res.DebsrcOrig = orig
	res.DebsrcDebian = overlay
	if dsc == nil {
		return
	}
	dscPath := p.Resolve(pool.Debian, res.DebianName, res.DebianVersion, "", pool.DEBIAN_DSC_RAW)
	if data, err := p.Read(dscPath); err == nil {
		res.DscFormat = matcher.ParseDscFormat(data)
	}
}

func openPool(settings *config.Settings, ignoreCache bool) (*pool.Pool, error) {
	p, err := pool.Open(settings.Pool, settings.Cache)
	if err != nil {
		return nil, err
	}
	p.IgnoreCache = ignoreCache
	return p, nil
}

func sessionPath(p *pool.Pool, id string) string {
	return p.Resolve(pool.Session, "", "", id, pool.SESSION_JSON)
}

func loadSession(p *pool.Pool, id string) (*session.Session, error) {
	path := sessionPath(p, id)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return session.New(id), nil
		}
		return nil, a4ferr.New("loadSession", a4ferr.KindInternal, "opening session file", err)
	}
	defer f.Close()
	return session.Load(f)
}

func saveSession(p *pool.Pool, s *session.Session) error {
	path := sessionPath(p, s.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return a4ferr.New("saveSession", a4ferr.KindInternal, "creating session dir", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return a4ferr.New("saveSession", a4ferr.KindInternal, "creating temp session file", err)
	}
	if err := s.Save(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return a4ferr.New("saveSession", a4ferr.KindInternal, "closing temp session file", err)
	}
	return os.Rename(tmp, path)
}

func requireSessionID(common *commonFlags) (string, error) {
	if common.Session == "" {
		return "", a4ferr.New("requireSessionID", a4ferr.KindConfig, "--session is required", nil)
	}
	return common.Session, nil
}

func printf(common *commonFlags, format string, args ...any) {
	if common.Quiet {
		return
	}
	fmt.Printf(format, args...)
}
