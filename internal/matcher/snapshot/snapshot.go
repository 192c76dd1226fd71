// Package snapshot implements spec.md §4.4b: matching against the
// historical Debian snapshot index, keyed by file SHA1 when possible.
package snapshot

import (
	"sort"

	"context"

	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/alienpkg"
	"github.com/alien4friends/a4f-core/internal/calc"
	"github.com/alien4friends/a4f-core/internal/matcher"
	"github.com/alien4friends/a4f-core/internal/matcher/debianidx"
)

// Matcher matches against the historical Debian snapshot index.
type Matcher struct {
	Snap debianidx.Snapshot
}

var _ matcher.Matcher = (*Matcher)(nil)

func New(snap debianidx.Snapshot) *Matcher {
	return &Matcher{Snap: snap}
}

// Match implements matcher.Matcher. It first tries the alien's main
// archive SHA1 against the snapshot's file index; on a hit, version_score
// and (if names match) package_score are both 100, per spec.md §4.4b. On a
// miss, it falls back to the name/version scoring from §4.4, querying the
// snapshot once per alias name since, unlike the current index, the
// snapshot service has no bulk "list every source package" endpoint.
func (m *Matcher) Match(ctx context.Context, pkg *alienpkg.Package, variant string) (*matcher.Result, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "matcher/snapshot.Match", "package", pkg.PrimaryName())

	if pkg.Main != nil && pkg.Main.SHA1Cksum != "" {
		if res, ok, err := m.matchBySHA1(ctx, pkg, variant); err != nil {
			return nil, err
		} else if ok {
			return res, nil
		}
	}

	zlog.Debug(ctx).Msg("no sha1 hit, falling back to name/version scoring")
	return m.matchByNameVersion(ctx, pkg, variant)
}

func (m *Matcher) matchBySHA1(ctx context.Context, pkg *alienpkg.Package, variant string) (*matcher.Result, bool, error) {
	files, err := m.Snap.BySHA1(ctx, debianidx.FileHash(pkg.Main.SHA1Cksum))
	if err != nil {
		return nil, false, err
	}
	if len(files) == 0 {
		return nil, false, nil
	}
	f := files[0]

	packageScore := 0
	for _, n := range pkg.Manifest.SourcePackage.Name {
		if n == f.SrcPackage {
			packageScore = 100
			break
		}
		if sc := calc.FuzzyPackageScore(n, f.SrcPackage); sc > packageScore {
			packageScore = sc
		}
	}

	srcFiles, err := m.Snap.SourceFiles(ctx, f.SrcPackage, f.SrcVersion)
	if err != nil {
		zlog.Warn(ctx).Err(err).Msg("sha1 hit but could not list source files")
	}
	zlog.Debug(ctx).Str("debian_source", f.SrcPackage).Str("debian_version", f.SrcVersion).Msg("resolved by file sha1")

	return &matcher.Result{
		Alien:         pkg.Identity(variant),
		DebianName:    f.SrcPackage,
		DebianVersion: f.SrcVersion,
		Score:         roundTo1(0.5*float64(packageScore) + 50),
		PackageScore:  packageScore,
		VersionScore:  100,
		Candidates:    []matcher.Candidate{{Version: f.SrcVersion, Distance: 0, IsAliensrc: true}},
		SrcFiles:      srcFiles,
	}, true, nil
}

func (m *Matcher) matchByNameVersion(ctx context.Context, pkg *alienpkg.Package, variant string) (*matcher.Result, error) {
	names := pkg.Manifest.SourcePackage.Name
	var debianName string
	var versions []string
	bestScore := -1
	for _, n := range names {
		vs, err := m.Snap.Versions(ctx, n)
		if err != nil || len(vs) == 0 {
			continue
		}
		score := calc.FuzzyPackageScore(n, n) // exact name hit against the snapshot's own index
		if score > bestScore {
			bestScore, debianName, versions = score, n, vs
		}
	}
	if debianName == "" {
		return nil, a4ferr.New("snapshot.matchByNameVersion", a4ferr.KindNotFound, "no debian name candidate in snapshot", nil)
	}

	alienVersion := pkg.Version()
	cands := make([]matcher.Candidate, 0, len(versions))
	for _, v := range versions {
		cands = append(cands, matcher.Candidate{Version: v, Distance: calc.VersionDistance(alienVersion, v)})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Distance < cands[j].Distance })
	best := cands[0]
	if best.Distance > calc.MaxDistance {
		return nil, a4ferr.New("snapshot.matchByNameVersion", a4ferr.KindNotFound, "best candidate exceeds max distance", nil)
	}

	versionScore := calc.VersionScore(best.Distance)
	score := roundTo1(0.5*float64(bestScore) + 0.5*float64(versionScore))

	srcFiles, err := m.Snap.SourceFiles(ctx, debianName, best.Version)
	if err != nil {
		zlog.Warn(ctx).Err(err).Msg("matched by name/version but could not list source files")
	}

	return &matcher.Result{
		Alien:         pkg.Identity(variant),
		DebianName:    debianName,
		DebianVersion: best.Version,
		Score:         score,
		PackageScore:  bestScore,
		VersionScore:  versionScore,
		Candidates:    cands,
		SrcFiles:      srcFiles,
	}, nil
}

func roundTo1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
