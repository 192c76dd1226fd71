package main

import (
	"context"
	"flag"

	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/config"
	"github.com/alien4friends/a4f-core/internal/matcher"
	"github.com/alien4friends/a4f-core/internal/matcher/debianidx"
	"github.com/alien4friends/a4f-core/internal/matcher/snapshot"
	"github.com/alien4friends/a4f-core/internal/pool"
)

// runSnapMatch matches every package in the session against the
// historical Debian snapshot service, per spec.md §4.4b.
func runSnapMatch(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("snapmatch", flag.ContinueOnError)
	common.register(fs)
	baseURL := fs.String("base-url", "https://snapshot.debian.org", "snapshot.debian.org-compatible base URL")
	if err := fs.Parse(args); err != nil {
		return a4ferr.New("runSnapMatch", a4ferr.KindConfig, "parsing flags", err)
	}
	configureLogging(common)

	sid, err := requireSessionID(common)
	if err != nil {
		return err
	}
	p, err := openPool(settings, common.IgnoreCache)
	if err != nil {
		return err
	}
	s, err := loadSession(p, sid)
	if err != nil {
		return err
	}

	m := snapshot.New(debianidx.NewHTTPSnapshot(*baseURL))

	for i, ref := range s.Refs {
		pkg, err := loadPackage(ctx, p, ref.Identity)
		if err != nil {
			zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("cannot load aliensrc, skipping snapmatch")
			s.Refs[i].Errors = append(s.Refs[i].Errors, a4ferr.NewEntry("snapmatch", err))
			continue
		}
		res, err := m.Match(ctx, pkg, ref.Identity.Variant)
		if err != nil {
			zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("no snapshot match")
			entry := a4ferr.NewEntry("snapmatch", err)
			s.Refs[i].Errors = append(s.Refs[i].Errors, entry)
			if !common.DryRun {
				noMatch := &matcher.Result{Alien: pkg.Identity(ref.Identity.Variant), Errors: []a4ferr.Entry{entry}}
				if werr := writeJSON(p, pool.Userland, ref.Identity.Name, ref.Identity.Version, pool.SNAPMATCH, noMatch); werr != nil {
					zlog.Warn(ctx).Err(werr).Msg("cannot record snapmatch failure")
				}
			}
			continue
		}
		if !common.DryRun {
			if err := fetchSnapshotSources(ctx, p, m.Snap, res); err != nil {
				zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("could not fetch debian source artifacts")
				res.Errors = append(res.Errors, a4ferr.NewEntry("snapmatch.fetch", err))
			}
			if err := writeJSON(p, pool.Userland, ref.Identity.Name, ref.Identity.Version, pool.SNAPMATCH, res); err != nil {
				return err
			}
		}
		s.Refs[i].Status.Matched = true
		s.Refs[i].Score = res.Score
		printf(common, "%s -> %s %s (score %.1f)\n", ref.Identity, res.DebianName, res.DebianVersion, res.Score)
	}

	if common.DryRun {
		return nil
	}
	return saveSession(p, s)
}
