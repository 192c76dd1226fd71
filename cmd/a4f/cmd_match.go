package main

import (
	"context"
	"flag"

	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/config"
	"github.com/alien4friends/a4f-core/internal/matcher"
	"github.com/alien4friends/a4f-core/internal/matcher/current"
	"github.com/alien4friends/a4f-core/internal/matcher/debianidx"
	"github.com/alien4friends/a4f-core/internal/pool"
)

// runMatch matches every package in the session against the current
// Debian index, per spec.md §4.4a.
func runMatch(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("match", flag.ContinueOnError)
	common.register(fs)
	indexURL := fs.String("index-url", "", "URL of the current Debian source-package index")
	if err := fs.Parse(args); err != nil {
		return a4ferr.New("runMatch", a4ferr.KindConfig, "parsing flags", err)
	}
	configureLogging(common)
	if *indexURL == "" {
		return a4ferr.New("runMatch", a4ferr.KindConfig, "--index-url is required", nil)
	}

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

	m := current.New(debianidx.NewHTTPCurrent(*indexURL))

	for i, ref := range s.Refs {
		pkg, err := loadPackage(ctx, p, ref.Identity)
		if err != nil {
			zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("cannot load aliensrc, skipping match")
			s.Refs[i].Errors = append(s.Refs[i].Errors, a4ferr.NewEntry("match", err))
			continue
		}
		res, err := m.Match(ctx, pkg, ref.Identity.Variant)
		if err != nil {
			zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("no debian match")
			entry := a4ferr.NewEntry("match", err)
			s.Refs[i].Errors = append(s.Refs[i].Errors, entry)
			if !common.DryRun {
				noMatch := &matcher.Result{Alien: pkg.Identity(ref.Identity.Variant), Errors: []a4ferr.Entry{entry}}
				if werr := writeJSON(p, pool.Userland, ref.Identity.Name, ref.Identity.Version, pool.ALIENMATCHER, noMatch); werr != nil {
					zlog.Warn(ctx).Err(werr).Msg("cannot record match failure")
				}
			}
			continue
		}
		if !common.DryRun {
			if err := fetchDebianSources(ctx, p, m.Index, res); err != nil {
				zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("could not fetch debian source artifacts")
				res.Errors = append(res.Errors, a4ferr.NewEntry("match.fetch", err))
			}
			if err := writeJSON(p, pool.Userland, ref.Identity.Name, ref.Identity.Version, pool.ALIENMATCHER, res); err != nil {
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
