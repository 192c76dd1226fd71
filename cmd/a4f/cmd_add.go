package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/alienpkg"
	"github.com/alien4friends/a4f-core/internal/config"
	"github.com/alien4friends/a4f-core/internal/identity"
	"github.com/alien4friends/a4f-core/internal/pool"
)

// runAdd ingests one ".aliensrc" archive into the pool and the session's
// work list, per spec.md §4.3.
func runAdd(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	common.register(fs)
	variant := fs.String("variant", "", "variant to record for this package")
	force := fs.Bool("force", false, "overwrite an already-ingested package with the same identity")
	if err := fs.Parse(args); err != nil {
		return a4ferr.New("runAdd", a4ferr.KindConfig, "parsing flags", err)
	}
	configureLogging(common)
	if fs.NArg() != 1 {
		return a4ferr.New("runAdd", a4ferr.KindConfig, "usage: a4f add [--variant=V] <path-to.aliensrc>", nil)
	}
	srcPath := fs.Arg(0)

	f, err := os.Open(srcPath)
	if err != nil {
		return a4ferr.New("runAdd", a4ferr.KindNotFound, srcPath, err)
	}
	defer f.Close()

	pkg, err := alienpkg.Parse(ctx, f)
	if err != nil {
		return err
	}
	id := pkg.Identity(*variant)
	ctx = zlog.ContextWithValues(ctx, "component", "cmd.add", "identity", id.String())

	p, err := openPool(settings, common.IgnoreCache)
	if err != nil {
		return err
	}
	dst := artifactPath(p, id, pool.ALIENSRC)
	if common.DryRun {
		printf(common, "would add %s as %s\n", srcPath, dst)
		return nil
	}
	if p.Exists(dst) && !*force {
		return a4ferr.New("runAdd", a4ferr.KindDuplicate, fmt.Sprintf("%s already ingested, use --force to overwrite", id), nil)
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return a4ferr.New("runAdd", a4ferr.KindNotFound, srcPath, err)
	}
	if err := p.Write(dst, data, pool.Overwrite); err != nil {
		return err
	}

	sid, err := requireSessionID(common)
	if err != nil {
		return err
	}
	s, err := loadSession(p, sid)
	if err != nil {
		return err
	}
	if err := s.Populate(s.Lock, common.IgnoreCache, []identity.Identity{id}, id.Name, id.Version); err != nil {
		return err
	}
	zlog.Info(ctx).Msg("added package to pool and session")
	printf(common, "added %s\n", id)
	return saveSession(p, s)
}
