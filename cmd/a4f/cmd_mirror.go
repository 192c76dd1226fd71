package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/config"
	"github.com/alien4friends/a4f-core/internal/mirror"
	"github.com/alien4friends/a4f-core/internal/pool"
)

// runMirror projects every session package's TinfoilHat document into the
// Postgres mirror table, per spec.md §4.12.
func runMirror(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("mirror", flag.ContinueOnError)
	common.register(fs)
	full := fs.Bool("full", false, "use FULL mode instead of the default DELTA mode")
	if err := fs.Parse(args); err != nil {
		return a4ferr.New("runMirror", a4ferr.KindConfig, "parsing flags", err)
	}
	configureLogging(common)
	if err := requireMirrorConfig(settings); err != nil {
		return err
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

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		settings.MirrorDBUser, settings.MirrorDBPassword, settings.MirrorDBHost, settings.MirrorDBPort, settings.MirrorDBName)
	dbPool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return a4ferr.New("runMirror", a4ferr.KindNetwork, "connecting to mirror database", err)
	}
	defer dbPool.Close()

	m := mirror.New(dbPool)
	if err := m.EnsureSchema(ctx); err != nil {
		return err
	}

	var rows []mirror.Row
	for _, ref := range s.Refs {
		raw, err := p.Read(artifactPath(p, ref.Identity, pool.TINFOILHAT))
		if err != nil {
			continue
		}
		rows = append(rows, mirror.Row{
			Session: sid,
			FName:   ref.Identity.String(),
			Data:    raw,
		})
	}

	mode := mirror.DELTA
	if *full {
		mode = mirror.FULL
	}
	if common.DryRun {
		printf(common, "would project %d rows in %s mode\n", len(rows), mode)
		return nil
	}
	if err := m.Project(ctx, sid, rows, mode); err != nil {
		return err
	}
	printf(common, "projected %d rows for session %s in %s mode\n", len(rows), sid, mode)
	return nil
}

func requireMirrorConfig(settings *config.Settings) error {
	if settings.MirrorDBHost == "" || settings.MirrorDBName == "" || settings.MirrorDBUser == "" {
		return a4ferr.New("requireMirrorConfig", a4ferr.KindConfig, "MIRROR_DB_* settings must be set", nil)
	}
	return nil
}
