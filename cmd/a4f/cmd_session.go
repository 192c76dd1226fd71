package main

import (
	"context"
	"flag"
	"os"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/config"
	"github.com/alien4friends/a4f-core/internal/identity"
	"github.com/alien4friends/a4f-core/internal/session"
)

// runSession creates, locks, unlocks, or reports on a session, per
// spec.md §4.2.
func runSession(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("session", flag.ContinueOnError)
	common.register(fs)
	lock := fs.String("lock", "", "lock the session with this key")
	unlock := fs.String("unlock", "", "unlock the session, presenting this key")
	force := fs.Bool("force", false, "bypass lock-key checks")
	report := fs.Bool("report", false, "print the session's report CSV to stdout")
	if err := fs.Parse(args); err != nil {
		return a4ferr.New("runSession", a4ferr.KindConfig, "parsing flags", err)
	}
	configureLogging(common)

	id, err := requireSessionID(common)
	if err != nil {
		return err
	}

	p, err := openPool(settings, common.IgnoreCache)
	if err != nil {
		return err
	}
	s, err := loadSession(p, id)
	if err != nil {
		return err
	}

	switch {
	case *lock != "":
		if err := s.LockSession(s.Lock, *lock, *force); err != nil {
			return err
		}
	case *unlock != "":
		if err := s.Unlock(*unlock, *force); err != nil {
			return err
		}
	case *report:
		// No upload tracking is wired at the session-command level yet;
		// every row reports its stored per-package flags only.
		return s.ReportCSV(os.Stdout, func(identity.Identity) session.UploadState {
			return session.UploadState{}
		})
	}

	if common.DryRun {
		return nil
	}
	return saveSession(p, s)
}
