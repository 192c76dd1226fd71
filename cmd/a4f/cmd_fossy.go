package main

import (
	"bytes"
	"context"
	"flag"

	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/clearing"
	"github.com/alien4friends/a4f-core/internal/config"
	"github.com/alien4friends/a4f-core/internal/pool"
)

// runFossy imports the alien SPDX concluded licenses into the clearing
// server, finalizes ojo decisions, and polls for the clearing report, per
// spec.md §4.8.
func runFossy(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("fossy", flag.ContinueOnError)
	common.register(fs)
	skipImport := fs.Bool("no-import", false, "skip the SPDX RDF/XML import step")
	if err := fs.Parse(args); err != nil {
		return a4ferr.New("runFossy", a4ferr.KindConfig, "parsing flags", err)
	}
	configureLogging(common)
	if err := requireFossyConfig(settings); err != nil {
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

	client := clearing.New(settings.FossyServer, settings.FossyUser, settings.FossyPassword, settings.FossyGroupID)

	for i, ref := range s.Refs {
		var upload struct {
			UploadID int `json:"upload_id"`
		}
		if err := readJSON(p, artifactPath(p, ref.Identity, pool.UPLOAD_JSON), &upload); err != nil {
			zlog.Warn(ctx).Str("package", ref.Identity.String()).Msg("not uploaded yet, skipping fossy")
			continue
		}

		if !*skipImport {
			if rdfxml, err := p.Read(artifactPath(p, ref.Identity, pool.ALIEN_SPDX)); err == nil {
				if err := client.ImportSPDX(ctx, upload.UploadID, bytes.NewReader(rdfxml)); err != nil {
					return err
				}
			}
		}
		if err := client.MakeOjoDecisions(ctx, upload.UploadID); err != nil {
			return err
		}

		report, err := client.Report(ctx, upload.UploadID)
		if err != nil {
			return err
		}
		if !common.DryRun {
			if err := writeJSON(p, pool.Userland, ref.Identity.Name, ref.Identity.Version, pool.FOSSY_JSON, report); err != nil {
				return err
			}
		}
		s.Refs[i].Status.Fossy = true
		printf(common, "%s fossy folder=%s licenses=%d\n", ref.Identity, report.Folder, len(report.Licenses))
	}

	if common.DryRun {
		return nil
	}
	return saveSession(p, s)
}
