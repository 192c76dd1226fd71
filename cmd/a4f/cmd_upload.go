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

// uploadRecord is the UPLOAD_JSON artifact: the clearing-server upload id
// once obtained, plus any non-fatal errors caught along the way, per
// spec.md §7's propagation rule.
type uploadRecord struct {
	UploadID int            `json:"upload_id"`
	Errors   []a4ferr.Entry `json:"errors,omitempty"`
}

// runUpload packs and uploads every session package to the clearing
// server and schedules its agents, per spec.md §4.8.
func runUpload(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	common.register(fs)
	folder := fs.String("folder", "", "destination clearing-server folder id")
	if err := fs.Parse(args); err != nil {
		return a4ferr.New("runUpload", a4ferr.KindConfig, "parsing flags", err)
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
		raw, err := p.Read(artifactPath(p, ref.Identity, pool.ALIENSRC))
		if err != nil {
			zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("no aliensrc, skipping upload")
			continue
		}
		var packed bytes.Buffer
		if err := clearing.PackFilesSubtree(ctx, bytes.NewReader(raw), &packed); err != nil {
			zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("cannot repack files subtree, skipping upload")
			rec := uploadRecord{Errors: []a4ferr.Entry{a4ferr.NewEntry("upload", err)}}
			if werr := writeJSON(p, pool.Userland, ref.Identity.Name, ref.Identity.Version, pool.UPLOAD_JSON, rec); werr != nil {
				zlog.Warn(ctx).Err(werr).Msg("cannot record upload failure")
			}
			continue
		}

		if common.DryRun {
			printf(common, "would upload %s\n", ref.Identity)
			continue
		}
		uploadID, err := client.Upload(ctx, ref.Identity, *folder, &packed, ref.Identity.String())
		if err != nil {
			zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("upload failed, skipping")
			rec := uploadRecord{Errors: []a4ferr.Entry{a4ferr.NewEntry("upload", err)}}
			if werr := writeJSON(p, pool.Userland, ref.Identity.Name, ref.Identity.Version, pool.UPLOAD_JSON, rec); werr != nil {
				zlog.Warn(ctx).Err(werr).Msg("cannot record upload failure")
			}
			continue
		}
		rec := uploadRecord{UploadID: uploadID}
		if err := client.ScheduleAgents(ctx, uploadID, clearing.AgentSet); err != nil {
			zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("could not schedule agents")
			rec.Errors = append(rec.Errors, a4ferr.NewEntry("upload.scheduleAgents", err))
		}
		if err := writeJSON(p, pool.Userland, ref.Identity.Name, ref.Identity.Version, pool.UPLOAD_JSON, rec); err != nil {
			return err
		}
		s.Refs[i].Status.Uploaded = true
		printf(common, "%s uploaded as upload %d\n", ref.Identity, uploadID)
	}

	if common.DryRun {
		return nil
	}
	return saveSession(p, s)
}

func requireFossyConfig(settings *config.Settings) error {
	if settings.FossyServer == "" || settings.FossyUser == "" {
		return a4ferr.New("requireFossyConfig", a4ferr.KindConfig, "FOSSY_SERVER/FOSSY_USER/FOSSY_PASSWORD must be set", nil)
	}
	return nil
}
