package main

import (
	"context"
	"encoding/json"
	"flag"

	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/config"
	"github.com/alien4friends/a4f-core/internal/deltacode"
	"github.com/alien4friends/a4f-core/internal/pool"
)

// runDelta computes the file-level delta between a package's own ScanCode
// report and its matched Debian source's ScanCode report, per spec.md
// §4.5.
func runDelta(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("delta", flag.ContinueOnError)
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return a4ferr.New("runDelta", a4ferr.KindConfig, "parsing flags", err)
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

	for i, ref := range s.Refs {
		var match struct {
			DebianName    string `json:"debian_name"`
			DebianVersion string `json:"debian_version"`
		}
		if err := readJSON(p, artifactPath(p, ref.Identity, pool.ALIENMATCHER), &match); err != nil {
			if err := readJSON(p, artifactPath(p, ref.Identity, pool.SNAPMATCH), &match); err != nil {
				zlog.Warn(ctx).Str("package", ref.Identity.String()).Msg("no debian match on file, skipping delta")
				continue
			}
		}

		newReport, err := loadScanReport(p, artifactPath(p, ref.Identity, pool.SCANCODE_JSON))
		if err != nil {
			zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("no alien scancode report, skipping delta")
			continue
		}
		debianJSONPath := p.Resolve(pool.Debian, match.DebianName, match.DebianVersion, "", pool.SCANCODE_JSON)
		oldReport, err := loadScanReport(p, debianJSONPath)
		if err != nil {
			zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("no debian-side scancode report, skipping delta")
			continue
		}

		report := deltacode.Compute(oldReport, newReport)
		if !common.DryRun {
			if err := writeJSON(p, pool.Userland, ref.Identity.Name, ref.Identity.Version, pool.DELTACODE, report); err != nil {
				return err
			}
		}
		s.Refs[i].Status.Delta = true
		printf(common, "%s delta similarity %.3f\n", ref.Identity, report.Stats.Similarity)
	}

	if common.DryRun {
		return nil
	}
	return saveSession(p, s)
}

// scancodeFile is the subset of ScanCode's native JSON output Deltacode
// needs: path, sha1, and the license/copyright findings.
type scancodeFile struct {
	Path       string `json:"path"`
	SHA1       string `json:"sha1"`
	Licenses   []struct {
		Key string `json:"key"`
	} `json:"licenses"`
	Copyrights []struct {
		Value string `json:"value"`
	} `json:"copyrights"`
}

func loadScanReport(p *pool.Pool, path string) (deltacode.ScanReport, error) {
	data, err := p.Read(path)
	if err != nil {
		return deltacode.ScanReport{}, err
	}
	var doc struct {
		Files []scancodeFile `json:"files"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return deltacode.ScanReport{}, a4ferr.New("loadScanReport", a4ferr.KindCorruptInput, path, err)
	}
	report := deltacode.ScanReport{Files: make([]deltacode.FileRecord, 0, len(doc.Files))}
	for _, f := range doc.Files {
		rec := deltacode.FileRecord{Path: f.Path, SHA1: f.SHA1}
		for _, l := range f.Licenses {
			rec.Licenses = append(rec.Licenses, l.Key)
		}
		for _, c := range f.Copyrights {
			rec.Copyrights = append(rec.Copyrights, c.Value)
		}
		report.Files = append(report.Files, rec)
	}
	return report, nil
}
