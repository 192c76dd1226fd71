package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"

	"github.com/quay/zlog"
	"github.com/spdx/tools-golang/tvsaver"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/config"
	"github.com/alien4friends/a4f-core/internal/debian2spdx"
	"github.com/alien4friends/a4f-core/internal/pool"
)

// runSpdxDebian builds the Debian-side SPDX document from debian/copyright
// and debian/control, per spec.md §4.6.
func runSpdxDebian(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("spdxdebian", flag.ContinueOnError)
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return a4ferr.New("runSpdxDebian", a4ferr.KindConfig, "parsing flags", err)
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
				continue
			}
		}

		copyrightRaw, err := p.Read(p.Resolve(pool.Debian, match.DebianName, match.DebianVersion, "", pool.DEBIAN_COPYRIGHT_RAW))
		if err != nil {
			continue
		}
		controlRaw, err := p.Read(p.Resolve(pool.Debian, match.DebianName, match.DebianVersion, "", pool.DEBIAN_CONTROL_RAW))
		if err != nil {
			continue
		}

		c, err := debian2spdx.ParseCopyright(bytes.NewReader(copyrightRaw))
		if err != nil {
			zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("corrupt debian/copyright, skipping spdxdebian")
			s.Refs[i].Errors = append(s.Refs[i].Errors, a4ferr.NewEntry("spdxdebian", err))
			continue
		}
		ctrl, err := debian2spdx.ParseControl(bytes.NewReader(controlRaw))
		if err != nil {
			zlog.Warn(ctx).Err(err).Str("package", ref.Identity.String()).Msg("corrupt debian/control, skipping spdxdebian")
			s.Refs[i].Errors = append(s.Refs[i].Errors, a4ferr.NewEntry("spdxdebian", err))
			continue
		}

		doc := debian2spdx.Build(c, ctrl, debian2spdx.BuildOptions{
			SourceName:        match.DebianName,
			SourceVersion:     match.DebianVersion,
			DocumentNamespace: fmt.Sprintf("https://a4f.example/spdx/%s-%s", match.DebianName, match.DebianVersion),
		})

		var buf bytes.Buffer
		if err := tvsaver.Save2_3(doc, &buf); err != nil {
			return a4ferr.New("runSpdxDebian", a4ferr.KindInternal, "rendering debian spdx tag-value", err)
		}
		if !common.DryRun {
			if err := p.Write(artifactPath(p, ref.Identity, pool.DEBIAN_SPDX), buf.Bytes(), pool.Overwrite); err != nil {
				return err
			}
		}
		s.Refs[i].Status.SPDX = true
		printf(common, "%s debian spdx built from %s %s\n", ref.Identity, match.DebianName, match.DebianVersion)
	}

	if common.DryRun {
		return nil
	}
	return saveSession(p, s)
}
