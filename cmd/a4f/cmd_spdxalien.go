package main

import (
	"bytes"
	"context"
	"flag"

	"github.com/spdx/tools-golang/spdx/v2/v2_3"
	"github.com/spdx/tools-golang/tagvalue"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/alienspdx"
	"github.com/alien4friends/a4f-core/internal/config"
	"github.com/alien4friends/a4f-core/internal/deltacode"
	"github.com/alien4friends/a4f-core/internal/pool"
)

// runSpdxAlien synthesizes the final alien SPDX document from the
// scancode findings and, when available, the matched Debian SPDX
// document, per spec.md §4.7.
func runSpdxAlien(ctx context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("spdxalien", flag.ContinueOnError)
	common.register(fs)
	forceFull := fs.Bool("apply-debian-full", false, "force the full-debian synthesis tier regardless of similarity")
	if err := fs.Parse(args); err != nil {
		return a4ferr.New("runSpdxAlien", a4ferr.KindConfig, "parsing flags", err)
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
		scancodeDoc, err := loadSPDX(p, artifactPath(p, ref.Identity, pool.SCANCODE_SPDX))
		if err != nil {
			continue
		}

		var delta *deltacode.Report
		var deltaDoc deltacode.Report
		if err := readJSON(p, artifactPath(p, ref.Identity, pool.DELTACODE), &deltaDoc); err == nil {
			delta = &deltaDoc
		}

		var debianDoc *v2_3.Document
		if delta != nil {
			if doc, err := loadSPDX(p, artifactPath(p, ref.Identity, pool.DEBIAN_SPDX)); err == nil {
				debianDoc = doc
			}
		}

		similarity := 0.0
		if delta != nil {
			similarity = delta.Stats.Similarity
		}
		alienDoc, tier := alienspdx.Synthesize(scancodeDoc, delta, debianDoc, alienspdx.Options{
			Similarity:      similarity,
			ForceDebianFull: *forceFull,
		})

		var buf bytes.Buffer
		if err := tagvalue.Write(alienDoc, &buf); err != nil {
			return a4ferr.New("runSpdxAlien", a4ferr.KindInternal, "rendering alien spdx tag-value", err)
		}
		if !common.DryRun {
			if err := p.Write(artifactPath(p, ref.Identity, pool.ALIEN_SPDX), buf.Bytes(), pool.Overwrite); err != nil {
				return err
			}
		}
		s.Refs[i].Status.SPDX = true
		printf(common, "%s alien spdx tier %s\n", ref.Identity, tier)
	}

	if common.DryRun {
		return nil
	}
	return saveSession(p, s)
}

func loadSPDX(p *pool.Pool, path string) (*v2_3.Document, error) {
	data, err := p.Read(path)
	if err != nil {
		return nil, err
	}
	doc := &v2_3.Document{}
	if err := tagvalue.ReadInto(bytes.NewReader(data), doc); err != nil {
		return nil, a4ferr.New("loadSPDX", a4ferr.KindCorruptInput, path, err)
	}
	return doc, nil
}
