// Package config builds the read-only Settings object threaded through
// command construction, per the Design Note in spec.md §9: no process-wide
// singleton, mirroring the teacher's explicit driver.Configurable style
// (e.g. enricher/kev.Config) rather than a global.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
)

// ScancodeMode selects between the two recognized scanner invocation styles.
type ScancodeMode string

const (
	ScancodeNative  ScancodeMode = "native"
	ScancodeWrapper ScancodeMode = "wrapper"
)

// Settings is the resolved, immutable configuration for one process
// invocation. It is built once in main and passed by value/pointer into
// every command constructor; nothing in the core reads os.Getenv directly
// outside of this package.
type Settings struct {
	Pool        string
	Cache       bool
	LogLevel    string
	Scancode    ScancodeMode
	PrintResult bool

	SPDXToolsCmd   string
	SPDXDisclaimer string
	PackageIDExt   string

	FossyUser     string
	FossyPassword string
	FossyGroupID  string
	FossyServer   string

	LockKey string

	MirrorDBHost     string
	MirrorDBPort     string
	MirrorDBName     string
	MirrorDBUser     string
	MirrorDBPassword string
}

// FromEnviron resolves Settings from the process environment, per the
// variable table in spec.md §6. A4F_POOL is the only variable whose absence
// is a hard ConfigError; every other variable has a documented default.
func FromEnviron() (*Settings, error) {
	s := &Settings{
		Pool:        os.Getenv("A4F_POOL"),
		Cache:       true,
		LogLevel:    "INFO",
		Scancode:    ScancodeNative,
		PrintResult: false,
	}
	if s.Pool == "" {
		return nil, a4ferr.New("config.FromEnviron", a4ferr.KindConfig, "A4F_POOL is required", nil)
	}
	if v, ok := os.LookupEnv("A4F_CACHE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, a4ferr.New("config.FromEnviron", a4ferr.KindConfig, "A4F_CACHE must be a bool", err)
		}
		s.Cache = b
	}
	if v, ok := os.LookupEnv("A4F_LOGLEVEL"); ok {
		s.LogLevel = strings.ToUpper(v)
	}
	if v, ok := os.LookupEnv("A4F_SCANCODE"); ok {
		switch ScancodeMode(strings.ToLower(v)) {
		case ScancodeNative, ScancodeWrapper:
			s.Scancode = ScancodeMode(strings.ToLower(v))
		default:
			return nil, a4ferr.New("config.FromEnviron", a4ferr.KindConfig, fmt.Sprintf("A4F_SCANCODE must be native or wrapper, got %q", v), nil)
		}
	}
	if v, ok := os.LookupEnv("A4F_PRINTRESULT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, a4ferr.New("config.FromEnviron", a4ferr.KindConfig, "A4F_PRINTRESULT must be a bool", err)
		}
		s.PrintResult = b
	}

	s.SPDXToolsCmd = os.Getenv("SPDX_TOOLS_CMD")
	s.SPDXDisclaimer = os.Getenv("SPDX_DISCLAIMER")
	s.PackageIDExt = os.Getenv("PACKAGE_ID_EXT")

	s.FossyUser = os.Getenv("FOSSY_USER")
	s.FossyPassword = os.Getenv("FOSSY_PASSWORD")
	s.FossyGroupID = os.Getenv("FOSSY_GROUP_ID")
	s.FossyServer = os.Getenv("FOSSY_SERVER")
	if err := allOrNone("FOSSY_*", s.FossyUser, s.FossyPassword, s.FossyServer); err != nil {
		return nil, err
	}

	s.LockKey = os.Getenv("A4F_LOCK_KEY")

	s.MirrorDBHost = os.Getenv("MIRROR_DB_HOST")
	s.MirrorDBPort = os.Getenv("MIRROR_DB_PORT")
	s.MirrorDBName = os.Getenv("MIRROR_DB_DBNAME")
	s.MirrorDBUser = os.Getenv("MIRROR_DB_USER")
	s.MirrorDBPassword = os.Getenv("MIRROR_DB_PASSWORD")
	if err := allOrNone("MIRROR_DB_*", s.MirrorDBHost, s.MirrorDBName, s.MirrorDBUser); err != nil {
		return nil, err
	}

	return s, nil
}

// allOrNone enforces that a related group of environment variables is
// either fully set or fully absent, per SPEC_FULL.md's "config" command
// expansion.
func allOrNone(group string, vals ...string) error {
	set, unset := 0, 0
	for _, v := range vals {
		if v == "" {
			unset++
		} else {
			set++
		}
	}
	if set > 0 && unset > 0 {
		return a4ferr.New("config.allOrNone", a4ferr.KindConfig, fmt.Sprintf("%s variables must be set together or not at all", group), nil)
	}
	return nil
}

// Redacted returns a copy of the relevant secret fields masked, suitable for
// the `config` command's printout.
func (s *Settings) Redacted() map[string]string {
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return "****"
	}
	return map[string]string{
		"A4F_POOL":        s.Pool,
		"A4F_CACHE":       strconv.FormatBool(s.Cache),
		"A4F_LOGLEVEL":    s.LogLevel,
		"A4F_SCANCODE":    string(s.Scancode),
		"FOSSY_USER":      s.FossyUser,
		"FOSSY_PASSWORD":  mask(s.FossyPassword),
		"FOSSY_SERVER":    s.FossyServer,
		"MIRROR_DB_HOST":  s.MirrorDBHost,
		"MIRROR_DB_DBNAME": s.MirrorDBName,
		"MIRROR_DB_PASSWORD": mask(s.MirrorDBPassword),
	}
}
