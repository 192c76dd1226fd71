package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/alien4friends/a4f-core/internal/config"
)

// runConfig prints the resolved, redacted configuration and exits.
func runConfig(_ context.Context, settings *config.Settings, common *commonFlags, args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	configureLogging(common)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(settings.Redacted()); err != nil {
		return fmt.Errorf("printing config: %w", err)
	}
	return nil
}
