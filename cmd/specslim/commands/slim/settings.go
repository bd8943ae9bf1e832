package slim

import (
	"context"
	"fmt"
	"os"

	"github.com/specslim/specslim/internal/config"
	"github.com/spf13/cobra"
)

type settingsKey struct{}

// loadSettings runs before every command and stores the merged settings on the command context.
func loadSettings(cmd *cobra.Command, _ []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	settings, err := config.Load(dir, cmd.Flags())
	if err != nil {
		return err
	}

	cmd.SetContext(withSettings(cmd.Context(), settings))
	return nil
}

func withSettings(ctx context.Context, settings *config.Settings) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, settingsKey{}, settings)
}

// settingsFrom returns the settings stored on ctx, or the built-in defaults.
func settingsFrom(ctx context.Context) *config.Settings {
	if ctx != nil {
		if settings, ok := ctx.Value(settingsKey{}).(*config.Settings); ok {
			return settings
		}
	}
	return config.Defaults()
}
